package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/kolwatch/internal/admin"
	"github.com/songzhibin97/kolwatch/internal/configs"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start polling tracked accounts",
	Long: `Poll every tracked account on the configured interval and send a
notification for each new post that mentions a token.

The admin HTTP API is started as well when admin.addr is set.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("once", false, "run a single cycle, print the report and exit")
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := config.Validate(configs.NeedAll); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, config)
	if err != nil {
		return err
	}
	defer a.Close()

	if once, _ := cmd.Flags().GetBool("once"); once {
		report, err := a.scheduler.RunOnce(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if config.Admin.Addr != "" {
		server := admin.NewServer(a.registry, log)
		go func() {
			if err := server.Start(config.Admin.Addr); err != nil {
				log.Error("admin server failed", "err", err)
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Error("admin server forced to shutdown", "err", err)
			}
		}()
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("kolwatch started", "interval", config.Interval(), "registry", config.Registry.Driver)

	<-ctx.Done()

	// 等待当前周期结束，超时则放弃
	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		log.Warn("scheduler did not stop in time", "err", err)
	}
	log.Info("kolwatch stopped")
	return nil
}
