package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/kolwatch/internal/configs"
)

var (
	flagconf string

	config *configs.Config
	log    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "kolwatch",
	Short: "Watch KOL posts for crypto token mentions",
	Long: `kolwatch polls the latest post of every tracked account, detects token
tickers and contract addresses, cross-checks them against DexScreener and
posts a summary to a Telegram channel.

Example usage:
  kolwatch run --conf configs/config.yaml      # start the poller
  kolwatch run --once                          # run a single cycle and exit
  kolwatch diagnose 1885559762927948123        # dry-run one post
  kolwatch kol add alice,bob                   # track accounts`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		config, err = configs.Load(flagconf)
		if err != nil {
			return err
		}

		log = newLogger(config.LogLevel)
		slog.SetDefault(log)

		if config.Proxy != "" {
			_ = os.Setenv("HTTP_PROXY", config.Proxy)
			_ = os.Setenv("HTTPS_PROXY", config.Proxy)
			log.Debug("set proxy ok", "proxy", config.Proxy)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "", "config path, eg: --conf configs/config.yaml")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
