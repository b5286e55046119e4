package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/kolwatch/internal/configs"
	"github.com/songzhibin97/kolwatch/internal/models"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <postID>",
	Short: "Run one post through the pipeline without notifying",
	Long: `Fetch a post by id, run extraction, suppression, verification and
composition, and print the result. Nothing is sent and no cursor changes.

Examples:
  kolwatch diagnose 1885559762927948123
  kolwatch diagnose 1885559762927948123 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().Bool("json", false, "output the full evaluation as JSON")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if err := config.Validate(configs.NeedRegistry | configs.NeedFeed); err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, config)
	if err != nil {
		return err
	}
	defer a.Close()

	post, err := a.fetcher.PostByID(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch post: %w", err)
	}
	if post == nil {
		return fmt.Errorf("post %s: %w", args[0], models.ErrNotFound)
	}

	eval, err := a.scheduler.Evaluate(ctx, post.AuthorHandle, post)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(eval)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "post:     %s (@%s)\n", post.ID, post.AuthorHandle)
	fmt.Fprintf(out, "tier:     %s\n", orDash(string(eval.Mention.SourceTier)))
	fmt.Fprintf(out, "ticker:   %s\n", orDash(eval.Mention.Ticker))
	fmt.Fprintf(out, "contract: %s %s\n", orDash(eval.Mention.Contract), eval.Mention.Chain)
	if eval.Decision.Suppressed {
		fmt.Fprintf(out, "result:   suppressed (%s)\n", eval.Decision.Reason)
		return nil
	}
	if eval.Pair == nil {
		fmt.Fprintln(out, "market:   not found")
	} else {
		fmt.Fprintf(out, "market:   %s %s fdv=%.2f liquidity=%.2f\n",
			eval.Pair.ChainID, eval.Pair.BaseSymbol, eval.Pair.FDV, eval.Pair.LiquidityUSD)
	}
	if eval.Event != nil {
		fmt.Fprintf(out, "\n%s\n", eval.Event.Message)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
