package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/kolwatch/internal/configs"
	"github.com/songzhibin97/kolwatch/internal/registry"
)

var kolCmd = &cobra.Command{
	Use:   "kol",
	Short: "Manage tracked accounts",
}

var kolAddCmd = &cobra.Command{
	Use:   "add <handle[,handle...]>...",
	Short: "Track one or more accounts",
	Long: `Track accounts by handle. Handles may be comma separated; a leading "@"
is stripped and blanks are ignored. Adding an existing handle is a no-op.

Examples:
  kolwatch kol add alice
  kolwatch kol add @alice,bob carol`,
	Args: cobra.MinimumNArgs(1),
	RunE: runKolAdd,
}

var kolListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tracked accounts, newest first",
	RunE:    runKolList,
}

var kolDeleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Aliases: []string{"rm"},
	Short:   "Stop tracking accounts by id",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runKolDelete,
}

func init() {
	rootCmd.AddCommand(kolCmd)
	kolCmd.AddCommand(kolAddCmd, kolListCmd, kolDeleteCmd)
}

func openConfiguredRegistry(cmd *cobra.Command) (registry.Registry, func(), error) {
	if err := config.Validate(configs.NeedRegistry); err != nil {
		return nil, nil, err
	}

	reg, closer, err := openRegistry(cmd.Context(), config.Registry)
	if err != nil {
		return nil, nil, err
	}
	return reg, func() { _ = closer.Close() }, nil
}

func runKolAdd(cmd *cobra.Command, args []string) error {
	handles := registry.SplitHandles(strings.Join(args, ","))
	if len(handles) == 0 {
		return fmt.Errorf("no valid handles given")
	}

	reg, closeFn, err := openConfiguredRegistry(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	for _, handle := range handles {
		account, err := reg.Create(cmd.Context(), handle)
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", handle, err)
		}
		fmt.Fprintf(out, "tracking @%s (%s)\n", account.Handle, account.ID)
	}
	return nil
}

func runKolList(cmd *cobra.Command, args []string) error {
	reg, closeFn, err := openConfiguredRegistry(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	accounts, err := reg.List(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tHANDLE\tLAST POST\tCREATED")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t@%s\t%s\t%s\n", a.ID, a.Handle, orDash(a.LastSeenPostID), a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runKolDelete(cmd *cobra.Command, args []string) error {
	reg, closeFn, err := openConfiguredRegistry(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	out := cmd.OutOrStdout()
	var missing []string
	for _, id := range args {
		deleted, err := reg.Delete(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", id, err)
		}
		if !deleted {
			missing = append(missing, id)
			continue
		}
		fmt.Fprintf(out, "deleted %s\n", id)
	}

	if len(missing) > 0 {
		return fmt.Errorf("not found: %s", strings.Join(missing, ", "))
	}
	return nil
}
