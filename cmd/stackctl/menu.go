package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pogolab/stackctl/pkg/maintenance"
	"github.com/pogolab/stackctl/pkg/ux"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu",
	Long: `Run stackctl as an interactive session: pick operations from a menu
instead of typing subcommands. Every menu entry dispatches to the same
code as the corresponding subcommand.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		for {
			var choice string
			sel := huh.NewSelect[string]().
				Title("stackctl").
				Options(
					huh.NewOption("Dashboard", "status"),
					huh.NewOption("Full check", "check"),
					huh.NewOption("Quick check (alignment only)", "quick"),
					huh.NewOption("Reconcile databases and users", "reconcile"),
					huh.NewOption("Delete stale rows", "cleanup"),
					huh.NewOption("Clean up problem accounts", "accounts"),
					huh.NewOption("Table maintenance", "tables"),
					huh.NewOption("Truncate a table", "truncate"),
					huh.NewOption("Generate secrets", "secrets"),
					huh.NewOption("Quit", "quit"),
				).
				Value(&choice)
			if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
				return err
			}
			if choice == "quit" {
				return nil
			}
			if err := menuDispatch(cmd, choice); err != nil {
				fmt.Println(ux.Bad("%v", err))
			}
			fmt.Println()
		}
	},
}

// menuDispatch routes one menu choice to the shared command handlers.
// cmd must be the command cobra executed (the menu itself) so the
// handlers see the inherited persistent flags; dispatching to a sibling
// command object would read an unparsed, empty flag set.
func menuDispatch(cmd *cobra.Command, choice string) error {
	switch choice {
	case "status":
		return runStatus(cmd)
	case "check":
		return runCheck(cmd, false)
	case "quick":
		return runCheck(cmd, true)
	case "reconcile":
		return runReconcile(cmd, false)
	case "cleanup":
		return menuCleanup(cmd)
	case "accounts":
		return runAccounts(cmd, nil, false)
	case "tables":
		return menuTables(cmd)
	case "truncate":
		return menuTruncate(cmd)
	case "secrets":
		return runSecretsGenerate(cmd)
	}
	return nil
}

// staleTableOptions builds select options from the maintenance registry
func staleTableOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, key := range maintenance.StaleTableKeys() {
		opts = append(opts, huh.NewOption(key, key))
	}
	return opts
}

func menuCleanup(cmd *cobra.Command) error {
	var table string
	hours := strconv.Itoa(int(maintenance.DefaultStaleThreshold.Hours()))

	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Table").Options(staleTableOptions()...).Value(&table),
		huh.NewInput().Title("Staleness threshold (hours)").Value(&hours).
			Validate(func(s string) error {
				n, err := strconv.Atoi(s)
				if err != nil || n <= 0 {
					return fmt.Errorf("enter a positive number of hours")
				}
				return nil
			}),
	))
	if err := form.Run(); err != nil {
		return err
	}

	n, err := strconv.Atoi(hours)
	if err != nil {
		return err
	}
	return runCleanup(cmd, table, n, maintenance.DefaultBatchSize, false)
}

func menuTables(cmd *cobra.Command) error {
	var op, table string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Operation").
			Options(
				huh.NewOption("optimize", "optimize"),
				huh.NewOption("analyze", "analyze"),
				huh.NewOption("check", "check"),
				huh.NewOption("repair", "repair"),
			).
			Value(&op),
		huh.NewSelect[string]().Title("Table").Options(staleTableOptions()...).Value(&table),
	))
	if err := form.Run(); err != nil {
		return err
	}
	return runTables(cmd, op, table)
}

func menuTruncate(cmd *cobra.Command) error {
	var table string
	sel := huh.NewSelect[string]().Title("Table to truncate").Options(staleTableOptions()...).Value(&table)
	if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
		return err
	}
	return runTruncate(cmd, table, "")
}
