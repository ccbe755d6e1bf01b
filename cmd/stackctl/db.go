package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pogolab/stackctl/pkg/maintenance"
	"github.com/pogolab/stackctl/pkg/types"
	"github.com/pogolab/stackctl/pkg/ux"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Reconcile and maintain the stack's databases",
}

var dbReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Create missing databases and users, grant missing privileges",
	Long: `Diff the declared databases and the users referenced by the service
configs against the live server, then apply the missing creates and
grants. Nothing is ever dropped or downgraded, and re-running against
a converged server is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return runReconcile(cmd, yes)
	},
}

func runReconcile(cmd *cobra.Command, yes bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := openClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	recon := newReconciler(cfg, client)
	plan, err := recon.Plan(cmd.Context())
	if err != nil {
		return err
	}

	if plan.Converged() {
		fmt.Println(ux.OK("databases and users already match the declared state"))
		return nil
	}

	// Show the diff before asking for anything
	for _, d := range plan.Databases {
		if d.State == types.DatabaseMissing {
			fmt.Println(ux.Warn("database %s will be created", d.Name))
		}
	}
	for _, u := range plan.Users {
		switch u.State {
		case types.UserMissing:
			fmt.Println(ux.Warn("user %s will be created and granted full privileges", u.Name))
		case types.UserLimited:
			fmt.Println(ux.Warn("user %s will be escalated to full privileges", u.Name))
		}
	}

	if !yes {
		ok, err := confirm("Apply these changes?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(ux.Styles.Muted.Render("aborted, nothing changed"))
			return nil
		}
	}

	run, applyErr := recon.Apply(cmd.Context(), plan)
	if store := openHistory(cfg); store != nil {
		recordRun(store, run)
		store.Close()
	}
	printOutcomes(run)
	exitErrors += run.Failed()
	return applyErr
}

var dbCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete stale scanner rows older than a threshold",
	Long: `Count and delete rows whose last-update timestamp is older than the
threshold. The affected row count is shown before anything is deleted,
and deletion runs in batches so large cleanups never hold a long table
lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, _ := cmd.Flags().GetString("table")
		hours, _ := cmd.Flags().GetInt("hours")
		batch, _ := cmd.Flags().GetInt("batch")
		yes, _ := cmd.Flags().GetBool("yes")
		return runCleanup(cmd, table, hours, batch, yes)
	},
}

func runCleanup(cmd *cobra.Command, table string, hours, batch int, yes bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := openClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	maint := maintenance.New(client)
	plan, err := maint.PlanStale(cmd.Context(), table, time.Duration(hours)*time.Hour)
	if err != nil {
		return err
	}

	if plan.Rows == 0 {
		fmt.Println(ux.OK("no rows in %s older than %dh", table, hours))
		return nil
	}

	if !yes {
		ok, err := confirm(fmt.Sprintf("Delete %d rows from %s older than %dh?", plan.Rows, table, hours))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(ux.Styles.Muted.Render("aborted, nothing deleted"))
			return nil
		}
	}

	run, applyErr := maint.ApplyStale(cmd.Context(), plan, batch)
	if store := openHistory(cfg); store != nil {
		recordRun(store, run)
		store.Close()
	}
	printOutcomes(run)
	exitErrors += run.Failed()
	return applyErr
}

var dbAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Clean up problem accounts",
	Long: `Delete unusable accounts (banned, invalid, auth-banned) and reset
recoverable flags (warn, suspended). Row counts per flag are shown
before anything runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flagList, _ := cmd.Flags().GetString("flags")
		yes, _ := cmd.Flags().GetBool("yes")

		var flags []string
		if flagList != "" {
			flags = strings.Split(flagList, ",")
		}
		return runAccounts(cmd, flags, yes)
	},
}

func runAccounts(cmd *cobra.Command, flags []string, yes bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := openClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	maint := maintenance.New(client)
	items, err := maint.PlanAccounts(cmd.Context())
	if err != nil {
		return err
	}

	selected := make(map[string]bool, len(flags))
	for _, f := range flags {
		selected[f] = true
	}

	var total int64
	for _, item := range items {
		if len(flags) > 0 && !selected[item.Cleanup.Flag] {
			continue
		}
		total += item.Rows
		fmt.Println(ux.Warn("%s: %d account(s) to %s", item.Cleanup.Flag, item.Rows, item.Cleanup.Action))
	}
	if total == 0 {
		fmt.Println(ux.OK("no problem accounts found"))
		return nil
	}

	if !yes {
		ok, err := confirm(fmt.Sprintf("Apply account cleanup to %d row(s)?", total))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(ux.Styles.Muted.Render("aborted, nothing changed"))
			return nil
		}
	}

	run, applyErr := maint.ApplyAccounts(cmd.Context(), flags)
	if store := openHistory(cfg); store != nil {
		recordRun(store, run)
		store.Close()
	}
	printOutcomes(run)
	exitErrors += run.Failed()
	return applyErr
}

var dbTablesCmd = &cobra.Command{
	Use:   "tables [optimize|analyze|check|repair] TABLE",
	Short: "Run a table maintenance operation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTables(cmd, args[0], args[1])
	},
}

func runTables(cmd *cobra.Command, op, table string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := openClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	maint := maintenance.New(client)
	run, opErr := maint.TableOp(cmd.Context(), maintenance.AdminOp(strings.ToUpper(op)), table)
	if run != nil {
		if store := openHistory(cfg); store != nil {
			recordRun(store, run)
			store.Close()
		}
		printOutcomes(run)
		exitErrors += run.Failed()
	}
	return opErr
}

var dbTruncateCmd = &cobra.Command{
	Use:   "truncate TABLE",
	Short: "Remove every row of a table (typed confirmation required)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		phrase, _ := cmd.Flags().GetString("confirm")
		return runTruncate(cmd, args[0], phrase)
	},
}

func runTruncate(cmd *cobra.Command, table, phrase string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := openClient(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	maint := maintenance.New(client)
	rows, err := maint.CountRows(cmd.Context(), table)
	if err != nil {
		return err
	}
	fmt.Println(ux.Warn("%s currently holds %d row(s); truncation is irreversible", table, rows))

	want := maintenance.TruncateConfirmPhrase(table)
	if phrase == "" {
		prompt := huh.NewInput().
			Title(fmt.Sprintf("Type %q to proceed", want)).
			Value(&phrase)
		if err := huh.NewForm(huh.NewGroup(prompt)).Run(); err != nil {
			return err
		}
	}

	run, truncErr := maint.Truncate(cmd.Context(), table, phrase)
	if errors.Is(truncErr, maintenance.ErrConfirmPhrase) {
		fmt.Println(ux.Styles.Muted.Render("phrase did not match, nothing truncated"))
		return nil
	}
	if run != nil {
		if store := openHistory(cfg); store != nil {
			recordRun(store, run)
			store.Close()
		}
		printOutcomes(run)
		exitErrors += run.Failed()
	}
	return truncErr
}

func init() {
	dbCmd.AddCommand(dbReconcileCmd)
	dbCmd.AddCommand(dbCleanupCmd)
	dbCmd.AddCommand(dbAccountsCmd)
	dbCmd.AddCommand(dbTablesCmd)
	dbCmd.AddCommand(dbTruncateCmd)

	dbReconcileCmd.Flags().Bool("yes", false, "Apply without asking")

	dbCleanupCmd.Flags().String("table", "pokestop", "Table to clean (pokemon, pokestop, gym, spawnpoint, incident)")
	dbCleanupCmd.Flags().Int("hours", 24, "Staleness threshold in hours")
	dbCleanupCmd.Flags().Int("batch", maintenance.DefaultBatchSize, "Rows deleted per batch")
	dbCleanupCmd.Flags().Bool("yes", false, "Apply without asking")

	dbAccountsCmd.Flags().String("flags", "", "Comma-separated flags to clean (default: all)")
	dbAccountsCmd.Flags().Bool("yes", false, "Apply without asking")

	dbTruncateCmd.Flags().String("confirm", "", "Confirmation phrase (skips the prompt)")
}

// confirm shows a yes/no prompt
func confirm(title string) (bool, error) {
	ok := false
	field := huh.NewConfirm().Title(title).Value(&ok)
	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return false, err
	}
	return ok, nil
}

// printOutcomes renders a run's per-item results
func printOutcomes(run *types.RunRecord) {
	if run == nil {
		return
	}
	for _, o := range run.Outcomes {
		switch {
		case o.OK && o.Rows > 0:
			fmt.Println(ux.OK("%s %s (%d rows)", o.Action, o.Item, o.Rows))
		case o.OK:
			fmt.Println(ux.OK("%s %s", o.Action, o.Item))
		default:
			fmt.Println(ux.Bad("%s %s: %s", o.Action, o.Item, o.Error))
		}
	}
}
