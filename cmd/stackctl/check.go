package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pogolab/stackctl/pkg/align"
	"github.com/pogolab/stackctl/pkg/status"
	"github.com/pogolab/stackctl/pkg/ux"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check config alignment and stack health",
	Long: `Verify the stack without changing anything.

Quick mode checks only that every service config agrees with the
canonical env file. Full mode additionally diffs the database server
against the declared databases and users, and checks container state.

The exit code is the number of problems found, for use in scripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		quick, _ := cmd.Flags().GetBool("quick")
		return runCheck(cmd, quick)
	},
}

func runCheck(cmd *cobra.Command, quick bool) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	agg := &status.Aggregator{
		Checker: align.NewChecker(cfg, align.DefaultRules(cfg.ConfigDir)),
	}

	if !quick {
		agg.ComposeFile = cfg.ComposeFile
		client, err := openClient(cmd.Context(), cfg)
		if err != nil {
			// Full check without a database is a failed check,
			// not a crash.
			fmt.Println(ux.Bad("%v", err))
			exitErrors++
		} else {
			defer client.Close()
			agg.Reconciler = newReconciler(cfg, client)
		}
	}

	report := agg.Gather(cmd.Context())
	renderReport(report)

	n := report.Errors()
	if n == 0 {
		fmt.Println(ux.OK("all checks passed"))
	} else {
		fmt.Println(ux.Bad("%d problem(s) found", n))
	}
	exitErrors += n
	return nil
}

func init() {
	checkCmd.Flags().Bool("quick", false, "Only check config alignment, skip database and containers")
}
