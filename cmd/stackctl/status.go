package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pogolab/stackctl/pkg/align"
	"github.com/pogolab/stackctl/pkg/status"
	"github.com/pogolab/stackctl/pkg/types"
	"github.com/pogolab/stackctl/pkg/ux"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stack dashboard",
	Long: `Show the read-only dashboard: config alignment, database and user
state, compose container state, and recent stackctl runs. Sections
whose source is unreachable degrade to warnings.

The exit code is the number of problems found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd)
	},
}

// runStatus builds and renders the dashboard. cmd is whichever command
// cobra actually executed; its flag set carries the inherited
// persistent flags.
func runStatus(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	agg := &status.Aggregator{
		Checker:     align.NewChecker(cfg, align.DefaultRules(cfg.ConfigDir)),
		ComposeFile: cfg.ComposeFile,
		RecentRuns:  5,
	}

	// Database state is optional on the dashboard: connect if we
	// can, warn if we cannot.
	if client, err := openClient(cmd.Context(), cfg); err == nil {
		defer client.Close()
		agg.Reconciler = newReconciler(cfg, client)
	}
	if store := openHistory(cfg); store != nil {
		defer store.Close()
		agg.History = store
	}

	report := agg.Gather(cmd.Context())
	renderReport(report)
	exitErrors += report.Errors()
	return nil
}

// renderReport prints the aggregated dashboard
func renderReport(r *status.Report) {
	fmt.Println(ux.Styles.Title.Render("stackctl dashboard"))
	fmt.Println()

	if r.Alignment != nil {
		fmt.Println(ux.Styles.Section.Render("Config alignment"))
		for _, result := range r.Alignment {
			switch result.State {
			case types.AlignAligned:
				fmt.Println("  " + ux.OK("%s", result.Rule.Name))
			case types.AlignMismatch:
				fmt.Println("  " + ux.Bad("%s disagrees with %s (got %s)",
					result.Rule.Name, result.Rule.EnvKey, ux.Redact(result.Got)))
			case types.AlignUnresolved:
				fmt.Println("  " + ux.Warn("%s not templated yet", result.Rule.Name))
			case types.AlignAbsent:
				fmt.Println("  " + ux.Styles.Muted.Render(ux.GlyphDot+" "+result.Rule.Name+" absent"))
			}
		}
		fmt.Println()
	}

	if r.Plan != nil {
		fmt.Println(ux.Styles.Section.Render("Databases"))
		for _, d := range r.Plan.Databases {
			if d.State == types.DatabasePresent {
				fmt.Println("  " + ux.OK("%s", d.Name))
			} else {
				fmt.Println("  " + ux.Bad("%s missing", d.Name))
			}
		}
		fmt.Println()
		fmt.Println(ux.Styles.Section.Render("Users"))
		for _, u := range r.Plan.Users {
			switch u.State {
			case types.UserFull:
				fmt.Println("  " + ux.OK("%s", u.Name))
			case types.UserLimited:
				fmt.Println("  " + ux.Warn("%s exists with limited privileges", u.Name))
			case types.UserMissing:
				fmt.Println("  " + ux.Bad("%s missing", u.Name))
			}
		}
		fmt.Println()
	}

	if r.Services != nil {
		fmt.Println(ux.Styles.Section.Render("Services"))
		for _, s := range r.Services {
			switch s.State {
			case types.ServiceRunning:
				if s.Health != "" && s.Health != "healthy" {
					fmt.Println("  " + ux.Warn("%s running (%s)", s.Name, s.Health))
				} else {
					fmt.Println("  " + ux.OK("%s running", s.Name))
				}
			default:
				fmt.Println("  " + ux.Bad("%s %s", s.Name, s.State))
			}
		}
		fmt.Println()
	}

	if len(r.Runs) > 0 {
		fmt.Println(ux.Styles.Section.Render("Recent runs"))
		for _, run := range r.Runs {
			line := fmt.Sprintf("%s %s: %d ok, %d failed",
				run.StartedAt.Format("2006-01-02 15:04"), run.Kind, run.Succeeded(), run.Failed())
			if run.Failed() > 0 {
				fmt.Println("  " + ux.Warn("%s", line))
			} else {
				fmt.Println("  " + ux.Styles.Muted.Render(ux.GlyphDot+" "+line))
			}
		}
		fmt.Println()
	}

	for _, w := range r.Warnings {
		fmt.Println(ux.Warn("%s", w))
	}
}
