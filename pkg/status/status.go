package status

import (
	"context"
	"fmt"

	"github.com/pogolab/stackctl/pkg/align"
	"github.com/pogolab/stackctl/pkg/history"
	"github.com/pogolab/stackctl/pkg/reconciler"
	"github.com/pogolab/stackctl/pkg/types"
)

// Report is the aggregated read-only view the dashboard renders
type Report struct {
	Alignment []align.Result
	Plan      *reconciler.Plan
	Services  []types.ServiceStatus
	Runs      []types.RunRecord
	Warnings  []string
}

// Errors counts the conditions that should fail a scripted check:
// alignment mismatches, unconverged reconciler items, and services
// that are declared but not running
func (r *Report) Errors() int {
	n := len(align.Mismatches(r.Alignment))
	if r.Plan != nil && !r.Plan.Converged() {
		for _, d := range r.Plan.Databases {
			if d.State != types.DatabasePresent {
				n++
			}
		}
		for _, u := range r.Plan.Users {
			if u.State != types.UserFull {
				n++
			}
		}
	}
	for _, s := range r.Services {
		if s.State != types.ServiceRunning {
			n++
		}
	}
	return n
}

// Aggregator collects each dashboard section independently. Any nil
// source is simply skipped, and a section that fails to collect turns
// into a warning instead of killing the whole view: a dashboard that
// cannot reach the database should still show container state.
type Aggregator struct {
	Checker     *align.Checker
	Reconciler  *reconciler.Reconciler
	History     *history.Store
	ComposeFile string
	RecentRuns  int
}

// Gather builds the report. Never returns an error; partial data plus
// warnings is the contract.
func (a *Aggregator) Gather(ctx context.Context) *Report {
	report := &Report{}

	if a.Checker != nil {
		report.Alignment = a.Checker.Check()
	}

	if a.Reconciler != nil {
		plan, err := a.Reconciler.Plan(ctx)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("database state unavailable: %v", err))
		} else {
			report.Plan = plan
		}
	}

	if a.ComposeFile != "" {
		services, err := Services(ctx, a.ComposeFile)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("container state unavailable: %v", err))
		} else {
			report.Services = services
		}
	}

	if a.History != nil {
		n := a.RecentRuns
		if n <= 0 {
			n = 5
		}
		runs, err := a.History.Recent(n)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("run history unavailable: %v", err))
		} else {
			report.Runs = runs
		}
	}

	return report
}
