package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pogolab/stackctl/pkg/log"
	"github.com/pogolab/stackctl/pkg/types"
)

// FlagAction is what a cleanup does with rows matching a flag
type FlagAction string

const (
	// ActionDelete removes matching account rows
	ActionDelete FlagAction = "delete"
	// ActionReset clears the flag back to zero, keeping the row
	ActionReset FlagAction = "reset"
)

// FlagCleanup is one boolean-predicate account routine
type FlagCleanup struct {
	Flag   string // boolean column on the accounts table
	Action FlagAction
}

// AccountCleanups is the fixed set of account-lifecycle routines.
// Unusable accounts are deleted; recoverable states are reset.
var AccountCleanups = []FlagCleanup{
	{Flag: "banned", Action: ActionDelete},
	{Flag: "invalid", Action: ActionDelete},
	{Flag: "auth_banned", Action: ActionDelete},
	{Flag: "warn", Action: ActionReset},
	{Flag: "suspended", Action: ActionReset},
}

// AccountPlanItem is the counted impact of one flag cleanup
type AccountPlanItem struct {
	Cleanup FlagCleanup
	Rows    int64
}

// PlanAccounts counts the rows each flag cleanup would touch. Read-only.
func (m *Maintenance) PlanAccounts(ctx context.Context) ([]AccountPlanItem, error) {
	tbl, err := Lookup("account")
	if err != nil {
		return nil, err
	}
	qualified, err := tbl.Qualified()
	if err != nil {
		return nil, err
	}

	var items []AccountPlanItem
	for _, cleanup := range AccountCleanups {
		column, err := quoteColumn(cleanup.Flag)
		if err != nil {
			return nil, err
		}
		rows, err := m.client.SelectInt(ctx,
			"SELECT COUNT(*) FROM "+qualified+" WHERE "+column+" = 1")
		if err != nil {
			return nil, fmt.Errorf("failed to count %s accounts: %w", cleanup.Flag, err)
		}
		items = append(items, AccountPlanItem{Cleanup: cleanup, Rows: rows})
	}
	return items, nil
}

// ApplyAccounts executes the selected flag cleanups. flags limits the
// run to those flag names; nil means all. Per-flag failures are
// recorded and do not halt the remaining cleanups. Re-running is safe:
// the predicates only ever match still-flagged rows.
func (m *Maintenance) ApplyAccounts(ctx context.Context, flags []string) (*types.RunRecord, error) {
	run := &types.RunRecord{
		ID:        uuid.NewString(),
		Kind:      "accounts",
		StartedAt: time.Now(),
	}
	logger := log.WithRunID(run.ID)

	selected := make(map[string]bool, len(flags))
	for _, f := range flags {
		selected[f] = true
	}

	tbl, err := Lookup("account")
	if err != nil {
		run.FinishedAt = time.Now()
		return run, err
	}
	qualified, err := tbl.Qualified()
	if err != nil {
		run.FinishedAt = time.Now()
		return run, err
	}

	for _, cleanup := range AccountCleanups {
		if len(flags) > 0 && !selected[cleanup.Flag] {
			continue
		}

		outcome := types.Outcome{Item: cleanup.Flag, Action: string(cleanup.Action) + "-accounts"}
		column, err := quoteColumn(cleanup.Flag)
		if err != nil {
			outcome.Error = err.Error()
			run.Outcomes = append(run.Outcomes, outcome)
			continue
		}

		var query string
		switch cleanup.Action {
		case ActionDelete:
			query = "DELETE FROM " + qualified + " WHERE " + column + " = 1"
		case ActionReset:
			query = "UPDATE " + qualified + " SET " + column + " = 0 WHERE " + column + " = 1"
		}

		res, err := m.client.Exec(ctx, query)
		if err != nil {
			outcome.Error = err.Error()
			run.Outcomes = append(run.Outcomes, outcome)
			logger.Error().Str("flag", cleanup.Flag).Err(err).Msg("account cleanup failed")
			continue
		}
		outcome.Rows, _ = res.RowsAffected()
		outcome.OK = true
		run.Outcomes = append(run.Outcomes, outcome)
		logger.Info().
			Str("flag", cleanup.Flag).
			Str("action", string(cleanup.Action)).
			Int64("rows", outcome.Rows).
			Msg("account cleanup applied")
	}

	run.FinishedAt = time.Now()
	return run, nil
}
