package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pogolab/stackctl/pkg/log"
	"github.com/pogolab/stackctl/pkg/types"
)

// AdminOp is a non-destructive table administration statement
type AdminOp string

const (
	OpOptimize AdminOp = "OPTIMIZE"
	OpAnalyze  AdminOp = "ANALYZE"
	OpCheck    AdminOp = "CHECK"
	OpRepair   AdminOp = "REPAIR"
)

// ErrConfirmPhrase is returned when a truncation is attempted without
// the exact confirmation phrase; the operation is a guaranteed no-op in
// that case.
var ErrConfirmPhrase = errors.New("confirmation phrase does not match, nothing truncated")

// TruncateConfirmPhrase returns the exact phrase an operator must type
// to truncate a table. A plain "yes" is deliberately not enough:
// truncation is the one operation with no row-count preview worth
// anything, because everything goes.
func TruncateConfirmPhrase(tableKey string) string {
	return "yes, truncate " + tableKey
}

// Truncate removes every row of the table, guarded by the typed
// exact-match phrase. phrase must equal TruncateConfirmPhrase(tableKey)
// byte for byte or nothing happens.
func (m *Maintenance) Truncate(ctx context.Context, tableKey, phrase string) (*types.RunRecord, error) {
	if phrase != TruncateConfirmPhrase(tableKey) {
		return nil, ErrConfirmPhrase
	}

	run := &types.RunRecord{
		ID:        uuid.NewString(),
		Kind:      "truncate",
		StartedAt: time.Now(),
	}
	outcome := types.Outcome{Item: tableKey, Action: "truncate"}

	tbl, err := Lookup(tableKey)
	if err != nil {
		return finishRun(run, outcome, err)
	}
	qualified, err := tbl.Qualified()
	if err != nil {
		return finishRun(run, outcome, err)
	}

	if _, err := m.client.Exec(ctx, "TRUNCATE TABLE "+qualified); err != nil {
		return finishRun(run, outcome, err)
	}

	outcome.OK = true
	logger := log.WithRunID(run.ID)
	logger.Info().Str("table", tableKey).Msg("table truncated")
	return finishRun(run, outcome, nil)
}

// CountRows returns the current row count of a registered table, used
// to display impact before a truncation is confirmed
func (m *Maintenance) CountRows(ctx context.Context, tableKey string) (int64, error) {
	tbl, err := Lookup(tableKey)
	if err != nil {
		return 0, err
	}
	qualified, err := tbl.Qualified()
	if err != nil {
		return 0, err
	}
	return m.client.SelectInt(ctx, "SELECT COUNT(*) FROM "+qualified)
}

// TableOp runs one admin statement (OPTIMIZE/ANALYZE/CHECK/REPAIR)
// against a registered table under the long-op timeout and returns the
// server's message text in the outcome
func (m *Maintenance) TableOp(ctx context.Context, op AdminOp, tableKey string) (*types.RunRecord, error) {
	switch op {
	case OpOptimize, OpAnalyze, OpCheck, OpRepair:
	default:
		return nil, fmt.Errorf("unknown table operation %q", op)
	}

	run := &types.RunRecord{
		ID:        uuid.NewString(),
		Kind:      "tables",
		StartedAt: time.Now(),
	}
	outcome := types.Outcome{Item: tableKey, Action: string(op)}

	tbl, err := Lookup(tableKey)
	if err != nil {
		return finishRun(run, outcome, err)
	}
	qualified, err := tbl.Qualified()
	if err != nil {
		return finishRun(run, outcome, err)
	}

	msg, err := m.client.Admin(ctx, TableOpTimeout, string(op)+" TABLE "+qualified)
	if err != nil {
		return finishRun(run, outcome, err)
	}

	outcome.OK = true
	logger := log.WithRunID(run.ID)
	logger.Info().
		Str("table", tableKey).
		Str("op", string(op)).
		Str("result", msg).
		Msg("table operation finished")
	return finishRun(run, outcome, nil)
}
