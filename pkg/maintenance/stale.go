package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pogolab/stackctl/pkg/log"
	"github.com/pogolab/stackctl/pkg/types"
)

// StalePlan is the computed impact of one stale-row cleanup: the rows
// that would be deleted at the given cutoff. Building it mutates
// nothing.
type StalePlan struct {
	TableKey  string
	Threshold time.Duration
	Cutoff    int64 // epoch seconds; rows strictly older are stale
	Rows      int64
}

// PlanStale counts the rows of table older than threshold. Staleness is
// time-column < now - threshold, so for thresholds T1 < T2 the T2 set
// is always a subset of the T1 set.
func (m *Maintenance) PlanStale(ctx context.Context, tableKey string, threshold time.Duration) (*StalePlan, error) {
	if threshold <= 0 {
		threshold = DefaultStaleThreshold
	}
	tbl, err := Lookup(tableKey)
	if err != nil {
		return nil, err
	}
	if tbl.TimeColumn == "" {
		return nil, fmt.Errorf("table %q has no staleness column", tableKey)
	}
	qualified, err := tbl.Qualified()
	if err != nil {
		return nil, err
	}
	column, err := quoteColumn(tbl.TimeColumn)
	if err != nil {
		return nil, err
	}

	cutoff := m.Now().Add(-threshold).Unix()
	rows, err := m.client.SelectInt(ctx,
		"SELECT COUNT(*) FROM "+qualified+" WHERE "+column+" < ?", cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to count stale rows in %s: %w", tableKey, err)
	}

	return &StalePlan{
		TableKey:  tableKey,
		Threshold: threshold,
		Cutoff:    cutoff,
		Rows:      rows,
	}, nil
}

// ApplyStale deletes the rows the plan counted, in batches of batchSize
// so no single DELETE holds a long lock. The predicate is re-evaluated
// per batch against the plan's fixed cutoff, so re-running a finished
// cleanup is a no-op.
func (m *Maintenance) ApplyStale(ctx context.Context, plan *StalePlan, batchSize int) (*types.RunRecord, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	run := &types.RunRecord{
		ID:        uuid.NewString(),
		Kind:      "cleanup",
		StartedAt: time.Now(),
	}
	logger := log.WithRunID(run.ID)
	outcome := types.Outcome{Item: plan.TableKey, Action: "delete-stale"}

	tbl, err := Lookup(plan.TableKey)
	if err != nil {
		return finishRun(run, outcome, err)
	}
	qualified, err := tbl.Qualified()
	if err != nil {
		return finishRun(run, outcome, err)
	}
	column, err := quoteColumn(tbl.TimeColumn)
	if err != nil {
		return finishRun(run, outcome, err)
	}

	var total int64
	for {
		res, err := m.client.Exec(ctx,
			"DELETE FROM "+qualified+" WHERE "+column+" < ? LIMIT ?", plan.Cutoff, batchSize)
		if err != nil {
			outcome.Rows = total
			return finishRun(run, outcome, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			outcome.Rows = total
			return finishRun(run, outcome, err)
		}
		total += affected
		logger.Debug().
			Str("table", plan.TableKey).
			Int64("batch_rows", affected).
			Int64("total_rows", total).
			Msg("stale batch deleted")
		if affected < int64(batchSize) {
			break
		}
	}

	outcome.OK = true
	outcome.Rows = total
	logger.Info().
		Str("table", plan.TableKey).
		Int64("rows", total).
		Dur("threshold", plan.Threshold).
		Msg("stale cleanup finished")
	return finishRun(run, outcome, nil)
}

// finishRun stamps the run record with its single outcome
func finishRun(run *types.RunRecord, outcome types.Outcome, err error) (*types.RunRecord, error) {
	if err != nil {
		outcome.Error = err.Error()
	}
	run.Outcomes = append(run.Outcomes, outcome)
	run.FinishedAt = time.Now()
	return run, err
}
