/*
Package maintenance implements the parameterized corrective and
destructive database routines: stale-row deletion, account-lifecycle
cleanup, table truncation, and admin table operations.

Every mutating routine is split in two. The plan step (PlanStale,
PlanAccounts, CountRows) computes and returns the impact, a row count
against a fixed cutoff, and mutates nothing. The apply step executes it.
Confirmation prompts therefore live entirely at the CLI layer, and
headless or scripted use calls apply directly.

Safety properties:

  - Tables are resolved through an allow-list registry; an unregistered
    table name is rejected before any SQL is built.
  - Staleness is time-column < now - threshold, so smaller thresholds
    always select a superset of larger ones, and re-running a cleanup
    only ever matches rows still satisfying the predicate.
  - Stale deletes run in LIMIT batches so a multi-million-row cleanup
    never holds one long table lock.
  - Truncation requires a typed exact-match phrase, not a yes/no; a
    wrong phrase returns ErrConfirmPhrase with zero rows touched.
  - Admin operations run under an explicit long timeout so a stuck
    OPTIMIZE surfaces as an error instead of hanging the session.

Per-item failures are recorded in the RunRecord and do not halt a
multi-item batch; idempotent re-runs are the convergence mechanism.
*/
package maintenance
