/*
Package reconciler diffs the declared database and user requirements of
the mapping stack against live MariaDB state and applies idempotent
corrections.

# Model

Each required database is observed in one of two states, each required
login in one of three:

	Database: Missing ──create──▶ Present
	User:     Missing ──create──▶ Limited ──grant──▶ Full

Existence and privilege level are independently checkable booleans; a
login that exists without the full global privilege set is Limited.
Both transitions are idempotent (CREATE ... IF NOT EXISTS, GRANT), so
re-running a converged reconcile changes nothing and reports nothing.

# Plan / Apply

Plan is a pure read: it queries information_schema and mysql.user and
returns the diff without touching anything, so it can back both the
dashboard and a dry run. Apply drives every non-terminal item to its
terminal state in a single pass, recording a per-item Outcome.

# Failure semantics

An individual create or grant failure (permission denied, duplicate
name under a case-insensitive collation) marks that item failed and
processing continues; partial failure is expected and surfaced, not
fatal. Only a connection loss aborts the run, since every following
statement would fail the same way. Convergence after a partial run
comes from re-running, not from transactions.

The reconciler never drops a database, never removes a login, and never
revokes a privilege. Anything present that is not declared is left
alone.
*/
package reconciler
