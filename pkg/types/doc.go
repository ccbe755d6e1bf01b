/*
Package types defines the core data structures shared across stackctl.

This package contains the domain model for stack reconciliation and
maintenance: the declared set of required databases, the tri-state user
and database observations the reconciler diffs against, credential and
substitution records produced by the secret generator, alignment states
reported by the config checker, and the per-item outcome records that
every corrective action emits.

All types are plain data:

  - Serializable (JSON) so runs can be persisted to the local history store
  - Free of behavior beyond trivial accessors
  - Imported by every other package without creating cycles

The state enums deliberately encode the observation model from the
shell-era tooling this replaces: a database is Missing or Present, a
user is Missing, Limited (exists without full grants) or Full, and a
config value is Aligned, Mismatch, Unresolved (still templated) or
Absent. Absent and Unresolved are distinct from Mismatch so that a
half-configured stack never false-positives as broken.
*/
package types
