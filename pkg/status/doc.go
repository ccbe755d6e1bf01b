/*
Package status aggregates the read-only dashboard view: config
alignment, the reconciler's current diff, compose container state, and
recent operation history.

Sections are collected independently and failures downgrade to
warnings, so a half-broken stack (database down, docker up) still
renders everything observable. Report.Errors counts the conditions a
scripted invocation should treat as failures; the CLI uses it as the
process exit code.

Container state comes from `docker compose ps` rather than a container
runtime API because the stack is compose-managed: service names,
profiles and health are compose-level concepts the docker CLI is the
authority on.
*/
package status
