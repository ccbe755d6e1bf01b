/*
Package history persists recent reconcile and maintenance outcomes to a
local bbolt file.

Every apply produces a RunRecord with per-item outcomes; appending it
here lets the status dashboard answer "what ran last and did it work"
without the operator scrolling logs. Keys sort chronologically and old
entries are pruned on write, so the file stays small. This is
operator convenience state, local to the machine running stackctl, and
deleting it loses nothing the database itself does not still show.
*/
package history
