/*
Package log provides structured logging for stackctl built on zerolog.

A single global logger is initialized once at process start via Init and
consumed through small helpers. Console output (human-readable, colored)
is the default; JSON output is available for log shippers. All log
output goes to stderr so that command results on stdout remain pipeable.

Child loggers carry contextual fields:

	logger := log.WithComponent("reconciler")
	logger.Info().Str("database", "golbat").Msg("created missing database")

Run-scoped loggers attach the run_id that also keys the local history
store, so a log line can be matched to its persisted RunRecord.
*/
package log
