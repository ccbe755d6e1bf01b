/*
Package align verifies that logical credential values are identical
across every config file that references them.

The canonical side of each comparison is the environment file loaded by
pkg/config. Each Rule names one (file, key) slot and the env key it must
match; TOML and JSON files are parsed structurally (go-toml, go-json)
rather than scraped with regexes, with a depth-first first-match search
so a key can live at top level or inside a section without the rule
caring which.

Each comparison lands in one of four states:

  - Aligned: byte-identical to the canonical value
  - Mismatch: values disagree; the offending file is reported
  - Unresolved: the file still holds an unexpanded ${VAR} reference,
    meaning templating has not run yet; deliberately not a mismatch
  - Absent: the key (or the whole file) is missing; also not a mismatch

Unreadable files downgrade to a per-rule warning so one broken service
config never hides the state of the rest of the stack.
*/
package align
