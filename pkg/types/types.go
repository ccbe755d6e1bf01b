package types

import (
	"time"
)

// RequiredDatabases is the declared set of databases the mapping stack
// depends on. Every entry must exist on the MariaDB server before the
// dependent service starts.
var RequiredDatabases = []string{
	"dragonite",
	"golbat",
	"reactmap",
	"koji",
	"poracle",
}

// DatabaseState represents the observed state of a required database
type DatabaseState string

const (
	DatabaseMissing DatabaseState = "missing"
	DatabasePresent DatabaseState = "present"
)

// UserState represents the observed state of a required database login.
// Existence and privilege level are checked independently and combine
// into this tri-state.
type UserState string

const (
	UserMissing UserState = "missing"
	UserLimited UserState = "limited"
	UserFull    UserState = "full"
)

// AlignState is the result of comparing one extracted config value
// against the canonical environment value
type AlignState string

const (
	// AlignAligned means the extracted value is byte-identical to the canonical one
	AlignAligned AlignState = "aligned"
	// AlignMismatch means the values disagree
	AlignMismatch AlignState = "mismatch"
	// AlignUnresolved means the file still holds an unexpanded ${VAR} reference
	AlignUnresolved AlignState = "unresolved"
	// AlignAbsent means the key does not appear in the file at all
	AlignAbsent AlignState = "absent"
)

// Credential is a named secret and the set of file locations that must
// hold the identical value
type Credential struct {
	Name      string     `json:"name"`
	Marker    string     `json:"marker"` // literal placeholder token, unique per credential
	Length    int        `json:"length"` // generated value length, 16-48
	Locations []Location `json:"locations"`
}

// Location identifies one (file, key) slot a credential value lives in
type Location struct {
	File string `json:"file"`
	Key  string `json:"key"`
}

// ReplaceReport records the outcome of substituting one credential into
// one file. Zero replacements where at least one was expected is a
// warning condition, never a silent no-op.
type ReplaceReport struct {
	Credential   string `json:"credential"`
	File         string `json:"file"`
	Replacements int    `json:"replacements"`
	Expected     bool   `json:"expected"` // whether the marker was registered for this file
}

// Outcome is the per-item result of one corrective or destructive action
type Outcome struct {
	Item   string `json:"item"`   // database, user, or table name
	Action string `json:"action"` // e.g. "create-database", "grant", "delete-stale"
	OK     bool   `json:"ok"`
	Rows   int64  `json:"rows,omitempty"` // rows affected, where meaningful
	Error  string `json:"error,omitempty"`
}

// RunRecord is one completed reconcile or maintenance run, persisted
// locally so the dashboard can show recent activity
type RunRecord struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "reconcile", "cleanup", "accounts", "tables", "truncate"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Succeeded returns the number of successful outcomes in the run
func (r *RunRecord) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes in the run
func (r *RunRecord) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// ServiceState represents a compose-managed container's state as
// reported by docker
type ServiceState string

const (
	ServiceRunning    ServiceState = "running"
	ServiceExited     ServiceState = "exited"
	ServiceRestarting ServiceState = "restarting"
	ServiceNotCreated ServiceState = "not created"
)

// ServiceStatus pairs a declared compose service with its live state
type ServiceStatus struct {
	Name   string       `json:"name"`
	State  ServiceState `json:"state"`
	Health string       `json:"health,omitempty"`
}
