package maintenance

import (
	"fmt"
	"time"

	"github.com/pogolab/stackctl/pkg/database"
)

const (
	// DefaultStaleThreshold is how old a row must be before it counts
	// as stale, unless overridden per invocation
	DefaultStaleThreshold = 24 * time.Hour

	// DefaultBatchSize bounds each DELETE so large cleanups never hold
	// a long table lock
	DefaultBatchSize = 5000

	// TableOpTimeout bounds OPTIMIZE/ANALYZE/CHECK/REPAIR, which on big
	// tables can otherwise block indefinitely
	TableOpTimeout = 30 * time.Minute
)

// Table describes one table maintenance may touch. TimeColumn is empty
// for tables that have no stale-row semantics.
type Table struct {
	Database   string
	Name       string
	TimeColumn string // epoch-seconds column defining staleness
}

// Qualified returns the validated, quoted `db`.`table` form
func (t Table) Qualified() (string, error) {
	db, err := database.QuoteIdentifier(t.Database)
	if err != nil {
		return "", err
	}
	name, err := database.QuoteIdentifier(t.Name)
	if err != nil {
		return "", err
	}
	return db + "." + name, nil
}

// Tables is the allow-list of maintainable tables, keyed by short name.
// Operations refuse anything outside this registry.
var Tables = map[string]Table{
	"pokemon":    {Database: "golbat", Name: "pokemon", TimeColumn: "expire_timestamp"},
	"pokestop":   {Database: "golbat", Name: "pokestop", TimeColumn: "updated"},
	"gym":        {Database: "golbat", Name: "gym", TimeColumn: "updated"},
	"spawnpoint": {Database: "golbat", Name: "spawnpoint", TimeColumn: "updated"},
	"incident":   {Database: "golbat", Name: "incident", TimeColumn: "updated"},
	"account":    {Database: "dragonite", Name: "account"},
}

// Lookup resolves a table key against the allow-list
func Lookup(key string) (Table, error) {
	t, ok := Tables[key]
	if !ok {
		return Table{}, fmt.Errorf("unknown table %q, not in maintenance allow-list", key)
	}
	return t, nil
}

// StaleTableKeys returns the registry keys that support stale cleanup
func StaleTableKeys() []string {
	var keys []string
	for k, t := range Tables {
		if t.TimeColumn != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Maintenance executes parameterized corrective and destructive
// routines against the stack's databases. Every mutating routine is
// split into a plan step (returns impact, mutates nothing) and an apply
// step, so confirmation can live at the CLI layer and headless use
// needs no terminal.
type Maintenance struct {
	client *database.Client

	// Now is the clock used for staleness cutoffs; overridable in tests
	Now func() time.Time
}

// New creates a Maintenance over the given client
func New(client *database.Client) *Maintenance {
	return &Maintenance{
		client: client,
		Now:    time.Now,
	}
}

// quoteColumn validates and quotes a column name; columns come from the
// registries in this package, never from user input, but they pass the
// same allow-list anyway
func quoteColumn(name string) (string, error) {
	return database.QuoteIdentifier(name)
}
