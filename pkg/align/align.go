package align

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pogolab/stackctl/pkg/config"
	"github.com/pogolab/stackctl/pkg/log"
	"github.com/pogolab/stackctl/pkg/types"
)

// Format identifies the extraction rule applied to a config file
type Format string

const (
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// Rule binds one canonical env key to one (file, key) extraction target
type Rule struct {
	Name   string // human-readable label for reports
	EnvKey string // canonical key in the environment file
	File   string
	Format Format
	Key    string // key extracted from the file, first match depth-first
}

// Result is the outcome of checking a single rule
type Result struct {
	Rule  Rule
	State types.AlignState
	Got   string // extracted value; only populated on mismatch
	Err   string // set when the file was unreadable or unparseable
}

// Checker verifies that every config file location of a logical
// credential holds the value the canonical environment file declares
type Checker struct {
	cfg   *config.Config
	rules []Rule
}

// NewChecker creates a checker over the given rules
func NewChecker(cfg *config.Config, rules []Rule) *Checker {
	return &Checker{cfg: cfg, rules: rules}
}

// Check evaluates every rule. A missing or unparseable file is a
// validation warning on that rule, not a fatal error; remaining rules
// are still evaluated.
func (c *Checker) Check() []Result {
	logger := log.WithComponent("align")
	results := make([]Result, 0, len(c.rules))

	for _, rule := range c.rules {
		result := c.check(rule)
		if result.Err != "" {
			logger.Warn().
				Str("rule", rule.Name).
				Str("file", rule.File).
				Str("error", result.Err).
				Msg("skipping unreadable config file")
		}
		results = append(results, result)
	}
	return results
}

func (c *Checker) check(rule Rule) Result {
	result := Result{Rule: rule}

	canonical, ok := c.cfg.Value(rule.EnvKey)
	if !ok || canonical == "" {
		// Canonical side not set yet: nothing to compare against.
		result.State = types.AlignAbsent
		return result
	}

	data, err := os.ReadFile(rule.File)
	if err != nil {
		result.State = types.AlignAbsent
		result.Err = err.Error()
		return result
	}

	var value string
	var found bool
	switch rule.Format {
	case FormatTOML:
		value, found, err = ExtractTOML(data, rule.Key)
	case FormatJSON:
		value, found, err = ExtractJSON(data, rule.Key)
	default:
		value, found = "", false
	}
	if err != nil {
		result.Err = err.Error()
		// A file that fails to parse because it still holds raw
		// template tokens is "not templated yet", not missing the key.
		if templatedFor(data, rule.EnvKey) {
			result.State = types.AlignUnresolved
		} else {
			result.State = types.AlignAbsent
		}
		return result
	}

	result.State = Classify(canonical, value, found)
	if result.State == types.AlignMismatch {
		result.Got = value
	}
	return result
}

// templatedFor is the textual fallback for files structured parsing
// cannot read: it reports whether raw still carries an unexpanded
// reference to the canonical key
func templatedFor(raw []byte, envKey string) bool {
	s := string(raw)
	return strings.Contains(s, "${"+envKey+"}") || strings.Contains(s, "{{"+envKey+"}}")
}

// hasTemplateToken reports whether value still carries any unexpanded
// substitution reference
func hasTemplateToken(value string) bool {
	if strings.Contains(value, "${") && strings.Contains(value, "}") {
		return true
	}
	return strings.Contains(value, "{{") && strings.Contains(value, "}}")
}

// Classify maps one extracted value against the canonical one.
// An absent or empty value is Absent, never a mismatch. A value that
// still holds an unexpanded reference, either shell style ${VAR} or
// substitution marker style {{VAR}}, is Unresolved: the file has not
// been templated yet, which is distinct from disagreeing.
func Classify(canonical, value string, found bool) types.AlignState {
	if !found || value == "" {
		return types.AlignAbsent
	}
	if hasTemplateToken(value) {
		return types.AlignUnresolved
	}
	if value == canonical {
		return types.AlignAligned
	}
	return types.AlignMismatch
}

// Mismatches returns the subset of results that disagree with the
// canonical value, for actionable reporting
func Mismatches(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.State == types.AlignMismatch {
			out = append(out, r)
		}
	}
	return out
}

// DefaultRules builds the rule set for the standard stack layout under
// configDir, mirroring the locations the secret generator writes
func DefaultRules(configDir string) []Rule {
	dragonite := filepath.Join(configDir, "dragonite", "config.toml")
	golbat := filepath.Join(configDir, "golbat", "config.toml")
	poracle := filepath.Join(configDir, "poracle", "local.json")

	return []Rule{
		{Name: "dragonite db user", EnvKey: "DB_USER", File: dragonite, Format: FormatTOML, Key: "user"},
		{Name: "dragonite db password", EnvKey: "DB_PASS", File: dragonite, Format: FormatTOML, Key: "password"},
		{Name: "dragonite api secret", EnvKey: "DRAGONITE_API_SECRET", File: dragonite, Format: FormatTOML, Key: "api_secret"},
		{Name: "dragonite raw bearer", EnvKey: "RAW_BEARER", File: dragonite, Format: FormatTOML, Key: "raw_bearer"},
		{Name: "dragonite koji secret", EnvKey: "KOJI_SECRET", File: dragonite, Format: FormatTOML, Key: "koji_secret"},
		{Name: "golbat db user", EnvKey: "DB_USER", File: golbat, Format: FormatTOML, Key: "user"},
		{Name: "golbat db password", EnvKey: "DB_PASS", File: golbat, Format: FormatTOML, Key: "password"},
		{Name: "golbat api secret", EnvKey: "GOLBAT_API_SECRET", File: golbat, Format: FormatTOML, Key: "api_secret"},
		{Name: "golbat raw bearer", EnvKey: "RAW_BEARER", File: golbat, Format: FormatTOML, Key: "bearer_token"},
		{Name: "poracle db user", EnvKey: "DB_USER", File: poracle, Format: FormatJSON, Key: "username"},
		{Name: "poracle db password", EnvKey: "DB_PASS", File: poracle, Format: FormatJSON, Key: "password"},
		{Name: "poracle secret", EnvKey: "PORACLE_SECRET", File: poracle, Format: FormatJSON, Key: "secret"},
	}
}
