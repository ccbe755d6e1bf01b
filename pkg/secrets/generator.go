package secrets

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pogolab/stackctl/pkg/log"
	"github.com/pogolab/stackctl/pkg/types"
)

const (
	// alphabet is the character set for generated credential values
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// MinLength and MaxLength bound generated credential values
	MinLength = 16
	MaxLength = 48
)

// Generate produces a random alphanumeric string of the given length
// using the system CSPRNG. Sampling is rejection-based so every
// character of the alphabet is equally likely.
func Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", fmt.Errorf("credential length must be between %d and %d, got %d", MinLength, MaxLength, length)
	}

	out := make([]byte, 0, length)
	buf := make([]byte, 1)
	// Reject bytes >= the largest multiple of len(alphabet) below 256
	// to avoid modulo bias.
	limit := byte(256 - (256 % len(alphabet)))
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		if buf[0] >= limit {
			continue
		}
		out = append(out, alphabet[int(buf[0])%len(alphabet)])
	}
	return string(out), nil
}

// Generator distributes credential values across every registered file
// location by exact-marker substitution
type Generator struct {
	credentials []types.Credential
}

// NewGenerator validates the credential registry and returns a Generator.
// Markers must be non-empty and unique; substitution itself is safe even
// when one marker is a substring of another, but duplicate markers would
// make attribution of replacements ambiguous.
func NewGenerator(credentials []types.Credential) (*Generator, error) {
	if len(credentials) == 0 {
		return nil, fmt.Errorf("no credentials registered")
	}

	seen := make(map[string]string)
	for _, c := range credentials {
		if c.Name == "" {
			return nil, fmt.Errorf("credential with empty name")
		}
		if c.Marker == "" {
			return nil, fmt.Errorf("credential %s has empty marker", c.Name)
		}
		if prev, ok := seen[c.Marker]; ok {
			return nil, fmt.Errorf("credentials %s and %s share marker %q", prev, c.Name, c.Marker)
		}
		seen[c.Marker] = c.Name
		if c.Length != 0 && (c.Length < MinLength || c.Length > MaxLength) {
			return nil, fmt.Errorf("credential %s length %d out of range [%d, %d]", c.Name, c.Length, MinLength, MaxLength)
		}
	}

	return &Generator{credentials: credentials}, nil
}

// Credentials returns the registered credential set
func (g *Generator) Credentials() []types.Credential {
	return g.credentials
}

// Values resolves a value for every credential: operator-provided where
// present in provided (keyed by credential name), freshly generated
// otherwise.
func (g *Generator) Values(provided map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(g.credentials))
	for _, c := range g.credentials {
		if v, ok := provided[c.Name]; ok && v != "" {
			values[c.Name] = v
			continue
		}
		length := c.Length
		if length == 0 {
			length = 32
		}
		v, err := Generate(length)
		if err != nil {
			return nil, fmt.Errorf("failed to generate value for %s: %w", c.Name, err)
		}
		values[c.Name] = v
	}
	return values, nil
}

// Apply substitutes every credential value into every registered file
// and reports, per credential and per file, how many replacements
// occurred. A file registered for a credential that yields zero
// replacements is reported and logged as a warning, never silently
// skipped; an unreadable registered file is likewise a warning and
// does not stop the remaining files from being written.
func (g *Generator) Apply(values map[string]string) ([]types.ReplaceReport, error) {
	logger := log.WithComponent("secrets")

	byMarker := make(map[string]string, len(g.credentials))
	for _, c := range g.credentials {
		v, ok := values[c.Name]
		if !ok {
			return nil, fmt.Errorf("no value resolved for credential %s", c.Name)
		}
		byMarker[c.Marker] = v
	}

	// Collect the distinct files and which credentials expect to
	// appear in each.
	expected := make(map[string]map[string]bool) // file -> credential name -> true
	for _, c := range g.credentials {
		for _, loc := range c.Locations {
			if expected[loc.File] == nil {
				expected[loc.File] = make(map[string]bool)
			}
			expected[loc.File][c.Name] = true
		}
	}

	var reports []types.ReplaceReport
	for _, file := range sortedKeys(expected) {
		data, err := os.ReadFile(file)
		if err != nil {
			// A missing or unreadable file is a warning for the
			// credentials that expected to live in it; the remaining
			// files are still written.
			for _, c := range g.credentials {
				if !expected[file][c.Name] {
					continue
				}
				reports = append(reports, types.ReplaceReport{
					Credential: c.Name,
					File:       file,
					Expected:   true,
				})
				logger.Warn().
					Str("credential", c.Name).
					Str("file", file).
					Err(err).
					Msg("config file unreadable, value not written")
			}
			continue
		}

		replaced, counts := ReplaceMarkers(string(data), byMarker)
		if replaced != string(data) {
			if err := writeFilePreserve(file, []byte(replaced)); err != nil {
				return reports, fmt.Errorf("failed to write %s: %w", file, err)
			}
		}

		// Report in registry order so output is deterministic
		for _, c := range g.credentials {
			n := counts[c.Marker]
			exp := expected[file][c.Name]
			if n == 0 && !exp {
				continue
			}
			reports = append(reports, types.ReplaceReport{
				Credential:   c.Name,
				File:         file,
				Replacements: n,
				Expected:     exp,
			})
			if exp && n == 0 {
				logger.Warn().
					Str("credential", c.Name).
					Str("file", file).
					Msg("expected marker not found, value not written")
			}
		}
	}

	return reports, nil
}

// writeFilePreserve writes data to path keeping the existing file mode
func writeFilePreserve(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	return os.WriteFile(path, data, mode)
}

// sortedKeys returns file names in a stable order so reports and logs
// are deterministic
func sortedKeys(m map[string]map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultCredentials is the registry for the standard stack layout:
// the env file plus the dragonite/golbat TOML configs and the poracle
// JSON config under configDir.
func DefaultCredentials(envFile, configDir string) []types.Credential {
	dragonite := filepath.Join(configDir, "dragonite", "config.toml")
	golbat := filepath.Join(configDir, "golbat", "config.toml")
	poracle := filepath.Join(configDir, "poracle", "local.json")

	return []types.Credential{
		{
			Name:   "mysql-root-password",
			Marker: "{{MYSQL_ROOT_PASSWORD}}",
			Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "MYSQL_ROOT_PASSWORD"},
			},
		},
		{
			Name:   "db-user",
			Marker: "{{DB_USER}}",
			Length: 16,
			Locations: []types.Location{
				{File: envFile, Key: "DB_USER"},
				{File: dragonite, Key: "user"},
				{File: golbat, Key: "user"},
				{File: poracle, Key: "username"},
			},
		},
		{
			Name:   "db-password",
			Marker: "{{DB_PASS}}",
			Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "DB_PASS"},
				{File: dragonite, Key: "password"},
				{File: golbat, Key: "password"},
				{File: poracle, Key: "password"},
			},
		},
		{
			Name:   "dragonite-api-secret",
			Marker: "{{DRAGONITE_API_SECRET}}",
			Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "DRAGONITE_API_SECRET"},
				{File: dragonite, Key: "api_secret"},
			},
		},
		{
			Name:   "golbat-api-secret",
			Marker: "{{GOLBAT_API_SECRET}}",
			Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "GOLBAT_API_SECRET"},
				{File: golbat, Key: "api_secret"},
			},
		},
		{
			Name:   "raw-bearer",
			Marker: "{{RAW_BEARER}}",
			Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "RAW_BEARER"},
				{File: dragonite, Key: "raw_bearer"},
				{File: golbat, Key: "bearer_token"},
			},
		},
		{
			Name:   "koji-secret",
			Marker: "{{KOJI_SECRET}}",
			Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "KOJI_SECRET"},
				{File: dragonite, Key: "koji_secret"},
			},
		},
		{
			Name:   "poracle-secret",
			Marker: "{{PORACLE_SECRET}}",
			Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "PORACLE_SECRET"},
				{File: poracle, Key: "secret"},
			},
		},
	}
}
