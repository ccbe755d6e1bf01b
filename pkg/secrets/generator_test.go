package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pogolab/stackctl/pkg/types"
)

// TestGenerate tests random credential generation bounds and charset
func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "minimum length", length: MinLength},
		{name: "maximum length", length: MaxLength},
		{name: "typical length", length: 32},
		{name: "too short", length: MinLength - 1, wantErr: true},
		{name: "too long", length: MaxLength + 1, wantErr: true},
		{name: "zero", length: 0, wantErr: true},
		{name: "negative", length: -5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Generate(tt.length)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Generate(%d) expected error, got %q", tt.length, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate(%d) unexpected error: %v", tt.length, err)
			}
			if len(got) != tt.length {
				t.Errorf("Generate(%d) length = %d", tt.length, len(got))
			}
			for _, c := range got {
				if !strings.ContainsRune(alphabet, c) {
					t.Errorf("Generate(%d) produced character %q outside alphabet", tt.length, c)
				}
			}
		})
	}
}

// TestGenerateUnique tests that consecutive values differ
func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		v, err := Generate(32)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[v] {
			t.Fatalf("duplicate value %q after %d generations", v, i)
		}
		seen[v] = true
	}
}

// TestNewGenerator tests registry validation
func TestNewGenerator(t *testing.T) {
	valid := types.Credential{
		Name:   "db-password",
		Marker: "{{DB_PASS}}",
		Length: 32,
	}

	tests := []struct {
		name        string
		credentials []types.Credential
		wantErr     bool
	}{
		{name: "valid registry", credentials: []types.Credential{valid}},
		{name: "empty registry", credentials: nil, wantErr: true},
		{
			name: "empty name",
			credentials: []types.Credential{
				{Name: "", Marker: "{{X}}"},
			},
			wantErr: true,
		},
		{
			name: "empty marker",
			credentials: []types.Credential{
				{Name: "a", Marker: ""},
			},
			wantErr: true,
		},
		{
			name: "duplicate marker",
			credentials: []types.Credential{
				{Name: "a", Marker: "{{X}}"},
				{Name: "b", Marker: "{{X}}"},
			},
			wantErr: true,
		},
		{
			name: "length out of range",
			credentials: []types.Credential{
				{Name: "a", Marker: "{{X}}", Length: 8},
			},
			wantErr: true,
		},
		{
			name: "zero length means default",
			credentials: []types.Credential{
				{Name: "a", Marker: "{{X}}", Length: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.credentials)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGenerator() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestValuesProvided tests that operator-provided values win over
// generated ones
func TestValuesProvided(t *testing.T) {
	gen, err := NewGenerator([]types.Credential{
		{Name: "db-password", Marker: "{{DB_PASS}}", Length: 32},
		{Name: "api-secret", Marker: "{{API_SECRET}}", Length: 32},
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	values, err := gen.Values(map[string]string{"db-password": "operator-chosen-value"})
	if err != nil {
		t.Fatalf("Values: %v", err)
	}

	if values["db-password"] != "operator-chosen-value" {
		t.Errorf("provided value was not kept: %q", values["db-password"])
	}
	if len(values["api-secret"]) != 32 {
		t.Errorf("generated value length = %d, want 32", len(values["api-secret"]))
	}
}

// TestApply tests substitution across real files with per-file reports
func TestApply(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	tomlFile := filepath.Join(dir, "config.toml")

	writeFile(t, envFile, "DB_PASS={{DB_PASS}}\nAPI_SECRET={{API_SECRET}}\n")
	writeFile(t, tomlFile, "password = \"{{DB_PASS}}\"\n")

	gen, err := NewGenerator([]types.Credential{
		{
			Name: "db-password", Marker: "{{DB_PASS}}", Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "DB_PASS"},
				{File: tomlFile, Key: "password"},
			},
		},
		{
			Name: "api-secret", Marker: "{{API_SECRET}}", Length: 32,
			Locations: []types.Location{
				{File: envFile, Key: "API_SECRET"},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	values := map[string]string{
		"db-password": "PW1234567890abcdef",
		"api-secret":  "AS1234567890abcdef",
	}
	reports, err := gen.Apply(values)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	env := readFile(t, envFile)
	if !strings.Contains(env, "DB_PASS=PW1234567890abcdef") {
		t.Errorf("env file not substituted: %q", env)
	}
	if strings.Contains(env, "{{") {
		t.Errorf("markers left in env file: %q", env)
	}
	toml := readFile(t, tomlFile)
	if !strings.Contains(toml, "password = \"PW1234567890abcdef\"") {
		t.Errorf("toml file not substituted: %q", toml)
	}

	counts := make(map[string]int)
	for _, r := range reports {
		counts[r.Credential+"|"+r.File] = r.Replacements
	}
	if counts["db-password|"+envFile] != 1 {
		t.Errorf("db-password env replacements = %d, want 1", counts["db-password|"+envFile])
	}
	if counts["db-password|"+tomlFile] != 1 {
		t.Errorf("db-password toml replacements = %d, want 1", counts["db-password|"+tomlFile])
	}
	if counts["api-secret|"+envFile] != 1 {
		t.Errorf("api-secret env replacements = %d, want 1", counts["api-secret|"+envFile])
	}
}

// TestApplyMissingMarker tests that an expected location whose marker is
// absent is reported, never silently skipped
func TestApplyMissingMarker(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "DB_PASS=already-set-by-hand\n")

	gen, err := NewGenerator([]types.Credential{
		{
			Name: "db-password", Marker: "{{DB_PASS}}", Length: 32,
			Locations: []types.Location{{File: envFile, Key: "DB_PASS"}},
		},
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	reports, err := gen.Apply(map[string]string{"db-password": "newvalue12345678"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	r := reports[0]
	if r.Replacements != 0 || !r.Expected {
		t.Errorf("report = %+v, want zero replacements with Expected set", r)
	}

	// The hand-set value must be untouched
	if got := readFile(t, envFile); got != "DB_PASS=already-set-by-hand\n" {
		t.Errorf("file was modified: %q", got)
	}
}

// TestApplyContinuesPastUnreadableFile tests that one missing config
// file does not stop the remaining files from being written
func TestApplyContinuesPastUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "dragonite", "config.toml")
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "DB_PASS={{DB_PASS}}\n")

	gen, err := NewGenerator([]types.Credential{
		{
			Name: "db-password", Marker: "{{DB_PASS}}", Length: 32,
			Locations: []types.Location{
				{File: missing, Key: "password"},
				{File: envFile, Key: "DB_PASS"},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	reports, err := gen.Apply(map[string]string{"db-password": "PW1234567890abcdef"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// The env file sorts after the missing one and must still be written
	if got := readFile(t, envFile); got != "DB_PASS=PW1234567890abcdef\n" {
		t.Errorf("env file not substituted after unreadable file: %q", got)
	}

	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	for _, r := range reports {
		if r.File == missing {
			if r.Replacements != 0 || !r.Expected {
				t.Errorf("unreadable file report = %+v, want expected zero-replacement warning", r)
			}
		}
		if r.File == envFile && r.Replacements != 1 {
			t.Errorf("env file report = %+v, want one replacement", r)
		}
	}
}

// TestApplyReportOrder tests that reports follow registry order within
// a file
func TestApplyReportOrder(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	writeFile(t, envFile, "B={{B}}\nA={{A}}\nC={{C}}\n")

	gen, err := NewGenerator([]types.Credential{
		{Name: "cred-b", Marker: "{{B}}", Length: 16, Locations: []types.Location{{File: envFile, Key: "B"}}},
		{Name: "cred-a", Marker: "{{A}}", Length: 16, Locations: []types.Location{{File: envFile, Key: "A"}}},
		{Name: "cred-c", Marker: "{{C}}", Length: 16, Locations: []types.Location{{File: envFile, Key: "C"}}},
	})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	values := map[string]string{
		"cred-a": "aaaaaaaaaaaaaaaa",
		"cred-b": "bbbbbbbbbbbbbbbb",
		"cred-c": "cccccccccccccccc",
	}
	for i := 0; i < 5; i++ {
		writeFile(t, envFile, "B={{B}}\nA={{A}}\nC={{C}}\n")
		reports, err := gen.Apply(values)
		if err != nil {
			t.Fatalf("Apply: %v", err)
		}
		var names []string
		for _, r := range reports {
			names = append(names, r.Credential)
		}
		want := []string{"cred-b", "cred-a", "cred-c"}
		for j := range want {
			if names[j] != want[j] {
				t.Fatalf("report order = %v, want %v", names, want)
			}
		}
	}
}

// TestDefaultCredentials tests the standard registry shape
func TestDefaultCredentials(t *testing.T) {
	creds := DefaultCredentials(".env", "configs")
	if _, err := NewGenerator(creds); err != nil {
		t.Fatalf("default registry does not validate: %v", err)
	}

	byName := make(map[string]types.Credential, len(creds))
	for _, c := range creds {
		byName[c.Name] = c
	}

	dbPass, ok := byName["db-password"]
	if !ok {
		t.Fatal("registry is missing db-password")
	}
	if len(dbPass.Locations) != 4 {
		t.Errorf("db-password locations = %d, want 4", len(dbPass.Locations))
	}
	if dbPass.Marker != "{{DB_PASS}}" {
		t.Errorf("db-password marker = %q", dbPass.Marker)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
