package align

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pogolab/stackctl/pkg/config"
	"github.com/pogolab/stackctl/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		canonical string
		value     string
		found     bool
		want      types.AlignState
	}{
		{"identical values align", "secret123", "secret123", true, types.AlignAligned},
		{"different values mismatch", "secret123", "other456", true, types.AlignMismatch},
		{"case difference is a mismatch", "Secret", "secret", true, types.AlignMismatch},
		{"key not found is absent", "secret123", "", false, types.AlignAbsent},
		{"empty value is absent not mismatch", "secret123", "", true, types.AlignAbsent},
		{"unexpanded reference is unresolved", "secret123", "${DB_PASS}", true, types.AlignUnresolved},
		{"reference embedded in text is unresolved", "secret123", "pre-${DB_PASS}-post", true, types.AlignUnresolved},
		{"marker awaiting generation is unresolved", "secret123", "{{KOJI_SECRET}}", true, types.AlignUnresolved},
		{"marker embedded in text is unresolved", "secret123", "x{{DB_PASS}}y", true, types.AlignUnresolved},
		{"dollar without braces is compared normally", "$DB_PASS", "$DB_PASS", true, types.AlignAligned},
		{"lone open braces are compared normally", "{{oops", "{{oops", true, types.AlignAligned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.canonical, tt.value, tt.found))
		})
	}
}

func TestMismatches(t *testing.T) {
	results := []Result{
		{Rule: Rule{Name: "a"}, State: types.AlignAligned},
		{Rule: Rule{Name: "b"}, State: types.AlignMismatch},
		{Rule: Rule{Name: "c"}, State: types.AlignUnresolved},
		{Rule: Rule{Name: "d"}, State: types.AlignMismatch},
	}

	got := Mismatches(results)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Rule.Name)
	assert.Equal(t, "d", got[1].Rule.Name)
}

func TestCheckerCheck(t *testing.T) {
	dir := t.TempDir()

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"MYSQL_ROOT_PASSWORD=rootpw\nDB_USER=pogo\nDB_PASS=canonical-pass\nGOLBAT_API_SECRET=golbat-secret\n",
	), 0644))

	tomlFile := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlFile, []byte(
		"user = \"pogo\"\npassword = \"wrong-pass\"\napi_secret = \"${GOLBAT_API_SECRET}\"\n",
	), 0644))

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	rules := []Rule{
		{Name: "user", EnvKey: "DB_USER", File: tomlFile, Format: FormatTOML, Key: "user"},
		{Name: "password", EnvKey: "DB_PASS", File: tomlFile, Format: FormatTOML, Key: "password"},
		{Name: "api secret", EnvKey: "GOLBAT_API_SECRET", File: tomlFile, Format: FormatTOML, Key: "api_secret"},
		{Name: "bearer", EnvKey: "RAW_BEARER", File: tomlFile, Format: FormatTOML, Key: "bearer_token"},
		{Name: "missing file", EnvKey: "DB_PASS", File: filepath.Join(dir, "nope.toml"), Format: FormatTOML, Key: "password"},
	}

	results := NewChecker(cfg, rules).Check()
	require.Len(t, results, 5)

	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Rule.Name] = r
	}

	assert.Equal(t, types.AlignAligned, byName["user"].State)

	assert.Equal(t, types.AlignMismatch, byName["password"].State)
	assert.Equal(t, "wrong-pass", byName["password"].Got)

	assert.Equal(t, types.AlignUnresolved, byName["api secret"].State)

	// RAW_BEARER is not set in the env file: nothing to compare against
	assert.Equal(t, types.AlignAbsent, byName["bearer"].State)

	// Unreadable file degrades to absent with the error recorded
	assert.Equal(t, types.AlignAbsent, byName["missing file"].State)
	assert.NotEmpty(t, byName["missing file"].Err)
}

func TestCheckerUnparseableTemplatedFile(t *testing.T) {
	dir := t.TempDir()

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"MYSQL_ROOT_PASSWORD=rootpw\nGOLBAT_API_SECRET=golbat-secret\n",
	), 0644))

	// Raw marker without quotes is not valid TOML; the file is simply
	// not templated yet.
	tomlFile := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlFile, []byte(
		"api_secret = {{GOLBAT_API_SECRET}}\n",
	), 0644))

	cfg, err := config.Load(envFile)
	require.NoError(t, err)

	rules := []Rule{
		{Name: "api secret", EnvKey: "GOLBAT_API_SECRET", File: tomlFile, Format: FormatTOML, Key: "api_secret"},
	}
	results := NewChecker(cfg, rules).Check()
	require.Len(t, results, 1)

	assert.Equal(t, types.AlignUnresolved, results[0].State)
	assert.NotEmpty(t, results[0].Err)
}

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules("configs")
	require.Len(t, rules, 12)

	perFile := make(map[string]int)
	for _, r := range rules {
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.EnvKey)
		assert.NotEmpty(t, r.Key)
		perFile[r.File]++
	}

	assert.Equal(t, 5, perFile[filepath.Join("configs", "dragonite", "config.toml")])
	assert.Equal(t, 4, perFile[filepath.Join("configs", "golbat", "config.toml")])
	assert.Equal(t, 3, perFile[filepath.Join("configs", "poracle", "local.json")])
}
