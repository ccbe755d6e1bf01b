package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds everything stackctl reads from the canonical environment
// file plus the local paths set via CLI flags. It is passed explicitly
// into each component; there are no ambient globals.
//
// Loading order (koanf):
//  1. Defaults: built-in values for optional settings
//  2. Env file: the stack's .env, the canonical source of truth for
//     credentials
//
// Config is immutable after Load and safe for concurrent reads.
type Config struct {
	// Database server connection
	DBHost       string `koanf:"DB_HOST" validate:"required"`
	DBPort       int    `koanf:"DB_PORT" validate:"required,min=1,max=65535"`
	RootPassword string `koanf:"MYSQL_ROOT_PASSWORD" validate:"required"`

	// Shared service login written into every service config
	DBUser string `koanf:"DB_USER" validate:"required"`
	DBPass string `koanf:"DB_PASS"`

	// Cross-service secrets that must stay aligned across config files
	DragoniteAPISecret string `koanf:"DRAGONITE_API_SECRET"`
	GolbatAPISecret    string `koanf:"GOLBAT_API_SECRET"`
	RawBearer          string `koanf:"RAW_BEARER"`
	KojiSecret         string `koanf:"KOJI_SECRET"`
	PoracleSecret      string `koanf:"PORACLE_SECRET"`

	// Local paths, set from CLI flags rather than the env file
	EnvFile     string `koanf:"-"`
	ComposeFile string `koanf:"-"`
	ConfigDir   string `koanf:"-"` // directory holding the service config files
	DataDir     string `koanf:"-"` // stackctl's own state (history db)

	// values is the full flat env mapping, kept for the alignment
	// checker which compares against canonical keys by name
	values map[string]string
}

// defaults for optional settings
var defaults = Config{
	DBHost: "127.0.0.1",
	DBPort: 3306,
	DBUser: "pogo",
}

// Load reads the environment file at path and returns a validated Config
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("env file %s: %w", path, err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), dotenv.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.values = make(map[string]string)
	for key := range k.All() {
		cfg.values[key] = k.String(key)
	}
	cfg.EnvFile = path

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", path, err)
	}

	return &cfg, nil
}

// Value returns the raw env value for key, with ok reporting presence.
// The alignment checker uses this as the canonical side of every
// comparison.
func (c *Config) Value(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

// CredentialKeys returns the env keys that hold logical credentials,
// i.e. the values that must appear byte-identical in service configs
func (c *Config) CredentialKeys() []string {
	return []string{
		"MYSQL_ROOT_PASSWORD",
		"DB_USER",
		"DB_PASS",
		"DRAGONITE_API_SECRET",
		"GOLBAT_API_SECRET",
		"RAW_BEARER",
		"KOJI_SECRET",
		"PORACLE_SECRET",
	}
}
