package reconciler

import (
	"os"
	"path/filepath"

	"github.com/pogolab/stackctl/pkg/align"
	"github.com/pogolab/stackctl/pkg/config"
	"github.com/pogolab/stackctl/pkg/log"
)

// userRef names a user-reference field in one service config
type userRef struct {
	file   string
	format align.Format
	key    string
}

// DeriveUsers extracts the required login set from every known config
// file's user-reference field, deduplicated, each paired with the
// canonical password. The env file's DB_USER is always included so a
// stack with no service configs written yet still reconciles its shared
// login.
func DeriveUsers(cfg *config.Config) []UserSpec {
	logger := log.WithComponent("reconciler")

	refs := []userRef{
		{filepath.Join(cfg.ConfigDir, "dragonite", "config.toml"), align.FormatTOML, "user"},
		{filepath.Join(cfg.ConfigDir, "golbat", "config.toml"), align.FormatTOML, "user"},
		{filepath.Join(cfg.ConfigDir, "poracle", "local.json"), align.FormatJSON, "username"},
	}

	seen := make(map[string]bool)
	var users []UserSpec

	add := func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		users = append(users, UserSpec{Name: name, Password: cfg.DBPass})
	}

	add(cfg.DBUser)

	for _, ref := range refs {
		data, err := os.ReadFile(ref.file)
		if err != nil {
			// A service that is not configured yet simply
			// contributes no users.
			continue
		}

		var name string
		var found bool
		switch ref.format {
		case align.FormatTOML:
			name, found, err = align.ExtractTOML(data, ref.key)
		case align.FormatJSON:
			name, found, err = align.ExtractJSON(data, ref.key)
		}
		if err != nil {
			logger.Warn().Str("file", ref.file).Err(err).Msg("skipping unparseable config while deriving users")
			continue
		}
		if found {
			add(name)
		}
	}

	return users
}
