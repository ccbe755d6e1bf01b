package status

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/pogolab/stackctl/pkg/types"
)

// composeFile is the subset of docker-compose.yml we read: just the
// declared service names
type composeFile struct {
	Services map[string]any `yaml:"services"`
}

// DeclaredServices parses the compose file and returns its service
// names, sorted
func DeclaredServices(composePath string) ([]string, error) {
	data, err := os.ReadFile(composePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read compose file: %w", err)
	}

	var doc composeFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse compose file: %w", err)
	}

	names := make([]string, 0, len(doc.Services))
	for name := range doc.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// psEntry is one service line from docker compose ps --format json
type psEntry struct {
	Service string `json:"Service"`
	State   string `json:"State"`
	Health  string `json:"Health"`
}

// liveServices shells out to docker compose and returns per-service
// state
func liveServices(ctx context.Context, composePath string) (map[string]psEntry, error) {
	cmd := exec.CommandContext(ctx, "docker", "compose", "-f", composePath, "ps", "--all", "--format", "json")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("docker compose ps failed: %w", err)
	}
	return parsePS(out)
}

// parsePS decodes docker compose ps --format json output. Compose
// emits NDJSON (one object per line) on current versions and a JSON
// array on older ones; both are accepted.
func parsePS(out []byte) (map[string]psEntry, error) {
	entries := make(map[string]psEntry)
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return entries, nil
	}

	if trimmed[0] == '[' {
		var list []psEntry
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to parse compose ps output: %w", err)
		}
		for _, e := range list {
			entries[e.Service] = e
		}
		return entries, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e psEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("failed to parse compose ps line: %w", err)
		}
		entries[e.Service] = e
	}
	return entries, scanner.Err()
}

// Services merges the declared compose services with their live docker
// state. A declared service docker does not know about reports as not
// created.
func Services(ctx context.Context, composePath string) ([]types.ServiceStatus, error) {
	declared, err := DeclaredServices(composePath)
	if err != nil {
		return nil, err
	}
	live, err := liveServices(ctx, composePath)
	if err != nil {
		return nil, err
	}

	statuses := make([]types.ServiceStatus, 0, len(declared))
	for _, name := range declared {
		s := types.ServiceStatus{Name: name, State: types.ServiceNotCreated}
		if entry, ok := live[name]; ok {
			s.State = types.ServiceState(entry.State)
			s.Health = entry.Health
		}
		statuses = append(statuses, s)
	}
	return statuses, nil
}
