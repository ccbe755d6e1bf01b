package align

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
)

// commentKeyPrefix marks explanatory pseudo-keys in JSON configs
// (poracle convention: "//db": "database settings below"). These are
// documentation, not values, and are never extracted.
const commentKeyPrefix = "//"

// ExtractTOML parses data as TOML and returns the first string value
// for key, searching the document depth-first starting at top level
func ExtractTOML(data []byte, key string) (string, bool, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return "", false, fmt.Errorf("toml parse: %w", err)
	}
	value, found := findKey(doc, key, false)
	return value, found, nil
}

// ExtractJSON parses data as JSON and returns the first string value
// for key. Keys with the explanatory comment prefix are skipped both as
// matches and as traversal targets.
func ExtractJSON(data []byte, key string) (string, bool, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false, fmt.Errorf("json parse: %w", err)
	}
	value, found := findKey(doc, key, true)
	return value, found, nil
}

// findKey searches doc for the first string value under key. A direct
// match at the current level wins over any nested match; nested tables
// are visited in sorted key order so the result is deterministic.
func findKey(doc map[string]any, key string, skipComments bool) (string, bool) {
	if v, ok := doc[key]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}

	nested := make([]string, 0, len(doc))
	for k := range doc {
		if skipComments && strings.HasPrefix(k, commentKeyPrefix) {
			continue
		}
		if _, ok := doc[k].(map[string]any); ok {
			nested = append(nested, k)
		}
	}
	sort.Strings(nested)

	for _, k := range nested {
		if v, found := findKey(doc[k].(map[string]any), key, skipComments); found {
			return v, true
		}
	}
	return "", false
}
