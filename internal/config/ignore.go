package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// IgnoreList hides app IDs from the catalog.
// Structure examples:
//
//	["730", "10*"]
//	{"apps": ["730"], "prefixes": ["10"]}
//
//   - A plain entry matches one app ID exactly.
//   - An entry ending in "*", or any entry under "prefixes", matches every
//     app ID starting with the text before it.
type IgnoreList struct {
	exact    map[string]bool
	prefixes []string
}

// LoadIgnoreList loads an ignore file if provided.
// Returns an empty list if filePath is empty.
func LoadIgnoreList(filePath string) (*IgnoreList, error) {
	list := &IgnoreList{exact: make(map[string]bool)}
	if filePath == "" {
		return list, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", filePath, err)
	}

	var raw any
	switch ext := filepath.Ext(filePath); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML ignore file %s: %w", filePath, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON ignore file %s: %w", filePath, err)
		}
	}

	switch v := raw.(type) {
	case nil:
	case []any:
		list.addAll(v, false)
	case map[string]any:
		if apps, ok := v["apps"].([]any); ok {
			list.addAll(apps, false)
		}
		if prefixes, ok := v["prefixes"].([]any); ok {
			list.addAll(prefixes, true)
		}
	default:
		return nil, fmt.Errorf("ignore file %s: expected a list or a map, got %T", filePath, raw)
	}
	return list, nil
}

// NewIgnoreList builds a list from patterns in the file syntax.
func NewIgnoreList(patterns ...string) *IgnoreList {
	list := &IgnoreList{exact: make(map[string]bool)}
	for _, p := range patterns {
		list.add(p, false)
	}
	return list
}

func (l *IgnoreList) addAll(values []any, prefix bool) {
	for _, v := range values {
		switch s := v.(type) {
		case string:
			l.add(s, prefix)
		case int:
			// YAML decodes bare app IDs as integers
			l.add(fmt.Sprint(s), prefix)
		case float64:
			l.add(fmt.Sprintf("%.0f", s), prefix)
		}
	}
}

func (l *IgnoreList) add(pattern string, prefix bool) {
	pattern = strings.TrimSpace(pattern)
	if strings.HasSuffix(pattern, "*") {
		pattern = strings.TrimSuffix(pattern, "*")
		prefix = true
	}
	if pattern == "" {
		return
	}
	if prefix {
		l.prefixes = append(l.prefixes, pattern)
		return
	}
	l.exact[pattern] = true
}

// Len returns the number of patterns in the list.
func (l *IgnoreList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.exact) + len(l.prefixes)
}

// IsIgnored reports whether an app ID is hidden. A nil list ignores nothing.
func (l *IgnoreList) IsIgnored(identifier string) bool {
	if l == nil {
		return false
	}
	if l.exact[identifier] {
		return true
	}
	for _, p := range l.prefixes {
		if strings.HasPrefix(identifier, p) {
			return true
		}
	}
	return false
}
