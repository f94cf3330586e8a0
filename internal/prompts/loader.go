// Package prompts provides a loader for the LLM prompt templates used to
// request narratives. Prompt files are JSON objects of key to template,
// embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// NarrativeFile holds the narrative prompts: "system", "user" and "user-short".
const NarrativeFile = "narrative.json"

//go:embed *.json
var promptFiles embed.FS

var (
	cache   = make(map[string]Set)
	cacheMu sync.RWMutex
)

// Set is the parsed content of one prompt file.
type Set map[string]string

// Render looks up key and fills its placeholders from data.
func (s Set) Render(key string, data map[string]string) (string, error) {
	tmpl, ok := s[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	return Format(tmpl, data), nil
}

// Load returns the parsed prompt file, cached after the first read.
func Load(filename string) (Set, error) {
	cacheMu.RLock()
	set, ok := cache[filename]
	cacheMu.RUnlock()
	if ok {
		return set, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = set
	cacheMu.Unlock()

	return set, nil
}

// Get retrieves a prompt by filename and key.
func Get(filename, key string) (string, error) {
	set, err := Load(filename)
	if err != nil {
		return "", err
	}

	prompt, exists := set[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// MustGet retrieves a prompt by filename and key, panicking if not found.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Format replaces placeholders of the form {{.Key}} with values from data.
// Unknown placeholders are left in place.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ClearCache clears the prompt cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]Set)
	cacheMu.Unlock()
}

// List returns all available prompt keys in a file.
func List(filename string) ([]string, error) {
	set, err := Load(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	return keys, nil
}
