package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/applyhawk/applyhawk/internal/llm"
)

const logTimeLayout = "2006-01-02 15:04:05"

// ReadCallLog decodes every entry from the calls log at path. The writer
// appends pretty-printed JSON objects back to back, so the file is a stream
// of concatenated values rather than a single JSON document.
func ReadCallLog(path string) ([]llm.LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening call log: %w", err)
	}
	defer f.Close()

	var entries []llm.LogEntry
	dec := json.NewDecoder(f)
	for dec.More() {
		var e llm.LogEntry
		if err := dec.Decode(&e); err != nil {
			return nil, fmt.Errorf("decoding call log %s: %w", path, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Models returns the distinct model names appearing in entries, sorted.
func Models(entries []llm.LogEntry) []string {
	seen := make(map[string]bool)
	var models []string
	for _, e := range entries {
		if e.Model == "" || seen[e.Model] {
			continue
		}
		seen[e.Model] = true
		models = append(models, e.Model)
	}
	sort.Strings(models)
	return models
}

// FilterByModel returns the entries logged against model.
func FilterByModel(entries []llm.LogEntry, model string) []llm.LogEntry {
	var out []llm.LogEntry
	for _, e := range entries {
		if e.Model == model {
			out = append(out, e)
		}
	}
	return out
}

func sortEntriesNewestFirst(entries []llm.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, erri := time.Parse(logTimeLayout, entries[i].Time)
		tj, errj := time.Parse(logTimeLayout, entries[j].Time)
		if erri != nil && errj != nil {
			return false
		}
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return ti.After(tj)
	})
}

// promptLines flattens a logged prompts value into display lines. The writer
// stores either a plain string or a prompt_N mapping, but entries written by
// other tools may hold arbitrary JSON, so every shape gets a rendering.
func promptLines(prompts any) []string {
	switch p := prompts.(type) {
	case string:
		return []string{p}
	case map[string]any:
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(p))
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %v", k, p[k]))
		}
		return lines
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(prompts)}
	}
}
