package calculator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LoadEntries reads a batch URL file. A missing file yields no entries.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	return entries, nil
}

// SaveEntries writes entries as an indented JSON list.
func SaveEntries(path string, entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create batch dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write batch file: %w", err)
	}
	return nil
}

// MergeEntries appends the fresh entries whose dates are not in existing and
// returns the combined list sorted by date along with the number added.
func MergeEntries(existing, fresh []Entry) ([]Entry, int) {
	seen := make(map[string]bool, len(existing))
	out := make([]Entry, 0, len(existing)+len(fresh))
	for _, e := range existing {
		seen[e.Date] = true
		out = append(out, e)
	}
	added := 0
	for _, e := range fresh {
		if seen[e.Date] {
			continue
		}
		seen[e.Date] = true
		out = append(out, e)
		added++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, added
}
