package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const maxRecent = 10

type RecentEntry struct {
	Path     string    `json:"path"`
	Business string    `json:"business,omitempty"`
	OpenedAt time.Time `json:"opened_at"`
}

// recentFile can be overridden in tests.
var recentFile = func() string {
	cfg, _ := os.UserConfigDir()
	return filepath.Join(cfg, "geogrid", "recent.json")
}

func LoadRecent() []RecentEntry {
	data, err := os.ReadFile(recentFile())
	if err != nil {
		return nil
	}
	var entries []RecentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil
	}
	return entries
}

// ForgetRecent removes dbPath from the recent list.
func ForgetRecent(dbPath string) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}
	var kept []RecentEntry
	for _, e := range LoadRecent() {
		if e.Path != abs {
			kept = append(kept, e)
		}
	}
	writeRecent(kept)
}

// SaveRecent moves dbPath to the top of the recent list. An empty business
// keeps the label recorded earlier for the same path.
func SaveRecent(dbPath, business string) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		abs = dbPath
	}

	entries := LoadRecent()

	filtered := make([]RecentEntry, 0, len(entries)+1)
	for _, e := range entries {
		if e.Path == abs {
			if business == "" {
				business = e.Business
			}
			continue
		}
		filtered = append(filtered, e)
	}

	filtered = append([]RecentEntry{{Path: abs, Business: business, OpenedAt: time.Now()}}, filtered...)
	if len(filtered) > maxRecent {
		filtered = filtered[:maxRecent]
	}

	writeRecent(filtered)
}

func writeRecent(entries []RecentEntry) {
	if entries == nil {
		entries = []RecentEntry{}
	}
	data, _ := json.MarshalIndent(entries, "", "  ")
	os.MkdirAll(filepath.Dir(recentFile()), 0755)
	os.WriteFile(recentFile(), data, 0644)
}
