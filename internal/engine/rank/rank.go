// Package rank locates a business inside ordered search result lists.
package rank

import (
	"net/url"
	"strings"

	"github.com/rendis/geogrid/internal/model"
)

// Target identifies the business being tracked. Empty fields are not used.
type Target struct {
	Name    string // matched as a case-insensitive substring of the entry title
	PlaceID string // matched exactly against the entry identifier
	Domain  string // matched as a substring of the entry URL host
}

// FindRank returns the 1-based position of the business in results.
//
// Strategies run in a fixed order over the whole list: identifier, then
// domain, then title. The first strategy that matches any entry decides the
// rank. Titles are compared case-insensitively without diacritic folding, so
// "Café" does not match "Cafe".
func FindRank(results []model.ResultEntry, target Target) (int, bool) {
	if target.PlaceID != "" {
		for i, r := range results {
			if r.ID == target.PlaceID {
				return i + 1, true
			}
		}
	}

	if domain := strings.ToLower(strings.TrimSpace(target.Domain)); domain != "" {
		for i, r := range results {
			if host := hostOf(r.URL); host != "" && strings.Contains(host, domain) {
				return i + 1, true
			}
		}
	}

	if name := strings.ToLower(target.Name); name != "" {
		for i, r := range results {
			if strings.Contains(strings.ToLower(r.Title), name) {
				return i + 1, true
			}
		}
	}

	return 0, false
}

// Ranks is the three-channel result of one search observation.
type Ranks struct {
	Organic   *int
	LocalPack *int
	Maps      *int
}

// Channels ranks the target on each channel's result list.
func (t Target) Channels(organic, localPack, maps []model.ResultEntry) Ranks {
	return Ranks{
		Organic:   find(organic, t),
		LocalPack: find(localPack, t),
		Maps:      find(maps, t),
	}
}

func find(results []model.ResultEntry, t Target) *int {
	if n, ok := FindRank(results, t); ok {
		return &n
	}
	return nil
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
