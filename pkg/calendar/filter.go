package calendar

import (
	"sort"
	"strings"
)

// Visibility is satisfied by SourceRegistry.
type Visibility interface {
	IsVisible(e Event) bool
}

func FilterVisible(events []Event, visibility Visibility) []Event {
	visible := make([]Event, 0, len(events))
	for _, e := range events {
		if visibility.IsVisible(e) {
			visible = append(visible, e)
		}
	}
	return visible
}

// Search matches query case-insensitively against the titles of visible events.
// Results are deduplicated by source and id and ordered by start.
func Search(events []Event, query string, visibility Visibility) []Event {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []Event{}
	}

	seen := make(map[eventKey]struct{})
	matches := make([]Event, 0)
	for _, e := range events {
		if !visibility.IsVisible(e) {
			continue
		}
		if !strings.Contains(strings.ToLower(e.Title), needle) {
			continue
		}
		if _, dup := seen[e.key()]; dup {
			continue
		}
		seen[e.key()] = struct{}{}
		matches = append(matches, e)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Start.Before(matches[j].Start)
	})
	return matches
}
