// Package nav holds the behavioral model of the navigation surface: locations,
// access decisions, privileged action state and menu items.
package nav

import (
	"net/url"
	"strings"
)

const eventsSegment = "events"

// EventIDFromPath extracts the event identifier from /events/{id} and any of its sub-paths.
// Query strings and fragments are ignored. The second return value is false when the
// location does not refer to an event.
func EventIDFromPath(location string) (string, bool) {
	p, _, _ := strings.Cut(location, "#")
	p, _, _ = strings.Cut(p, "?")
	p = strings.Trim(p, "/")
	if p == "" {
		return "", false
	}

	segments := strings.Split(p, "/")
	if len(segments) < 2 || segments[0] != eventsSegment {
		return "", false
	}

	id, err := url.PathUnescape(segments[1])
	if err != nil {
		return "", false
	}
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return "", false
	}
	return id, true
}

// EventPath builds the path of an event sub-area, e.g. EventPath("42", "attendees").
func EventPath(eventID string, sub ...string) string {
	parts := make([]string, 0, len(sub)+2)
	parts = append(parts, "", eventsSegment, url.PathEscape(eventID))
	for _, s := range sub {
		if s = strings.Trim(s, "/"); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}
