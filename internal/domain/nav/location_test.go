package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventIDFromPath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		wantID string
		wantOK bool
	}{
		{"event root", "/events/42", "42", true},
		{"sub path", "/events/42/attendees", "42", true},
		{"deep sub path", "/events/abc-1/photos/7", "abc-1", true},
		{"trailing slash", "/events/42/", "42", true},
		{"query and fragment", "/events/42?tab=chat#top", "42", true},
		{"escaped id", "/events/a%20b", "a b", true},
		{"no leading slash", "events/42", "42", true},
		{"events index", "/events", "", false},
		{"empty id", "/events/", "", false},
		{"dot id", "/events/../admin", "", false},
		{"other prefix", "/eventsx/1", "", false},
		{"root", "/", "", false},
		{"empty", "", "", false},
		{"bad escape", "/events/%zz", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := EventIDFromPath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestEventPath(t *testing.T) {
	assert.Equal(t, "/events/42", EventPath("42"))
	assert.Equal(t, "/events/42/attendees", EventPath("42", "/attendees/"))
	assert.Equal(t, "/events/a%20b/chat", EventPath("a b", "chat", ""))
}
