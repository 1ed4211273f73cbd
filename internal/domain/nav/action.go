package nav

import (
	"net/url"
	"strings"
)

// ActionDescriptor names a privileged remote action and where it is posted.
type ActionDescriptor struct {
	Name  string     // stable identifier used for metrics and logs
	Label string     // human label used in alerts
	Path  string     // path relative to the API base URL
	Query url.Values // extra query parameters
}

// RefreshAction triggers the administrative data refresh.
var RefreshAction = ActionDescriptor{
	Name:  "refresh",
	Label: "Refresh data",
	Path:  "/admin/refresh",
	Query: url.Values{"admin": []string{"true"}},
}

// Validate reports whether the descriptor can be sent.
func (d ActionDescriptor) Validate() bool {
	return strings.TrimSpace(d.Name) != "" && strings.HasPrefix(d.Path, "/")
}

// DisplayName returns the label, falling back to the name.
func (d ActionDescriptor) DisplayName() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}
