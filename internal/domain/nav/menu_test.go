package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findItem(t *testing.T, views []ItemView, label string) ItemView {
	t.Helper()
	for _, v := range views {
		if v.Label == label {
			return v
		}
	}
	require.Failf(t, "item not found", "label %q", label)
	return ItemView{}
}

func TestBuildView_NoEventHidesEventItems(t *testing.T) {
	views := BuildView(DefaultMenu(), ViewInput{SignedIn: true})
	require.Len(t, views, 1)
	assert.Equal(t, "Events", views[0].Label)
	assert.True(t, views[0].Enabled)
}

func TestBuildView_RestrictedStates(t *testing.T) {
	tests := []struct {
		name        string
		in          ViewInput
		wantEnabled bool
		wantTooltip string
	}{
		{"signed out", ViewInput{EventID: "42"}, false, TooltipSignIn},
		{"loading", ViewInput{EventID: "42", SignedIn: true, Decision: Pending}, false, TooltipChecking},
		{"not attending", ViewInput{EventID: "42", SignedIn: true, Decision: Denied}, false, TooltipNotRSVPd},
		{"attending", ViewInput{EventID: "42", SignedIn: true, Decision: Granted}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := findItem(t, BuildView(DefaultMenu(), tt.in), "Attendees")
			assert.Equal(t, tt.wantEnabled, item.Enabled)
			assert.Equal(t, tt.wantTooltip, item.Tooltip)
			assert.Equal(t, "/events/42/attendees", item.Href)
		})
	}
}

func TestBuildView_AdminActionVisibility(t *testing.T) {
	views := BuildView(DefaultMenu(), ViewInput{SignedIn: true})
	for _, v := range views {
		assert.NotEqual(t, RefreshAction.Label, v.Label)
	}

	views = BuildView(DefaultMenu(), ViewInput{SignedIn: true, IsAdmin: true, Action: ActionState{Busy: true}})
	item := findItem(t, views, RefreshAction.Label)
	assert.False(t, item.Enabled)
	assert.Equal(t, TooltipRefreshing, item.Tooltip)
	assert.Equal(t, "refresh", item.Action)
}

func TestActionDescriptor(t *testing.T) {
	assert.True(t, RefreshAction.Validate())
	assert.Equal(t, "Refresh data", RefreshAction.DisplayName())
	assert.False(t, ActionDescriptor{Name: "x", Path: "admin"}.Validate())
	assert.Equal(t, "x", ActionDescriptor{Name: "x"}.DisplayName())
}
