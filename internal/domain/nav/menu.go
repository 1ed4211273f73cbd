package nav

import "strings"

// Tooltips shown on gated menu items.
const (
	TooltipChecking   = "Checking…"
	TooltipNotRSVPd   = "RSVP to this event to unlock"
	TooltipSignIn     = "Sign in to continue"
	TooltipRefreshing = "Refreshing…"
)

// ItemKind distinguishes how a menu item is gated.
type ItemKind int

const (
	// ItemPublic is always enabled.
	ItemPublic ItemKind = iota
	// ItemEvent links to a public area of the current event.
	ItemEvent
	// ItemRestricted links to an attendee-only area of the current event.
	ItemRestricted
	// ItemAdminAction runs a privileged action; visible to admins only.
	ItemAdminAction
)

// MenuItem is a static entry of the navigation menu.
type MenuItem struct {
	Label  string
	Kind   ItemKind
	Href   string // absolute path for ItemPublic, sub-path below /events/{id} otherwise
	Action ActionDescriptor
}

// ItemView is the behavioral state of a menu item for the current location and session.
type ItemView struct {
	Label   string
	Href    string
	Enabled bool
	Tooltip string
	Action  string
}

// DefaultMenu is the navigation table of the events app.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Label: "Events", Kind: ItemPublic, Href: "/events"},
		{Label: "Details", Kind: ItemEvent},
		{Label: "Attendees", Kind: ItemRestricted, Href: "attendees"},
		{Label: "Chat", Kind: ItemRestricted, Href: "chat"},
		{Label: "Photos", Kind: ItemRestricted, Href: "photos"},
		{Label: RefreshAction.Label, Kind: ItemAdminAction, Action: RefreshAction},
	}
}

// ViewInput is everything BuildView needs to project a menu.
type ViewInput struct {
	EventID  string
	SignedIn bool
	IsAdmin  bool
	Decision Decision
	Action   ActionState
}

// BuildView projects menu items into their current state. Event items are
// omitted when the location does not refer to an event.
func BuildView(items []MenuItem, in ViewInput) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		switch item.Kind {
		case ItemPublic:
			views = append(views, ItemView{Label: item.Label, Href: item.Href, Enabled: true})
		case ItemEvent:
			if in.EventID == "" {
				continue
			}
			views = append(views, ItemView{Label: item.Label, Href: EventPath(in.EventID, item.Href), Enabled: true})
		case ItemRestricted:
			if in.EventID == "" {
				continue
			}
			views = append(views, restrictedView(item, in))
		case ItemAdminAction:
			if !in.SignedIn || !in.IsAdmin {
				continue
			}
			views = append(views, actionView(item, in.Action))
		}
	}
	return views
}

func restrictedView(item MenuItem, in ViewInput) ItemView {
	v := ItemView{Label: item.Label, Href: EventPath(in.EventID, strings.Trim(item.Href, "/"))}
	switch {
	case !in.SignedIn:
		v.Tooltip = TooltipSignIn
	case in.Decision.Loading:
		v.Tooltip = TooltipChecking
	case !in.Decision.Attending:
		v.Tooltip = TooltipNotRSVPd
	default:
		v.Enabled = true
	}
	return v
}

func actionView(item MenuItem, state ActionState) ItemView {
	v := ItemView{Label: item.Label, Action: item.Action.Name, Enabled: !state.Busy}
	if state.Busy {
		v.Tooltip = TooltipRefreshing
	}
	return v
}
