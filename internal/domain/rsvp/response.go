// Package rsvp models a user's recorded response to an event invitation.
package rsvp

import "strings"

// Response is the recorded answer to an event. The zero value means no response was recorded.
type Response string

const (
	ResponseNone  Response = ""
	ResponseYes   Response = "yes"
	ResponseNo    Response = "no"
	ResponseMaybe Response = "maybe"
)

// Valid reports whether the response is one of the recorded values.
func (r Response) Valid() bool {
	switch r {
	case ResponseYes, ResponseNo, ResponseMaybe:
		return true
	default:
		return false
	}
}

// Affirmative reports whether the response grants access to attendee-only areas.
// Only yes and maybe qualify; no and absent deny.
func (r Response) Affirmative() bool {
	return r == ResponseYes || r == ResponseMaybe
}

// Parse normalizes a raw response value. Unknown values are reported as absent.
func Parse(value string) (Response, bool) {
	resp := Response(strings.ToLower(strings.TrimSpace(value)))
	if resp.Valid() {
		return resp, true
	}
	return ResponseNone, false
}

// FromAny converts a decoded JSON value (string, nil, or anything else) into a Response.
func FromAny(value any) Response {
	s, ok := value.(string)
	if !ok {
		return ResponseNone
	}
	resp, _ := Parse(s)
	return resp
}
