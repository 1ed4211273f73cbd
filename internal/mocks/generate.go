// Package mocks provides mock implementations of the API ports for service tests.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// remote-facing interfaces in internal/ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	lookup := mocks.NewMockAttendanceLookup(ctrl)
//	lookup.EXPECT().LookupResponse(gomock.Any(), gomock.Any()).Return(rsvp.ResponseYes, nil)
package mocks

// Generate mocks for AttendanceLookup, ActionCaller and Alerter from internal/ports.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=api_mock.go github.com/target/eventnav/internal/ports AttendanceLookup,ActionCaller,Alerter
