// Package testutil provides shared constants for tests across go-fetch.
// These constants eliminate repeated string literals in test files and ensure consistency.
package testutil

// Test Error Messages
const (
	// TestError is a generic error message for test error scenarios.
	TestError = "test error"

	// TestConnectionRefused is the common network error message for
	// simulated connection failures.
	TestConnectionRefused = "connection refused"
)

// Test Endpoints
const (
	// TestBaseURL is an absolute base URL for tests that never dial.
	TestBaseURL = "https://api.example.com"

	// TestUnroutableURL points at a port nothing listens on.
	TestUnroutableURL = "http://127.0.0.1:1"
)

// Content Types
const (
	// ContentTypeJSON is the default content type the client attaches
	// to request bodies.
	ContentTypeJSON = "application/json"
)
