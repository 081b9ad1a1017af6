package models

// User is the in-memory session value swapped by the placeholder
// login/logout on the settings screen.
//
// NOTE: There is no real authentication. No credentials are verified or
// persisted; the value exists only so the settings screen has something
// to display and clear.
type User struct {
	// Email is whatever the user typed into the login form.
	Email string

	// Name is an optional display name.
	Name string

	// Company and Position are optional profile fields.
	Company  string
	Position string

	// Authenticated is true after the stub login and false after logout.
	Authenticated bool
}
