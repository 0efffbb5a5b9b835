/*
Package user contains the chat participant model and the in-memory registry of active sessions.

A User is bound to exactly one live connection for its whole lifetime; it is created by a
successful join and destroyed when that connection goes away. There is no update operation.
*/
package user

import "strings"

// User represents one active chat participant bound to one live connection.
type User struct {
	// ConnID is the opaque identifier of the underlying transport connection.
	ConnID string `json:"id"`

	// Username is the display name, unique within its room (case-insensitive).
	Username string `json:"username"`

	// Room is the name of the room the user belongs to.
	Room string `json:"room"`
}

// normalize returns the comparison form of a username or room name.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameRoom reports whether two room names refer to the same room.
func SameRoom(a, b string) bool {
	return normalize(a) == normalize(b)
}

// Usernames returns the display names of users, preserving order.
func Usernames(users []User) []string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	return names
}
