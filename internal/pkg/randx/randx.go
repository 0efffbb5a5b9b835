/*
Package randx provides functions for generating unique identifiers.

Connection ids are standard UUID v4 strings; they are opaque to clients and never reused.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnectionID generates a UUID v4 string identifying one transport connection.
func ConnectionID() string {
	return uuid.New().String()
}
