/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that an inbound frame or request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrUnsupportedEvent indicates that the client sent an event type the relay does not handle.
	ErrUnsupportedEvent = 1008
)

// 2xxx: Room and Membership Errors
const (
	// ErrRoomNotFound indicates that no active user currently belongs to the requested room.
	ErrRoomNotFound = 2103

	// ErrMissingFields indicates that the username or room was empty after trimming.
	ErrMissingFields = 2301

	// ErrUsernameTaken indicates that another active user in the same room already uses the username.
	ErrUsernameTaken = 2302

	// ErrAlreadyJoined indicates that the connection is already bound to a user.
	ErrAlreadyJoined = 2303
)

// 3xxx: Session Errors
const (
	// ErrProtocolViolation indicates that a room action was requested before a successful join.
	ErrProtocolViolation = 3005

	// ErrSessionClosed indicates that the session has already been disconnected.
	ErrSessionClosed = 3006

	// ErrDuplicateConnection indicates that a transport connection id is already open.
	ErrDuplicateConnection = 3007
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
