/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses, websocket acknowledgements and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrUnsupportedEvent:  {Code: ErrUnsupportedEvent, Message: "Unsupported event type: %s."},

	// 2xxx: Room and Membership Errors
	ErrRoomNotFound:  {Code: ErrRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrMissingFields: {Code: ErrMissingFields, Message: "Username and room are required!"},
	ErrUsernameTaken: {Code: ErrUsernameTaken, Message: "Username is in use!"},
	ErrAlreadyJoined: {Code: ErrAlreadyJoined, Message: "This connection has already joined a room."},

	// 3xxx: Session Errors
	ErrProtocolViolation:   {Code: ErrProtocolViolation, Message: "Join a room before sending."},
	ErrSessionClosed:       {Code: ErrSessionClosed, Message: "Session is closed."},
	ErrDuplicateConnection: {Code: ErrDuplicateConnection, Message: "Connection id is already in use."},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
