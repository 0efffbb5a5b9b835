package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewError(t *testing.T) {
	err := NewError(ErrUsernameTaken)
	if err.Code != ErrUsernameTaken || err.Message != "Username is in use!" || err.Status != http.StatusOK {
		t.Errorf("NewError() = %+v", err)
	}

	notFound := NewError(ErrRoomNotFound)
	if notFound.Status != http.StatusNotFound {
		t.Errorf("RoomNotFound status = %d", notFound.Status)
	}

	formatted := NewError(ErrUnsupportedEvent, "dance")
	if formatted.Message != "Unsupported event type: dance." {
		t.Errorf("formatted message = %q", formatted.Message)
	}

	unknown := NewError(424242)
	if unknown.Code != ErrUnknown {
		t.Errorf("unknown code mapped to %d", unknown.Code)
	}
}

func TestNewErrorReturnsCopies(t *testing.T) {
	a := NewError(ErrMissingFields)
	a.Message = "changed"

	if b := NewError(ErrMissingFields); b.Message == "changed" {
		t.Error("NewError() shares state between calls")
	}
}

func TestErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("join: %w", NewError(ErrUsernameTaken))

	if !HasCode(wrapped, ErrUsernameTaken) {
		t.Error("HasCode() missed wrapped error")
	}
	if HasCode(wrapped, ErrMissingFields) {
		t.Error("HasCode() matched the wrong code")
	}
	if HasCode(errors.New("plain"), ErrUsernameTaken) {
		t.Error("HasCode() matched a plain error")
	}
	if !errors.Is(wrapped, NewError(ErrUsernameTaken)) {
		t.Error("errors.Is() did not match by code")
	}
}
