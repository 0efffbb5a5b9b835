package randx

import (
	"testing"

	"github.com/google/uuid"
)

func TestConnectionID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := ConnectionID()
		if _, err := uuid.Parse(id); err != nil {
			t.Fatalf("ConnectionID() = %q is not a UUID: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("ConnectionID() repeated %q", id)
		}
		seen[id] = struct{}{}
	}
}
