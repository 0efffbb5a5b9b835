package user

import (
	"fmt"
	"sync"
	"testing"

	"chatrelay/internal/pkg/errs"
)

func TestAddUserStoresTrimmedValues(t *testing.T) {
	r := NewRegistry()

	u, err := r.AddUser("c1", "  Alice ", " general ")
	if err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	if u.Username != "Alice" || u.Room != "general" || u.ConnID != "c1" {
		t.Fatalf("AddUser() = %+v", u)
	}

	got, ok := r.GetUser("c1")
	if !ok {
		t.Fatal("GetUser() did not find the joined user")
	}
	if got != u {
		t.Errorf("GetUser() = %+v, want %+v", got, u)
	}
}

func TestAddUserValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		room     string
		wantCode int
	}{
		{"empty username", "", "general", errs.ErrMissingFields},
		{"whitespace username", "   ", "general", errs.ErrMissingFields},
		{"empty room", "Alice", "", errs.ErrMissingFields},
		{"whitespace room", "Alice", "\t ", errs.ErrMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()

			_, err := r.AddUser("c1", tt.username, tt.room)
			if err == nil {
				t.Fatal("AddUser() succeeded, want error")
			}
			if err.Code != tt.wantCode {
				t.Errorf("AddUser() code = %d, want %d", err.Code, tt.wantCode)
			}
			if r.Len() != 0 {
				t.Errorf("Len() = %d after failed join, want 0", r.Len())
			}
			if _, ok := r.GetUser("c1"); ok {
				t.Error("GetUser() found a user after failed join")
			}
		})
	}
}

func TestAddUserUniquenessIsRoomScopedAndCaseInsensitive(t *testing.T) {
	r := NewRegistry()

	if _, err := r.AddUser("c1", "Alice", "general"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	_, err := r.AddUser("c2", " ALICE ", "General")
	if err == nil || err.Code != errs.ErrUsernameTaken {
		t.Fatalf("AddUser() duplicate error = %v, want UsernameTaken", err)
	}

	if _, err := r.AddUser("c3", "Alice", "other"); err != nil {
		t.Errorf("AddUser() in another room error = %v", err)
	}
}

func TestAddUserRejectsSecondJoinOnSameConnection(t *testing.T) {
	r := NewRegistry()

	if _, err := r.AddUser("c1", "Alice", "general"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	_, err := r.AddUser("c1", "Bob", "general")
	if err == nil || err.Code != errs.ErrAlreadyJoined {
		t.Fatalf("AddUser() error = %v, want AlreadyJoined", err)
	}

	if got := Usernames(r.GetUsersInRoom("general")); len(got) != 1 || got[0] != "Alice" {
		t.Errorf("GetUsersInRoom() = %v, want [Alice]", got)
	}
}

func TestRemoveUserIsIdempotent(t *testing.T) {
	r := NewRegistry()

	if _, err := r.AddUser("c1", "Alice", "general"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	u, ok := r.RemoveUser("c1")
	if !ok || u.Username != "Alice" {
		t.Fatalf("RemoveUser() = %+v, %v", u, ok)
	}

	if _, ok := r.RemoveUser("c1"); ok {
		t.Error("second RemoveUser() reported a removal")
	}
	if _, ok := r.RemoveUser("never-joined"); ok {
		t.Error("RemoveUser() of unknown id reported a removal")
	}
	if _, ok := r.GetUser("c1"); ok {
		t.Error("GetUser() still resolves removed user")
	}
}

func TestRemovedUsernameCanBeReused(t *testing.T) {
	r := NewRegistry()

	if _, err := r.AddUser("c1", "Alice", "general"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}
	r.RemoveUser("c1")

	if _, err := r.AddUser("c2", "alice", "general"); err != nil {
		t.Errorf("AddUser() after removal error = %v", err)
	}
}

func TestGetUsersInRoomCounts(t *testing.T) {
	r := NewRegistry()

	const joins, removals = 6, 2
	for i := 0; i < joins; i++ {
		if _, err := r.AddUser(fmt.Sprintf("c%d", i), fmt.Sprintf("user%d", i), "general"); err != nil {
			t.Fatalf("AddUser() error = %v", err)
		}
	}
	if _, err := r.AddUser("x", "outsider", "other"); err != nil {
		t.Fatalf("AddUser() error = %v", err)
	}

	for i := 0; i < removals; i++ {
		r.RemoveUser(fmt.Sprintf("c%d", i))
	}

	users := r.GetUsersInRoom("general")
	if len(users) != joins-removals {
		t.Fatalf("GetUsersInRoom() returned %d users, want %d", len(users), joins-removals)
	}

	for i, u := range users {
		want := fmt.Sprintf("user%d", i+removals)
		if u.Username != want {
			t.Errorf("users[%d] = %s, want %s (join order)", i, u.Username, want)
		}
	}
}

func TestGetUsersInRoomUnknownRoom(t *testing.T) {
	r := NewRegistry()

	users := r.GetUsersInRoom("nowhere")
	if users == nil || len(users) != 0 {
		t.Errorf("GetUsersInRoom() = %#v, want empty non-nil slice", users)
	}
}

func TestRoomsIsDerivedView(t *testing.T) {
	r := NewRegistry()

	r.AddUser("c1", "Alice", "general")
	r.AddUser("c2", "Bob", "General")
	r.AddUser("c3", "Carol", "books")

	rooms := r.Rooms()
	if len(rooms) != 2 {
		t.Fatalf("Rooms() = %+v, want 2 rooms", rooms)
	}
	if rooms[0] != (RoomSummary{Name: "books", Members: 1}) {
		t.Errorf("rooms[0] = %+v", rooms[0])
	}
	if rooms[1] != (RoomSummary{Name: "general", Members: 2}) {
		t.Errorf("rooms[1] = %+v", rooms[1])
	}

	r.RemoveUser("c3")
	if rooms := r.Rooms(); len(rooms) != 1 {
		t.Errorf("Rooms() after last member left = %+v, want 1 room", rooms)
	}
}

func TestConcurrentJoinSameUsername(t *testing.T) {
	for round := 0; round < 50; round++ {
		r := NewRegistry()

		const contenders = 8
		var (
			wg       sync.WaitGroup
			start    = make(chan struct{})
			mu       sync.Mutex
			success  int
			takenErr int
		)

		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start

				_, err := r.AddUser(fmt.Sprintf("c%d", i), "Alice", "general")

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					success++
				case err.Code == errs.ErrUsernameTaken:
					takenErr++
				}
			}(i)
		}

		close(start)
		wg.Wait()

		if success != 1 || takenErr != contenders-1 {
			t.Fatalf("round %d: %d successes, %d UsernameTaken; want 1 and %d", round, success, takenErr, contenders-1)
		}
		if n := len(r.GetUsersInRoom("general")); n != 1 {
			t.Fatalf("round %d: room has %d users, want 1", round, n)
		}
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			r.AddUser(id, fmt.Sprintf("user%d", i), "general")
			r.GetUser(id)
			r.RemoveUser(id)
		}(i)
		go func() {
			defer wg.Done()
			r.GetUsersInRoom("general")
			r.Rooms()
		}()
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
	if rooms := r.Rooms(); len(rooms) != 0 {
		t.Errorf("Rooms() = %+v, want none", rooms)
	}
}
