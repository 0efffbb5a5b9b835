/*
Package handler provides HTTP handler functions for inspecting active rooms.

Rooms are a derived view over the user registry, so these endpoints only ever report rooms that
currently have at least one member.
*/
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"chatrelay/internal/app/user"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/resp"
)

// HandleListRooms returns every active room with its member count.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"rooms": deps.Manager.Registry().Rooms(),
		})
	}
}

// HandleRoomUsers returns the usernames of a room in join order, as sent in roomData events.
func HandleRoomUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := strings.TrimSpace(chi.URLParam(r, "room"))
		if room == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		members := deps.Manager.Registry().GetUsersInRoom(room)
		if len(members) == 0 {
			resp.RespondError(w, r, errs.NewError(errs.ErrRoomNotFound))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"room":  members[0].Room,
			"users": user.Usernames(members),
		})
	}
}
