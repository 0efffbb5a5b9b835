/*
Package handler provides the HTTP handler function for websocket connection upgrading.

HandleWebSocket upgrades the request, assigns the connection an id, opens a Session for it and
serves it until the connection goes away. Joining a room happens over the socket afterwards.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
)

// HandleWebSocket creates an HTTP HandlerFunc that turns a request into a chat connection.
func HandleWebSocket(upgrader websocket.Upgrader, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		connID := randx.ConnectionID()
		client := chat.NewClient(connID, conn, deps.Config.SendQueueSize)

		session, connectErr := deps.Manager.Connect(client)
		if connectErr != nil {
			logger.Warn().Int("code", connectErr.Code).Msg("WebSocket connection refused by manager.")

			closeCode := websocket.CloseTryAgainLater
			if errs.HasCode(connectErr, errs.ErrSessionClosed) {
				closeCode = websocket.CloseGoingAway
			}

			closeMsg := websocket.FormatCloseMessage(closeCode, connectErr.Message)
			if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
				logger.Debug().Err(err).Msg("Failed to write close message")
			}
			conn.Close()
			return
		}

		logger.Info().Str("conn_id", connID).Msg("WebSocket connection established.")

		client.Serve(session)

		logger.Info().Str("conn_id", connID).Msg("WebSocket connection closed.")
	}
}
