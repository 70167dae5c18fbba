// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/smccrary/scrimq/internal/lobby"
	"github.com/smccrary/scrimq/internal/middleware"
)

// Custom WebSocket close codes for the lobby watch stream.
const (
	BadSubprotocolError = 3000 // client connected with an unsupported subprotocol
	InvalidLobbyIDError = 3003 // target lobby does not exist or the id is malformed
)

// LobbyWSHandler subscribes the caller to a lobby's transition stream. The
// client receives the full snapshot on connect and then every broadcast the
// lobby emits (bans, ready updates, cancellation) until it disconnects.
func LobbyWSHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr
		idStr := strings.TrimPrefix(r.URL.Path, "/lobby/ws/")
		lobbyID, err := uuid.Parse(idStr)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}

		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"lobby"},
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			s.Logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "lobby" {
			c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		watcher := &lobby.Watcher{
			UserID:  userID,
			OutChan: make(chan map[string]interface{}, 16),
			Cancel:  cancel,
		}
		view, err := s.Lobbies.Watch(lobbyID, watcher)
		if err != nil {
			c.Close(InvalidLobbyIDError, "lobby does not exist")
			return
		}
		defer s.Lobbies.Unwatch(lobbyID, watcher)

		middleware.LogWebSocketConnect(s.Logger, remoteAddr, r.URL.Path)

		if err := wsjson.Write(ctx, c, map[string]interface{}{
			"type":  "lobby_state",
			"lobby": view,
		}); err != nil {
			middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, r.URL.Path, err)
			return
		}

		// Drain client frames so pings and closes are processed; the stream
		// is one-way.
		go func() {
			for {
				if _, _, err := c.Read(ctx); err != nil {
					cancel()
					return
				}
			}
		}()

		err = writePump(ctx, c, watcher)
		middleware.LogWebSocketDisconnect(s.Logger, remoteAddr, r.URL.Path, err)
		c.Close(websocket.StatusNormalClosure, "stream closed")
	}
}

// writePump forwards lobby broadcasts to the socket until the context ends.
func writePump(ctx context.Context, c *websocket.Conn, watcher *lobby.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-watcher.OutChan:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, c, msg); err != nil {
				return err
			}
		}
	}
}
