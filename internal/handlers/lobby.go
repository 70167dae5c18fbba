// internal/handlers/lobby.go
package handlers

import (
	"encoding/json"
	"net/http"
)

// CreateLobbyHandler opens a custom lobby with the caller as leader.
func CreateLobbyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		view, err := s.Lobbies.CreateCustom(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// JoinLobbyHandler adds the caller to an open custom lobby.
func JoinLobbyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		lobbyID, err := parseLobbyID(r)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		view, err := s.Lobbies.JoinCustom(r.Context(), lobbyID, userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// LeaveLobbyHandler removes the caller from the lobby; a leader leaving
// cancels their custom lobby outright.
func LeaveLobbyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		lobbyID, err := parseLobbyID(r)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		cancelled, err := s.Lobbies.Leave(r.Context(), lobbyID, userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"cancelled": cancelled,
		})
	}
}

// GetLobbyHandler returns a full lobby snapshot.
func GetLobbyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		lobbyID, err := parseLobbyID(r)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		view, err := s.Lobbies.Get(lobbyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// MarkReadyHandler records the caller's ready acknowledgement.
func MarkReadyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		lobbyID, err := parseLobbyID(r)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		view, allReady, err := s.Lobbies.MarkReady(r.Context(), lobbyID, userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"lobby":    view,
			"allReady": allReady,
		})
	}
}

// BanMapHandler plays one veto turn for the caller.
func BanMapHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		lobbyID, err := parseLobbyID(r)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}

		var body struct {
			Map string `json:"map"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Map == "" {
			http.Error(w, "bad ban request payload", http.StatusBadRequest)
			return
		}

		status, err := s.Lobbies.Ban(r.Context(), lobbyID, userID, body.Map)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// BanStatusHandler reports the current veto state.
func BanStatusHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		lobbyID, err := parseLobbyID(r)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		status, err := s.Lobbies.BanStatus(lobbyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

// ForceReadyHandler is the moderation override that readies every player in
// one step.
func ForceReadyHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		lobbyID, err := parseLobbyID(r)
		if err != nil {
			http.Error(w, "invalid lobby_id", http.StatusBadRequest)
			return
		}
		view, err := s.Lobbies.ForceReadyAll(r.Context(), lobbyID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}
