// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/smccrary/scrimq/internal/auth"
	"github.com/smccrary/scrimq/internal/lobby"
	"github.com/smccrary/scrimq/internal/queue"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// requireUser authenticates the auth_token cookie and returns the caller's id.
// Writes the HTTP error itself and returns false when authentication fails.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	cookie := r.Header.Get("Cookie")
	if !strings.Contains(cookie, "auth_token=") {
		http.Error(w, "missing auth_token", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	token := extractCookieToken(cookie, "auth_token")

	userIDStr, err := auth.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		http.Error(w, "invalid user id format in token", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorBody is the error payload every endpoint returns: a stable machine
// kind plus a human message, so UIs can tell "wrong turn" from "lobby gone".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeServiceError maps a service error to its HTTP status and error kind.
func writeServiceError(w http.ResponseWriter, err error) {
	status, kind := classifyError(err)
	writeJSON(w, status, errorBody{Error: kind, Message: err.Error()})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, lobby.ErrLobbyNotFound):
		return http.StatusNotFound, "lobby_not_found"
	case errors.Is(err, queue.ErrAlreadyQueued):
		return http.StatusConflict, "already_queued"
	case errors.Is(err, queue.ErrPartyTooLarge):
		return http.StatusBadRequest, "party_too_large"
	case errors.Is(err, queue.ErrMissingProfile):
		return http.StatusBadRequest, "missing_profile"
	case errors.Is(err, queue.ErrMissingExternalID):
		return http.StatusBadRequest, "missing_external_id"
	case errors.Is(err, lobby.ErrLobbyCancelled):
		return http.StatusConflict, "lobby_cancelled"
	case errors.Is(err, lobby.ErrPhaseInactive):
		return http.StatusConflict, "phase_inactive"
	case errors.Is(err, lobby.ErrAlreadyBanned):
		return http.StatusConflict, "already_banned"
	case errors.Is(err, lobby.ErrUnknownMap):
		return http.StatusBadRequest, "unknown_map"
	case errors.Is(err, lobby.ErrNotACaptain):
		return http.StatusForbidden, "not_a_captain"
	case errors.Is(err, lobby.ErrWrongTurn):
		return http.StatusConflict, "wrong_turn"
	case errors.Is(err, lobby.ErrNotInLobby):
		return http.StatusForbidden, "not_in_lobby"
	case errors.Is(err, lobby.ErrBanPhaseOpen):
		return http.StatusConflict, "ban_phase_open"
	case errors.Is(err, lobby.ErrAlreadyReady):
		return http.StatusConflict, "already_ready"
	case errors.Is(err, lobby.ErrAlreadyAllReady):
		return http.StatusConflict, "already_all_ready"
	case errors.Is(err, lobby.ErrNotJoinable):
		return http.StatusConflict, "not_joinable"
	case errors.Is(err, lobby.ErrAlreadyInLobby):
		return http.StatusConflict, "already_in_lobby"
	case errors.Is(err, lobby.ErrLobbyFull):
		return http.StatusConflict, "lobby_full"
	case errors.Is(err, lobby.ErrIncompleteRoster):
		return http.StatusBadRequest, "incomplete_roster"
	}
	return http.StatusInternalServerError, "internal"
}

// parseLobbyID reads a lobby id from the query string.
func parseLobbyID(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("lobby_id")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing lobby_id")
	}
	return uuid.Parse(raw)
}
