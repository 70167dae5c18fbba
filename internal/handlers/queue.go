// internal/handlers/queue.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// JoinQueueHandler admits the caller (plus any declared party members) into
// the matchmaking pool and reports their queue position.
func JoinQueueHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var body struct {
			PartyMemberIDs []uuid.UUID `json:"partyMemberIds"`
		}
		// An empty body is a valid solo join.
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "bad join request payload", http.StatusBadRequest)
			return
		}

		entry, position, err := s.Queue.Join(r.Context(), userID, body.PartyMemberIDs)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"entry":    entry,
			"position": position,
		})
	}
}

// LeaveQueueHandler removes the caller's entry. Idempotent.
func LeaveQueueHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		removed := s.Queue.Leave(userID)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"removed": removed,
		})
	}
}

// QueueStatusHandler reports the caller's position and the pool size.
func QueueStatusHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		inQueue, position, total := s.Queue.Status(userID)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"inQueue":      inQueue,
			"position":     position,
			"totalPlayers": total,
		})
	}
}

// MatchTickHandler forces an immediate matchmaker pass, outside the periodic
// tick. Operational tool for draining a stuck pool.
func MatchTickHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		lobbyID, formed := s.Matchmaker.TryMatch(r.Context())
		resp := map[string]interface{}{
			"formed": formed,
		}
		if formed {
			resp["lobbyId"] = lobbyID
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// QueueBotsHandler allocates synthetic players and queues them solo, filling
// out the pool so the veto protocol can be exercised end to end.
func QueueBotsHandler(s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		var body struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad bot request payload", http.StatusBadRequest)
			return
		}
		if body.Count < 1 || body.Count > 10 {
			http.Error(w, "count must be between 1 and 10", http.StatusBadRequest)
			return
		}

		ids, err := s.Bots.AllocateBots(r.Context(), body.Count)
		if err != nil {
			s.Logger.Errorf("bot allocation failed: %v", err)
			http.Error(w, "bot allocation failed", http.StatusInternalServerError)
			return
		}
		queued := make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			if _, _, err := s.Queue.Join(r.Context(), id, nil); err != nil {
				s.Logger.Warnf("failed to queue bot %s: %v", id, err)
				continue
			}
			queued = append(queued, id)
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"allocated": ids,
			"queued":    queued,
		})
	}
}
