// internal/handlers/api_server.go
package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/directory"
	"github.com/smccrary/scrimq/internal/lobby"
	"github.com/smccrary/scrimq/internal/queue"
)

// Server bundles the services the HTTP surface exposes.
type Server struct {
	Queue      *queue.Service
	Matchmaker *queue.Matchmaker
	Lobbies    *lobby.Service
	Bots       *directory.Provisioner
	Logger     *log.Logger
}

func NewServer(q *queue.Service, m *queue.Matchmaker, l *lobby.Service, bots *directory.Provisioner, logger *log.Logger) *Server {
	return &Server{
		Queue:      q,
		Matchmaker: m,
		Lobbies:    l,
		Bots:       bots,
		Logger:     logger,
	}
}

// Routes registers every endpoint on a fresh mux. The caller wraps it in
// middleware and serves it.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// queue endpoints
	mux.HandleFunc("/queue/join", JoinQueueHandler(s))
	mux.HandleFunc("/queue/leave", LeaveQueueHandler(s))
	mux.HandleFunc("/queue/status", QueueStatusHandler(s))

	// lobby endpoints
	mux.HandleFunc("/lobby/create", CreateLobbyHandler(s))
	mux.HandleFunc("/lobby/join", JoinLobbyHandler(s))
	mux.HandleFunc("/lobby/leave", LeaveLobbyHandler(s))
	mux.HandleFunc("/lobby/get", GetLobbyHandler(s))
	mux.HandleFunc("/lobby/ready", MarkReadyHandler(s))
	mux.HandleFunc("/lobby/ban", BanMapHandler(s))
	mux.HandleFunc("/lobby/banstatus", BanStatusHandler(s))

	// lobby watch stream
	mux.HandleFunc("/lobby/ws/", LobbyWSHandler(s))

	// moderation / operational endpoints
	mux.HandleFunc("/admin/lobby/forceready", ForceReadyHandler(s))
	mux.HandleFunc("/admin/bots/queue", QueueBotsHandler(s))
	mux.HandleFunc("/admin/matchmaker/tick", MatchTickHandler(s))

	return mux
}
