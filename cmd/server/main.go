// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/smccrary/scrimq/internal/auth"
	"github.com/smccrary/scrimq/internal/directory"
	"github.com/smccrary/scrimq/internal/events"
	"github.com/smccrary/scrimq/internal/handlers"
	"github.com/smccrary/scrimq/internal/lobby"
	"github.com/smccrary/scrimq/internal/middleware"
	"github.com/smccrary/scrimq/internal/queue"
	"github.com/smccrary/scrimq/internal/scheduler"
)

func main() {
	auth.Init()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx := context.Background()

	// Player Directory: Postgres when configured, in-memory otherwise. The
	// in-memory directory still hosts bot profiles either way.
	var dir directory.ReadWriter
	if os.Getenv("PG_HOST") != "" {
		pool, err := directory.Connect(ctx)
		if err != nil {
			logger.Fatalf("directory connect failed: %v", err)
		}
		dir = directory.NewPostgres(pool)
		logger.Info("player directory: postgres")
	} else {
		dir = directory.NewMemory()
		logger.Warn("player directory: in-memory (no PG_HOST configured)")
	}

	// Lobby event stream: Redis when configured.
	var publisher events.Publisher = events.Nop{}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisPub, err := events.NewRedis(addr, getEnvInt("REDIS_DB", 0), os.Getenv("EVENT_STREAM_NAME"))
		if err != nil {
			logger.Fatalf("redis connect failed: %v", err)
		}
		publisher = redisPub
		logger.Info("lobby events: redis")
	}

	sched := scheduler.New()
	bots := directory.NewProvisioner(dir)

	lobbyCfg := lobby.DefaultConfig()
	lobbyCfg.BotBanDelay = getEnvDuration("BOT_BAN_DELAY", lobbyCfg.BotBanDelay)
	lobbyCfg.SweepInterval = getEnvDuration("SWEEP_INTERVAL", lobbyCfg.SweepInterval)
	lobbyCfg.CancelledRetention = getEnvDuration("CANCELLED_RETENTION", lobbyCfg.CancelledRetention)

	lobbyStore := lobby.NewStore()
	lobbies := lobby.NewService(lobbyStore, dir, bots, publisher, sched, logger, lobbyCfg)
	lobbies.StartSweeper()
	defer lobbies.StopSweeper()

	queueStore := queue.NewStore()
	queueSvc := queue.NewService(queueStore, dir, sched, logger)
	matchmaker := queue.NewMatchmaker(queueStore, dir, lobbies, logger)
	queueSvc.SetMatchmaker(matchmaker)
	matchmaker.Start(sched, getEnvDuration("MATCH_TICK_INTERVAL", 10*time.Second))
	defer matchmaker.Stop()

	srv := handlers.NewServer(queueSvc, matchmaker, lobbies, bots, logger)
	handler := middleware.LogMiddleware(logger)(srv.Routes())

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("scrimq listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}

// getEnvInt parses an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration parses an environment variable as a duration, else a default.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
