// Command server runs the research assistant HTTP service.
package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/research-assistant/assistant"
	"github.com/smallnest/research-assistant/config"
	"github.com/smallnest/research-assistant/log"
	"github.com/smallnest/research-assistant/server"
	"github.com/smallnest/research-assistant/session"
	"github.com/smallnest/research-assistant/store"
	memorystore "github.com/smallnest/research-assistant/store/memory"
	pgstore "github.com/smallnest/research-assistant/store/postgres"
	redisstore "github.com/smallnest/research-assistant/store/redis"
	sqlitestore "github.com/smallnest/research-assistant/store/sqlite"
)

const appName = "research_app"

func main() {
	// Missing .env is fine; the environment may already be set.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		golog.Fatalf("failed to load config: %v", err)
	}

	logger := log.NewGologLogger(golog.Default)
	logger.SetLevel(parseLevel(cfg.Log.Level))
	log.SetDefaultLogger(logger)

	model, err := openai.New(openai.WithModel(cfg.Model.Name))
	if err != nil {
		golog.Fatalf("failed to create model client: %v", err)
	}

	runs, closeStore, err := newRunStore(cfg)
	if err != nil {
		golog.Fatalf("failed to create run store: %v", err)
	}
	defer closeStore()

	p, err := assistant.New(model, assistant.WithLogger(logger))
	if err != nil {
		golog.Fatalf("failed to build pipeline: %v", err)
	}

	sessions := session.NewManager(appName, cfg.Session.History)
	srv := server.New(p, sessions, runs, server.WithLogger(logger))

	logger.Info("research assistant listening on %s (store: %s)", cfg.Server.Addr(), cfg.Store.Backend)
	if err := http.ListenAndServe(cfg.Server.Addr(), srv); err != nil {
		golog.Fatalf("server error: %v", err)
	}
}

func newRunStore(cfg *config.Config) (store.RunStore, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		s := redisstore.NewRedisRunStore(redisstore.RedisOptions{Addr: cfg.Store.DSN})
		return s, func() { s.Close() }, nil
	case "sqlite":
		s, err := sqlitestore.NewSqliteRunStore(sqlitestore.SqliteOptions{Path: cfg.Store.DSN})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "postgres":
		ctx := context.Background()
		s, err := pgstore.NewPostgresRunStore(ctx, pgstore.PostgresOptions{ConnString: cfg.Store.DSN})
		if err != nil {
			return nil, nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return memorystore.NewMemoryRunStore(), func() {}, nil
	}
}

func parseLevel(level string) log.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return log.LogLevelDebug
	case "warn":
		return log.LogLevelWarn
	case "error":
		return log.LogLevelError
	case "none":
		return log.LogLevelNone
	default:
		return log.LogLevelInfo
	}
}
