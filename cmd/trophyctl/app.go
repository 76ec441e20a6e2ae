package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/lib/pq" // postgres driver for the sql credential store

	"trophykit/avatar"
	"trophykit/client"
	"trophykit/config"
	"trophykit/core"
	"trophykit/credstore/jsonfile"
	mem "trophykit/credstore/memory"
	redisStore "trophykit/credstore/redis"
	sqlxStore "trophykit/credstore/sqlx"
	"trophykit/realtime"
	"trophykit/sign"
	"trophykit/trophy"
)

// App aggregates the assembled client components.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Hub    *realtime.Hub
	Client *client.Client
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *realtime.Hub {
	return realtime.NewHub()
}

func provideStore(ctx context.Context, cfg *config.Config) (client.CredentialStore, error) {
	return setupStorage(ctx, cfg)
}

func provideAvatars(cfg *config.Config, logger *slog.Logger) client.AvatarCache {
	if !cfg.Avatar.Enabled {
		return nil
	}
	return avatar.New(&http.Client{Timeout: cfg.API.Timeout}, logger, cfg.Avatar.Size)
}

func provideClient(cfg *config.Config, logger *slog.Logger, hub *realtime.Hub, store client.CredentialStore, avatars client.AvatarCache) *client.Client {
	identity := core.GameIdentity{ID: cfg.API.GameID, PrivateKey: cfg.API.PrivateKey}
	return trophy.New(cfg.API.BaseURL, identity,
		trophy.WithStorage(store),
		trophy.WithAvatarCache(avatars),
		trophy.WithRealtime(hub),
		trophy.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		trophy.WithLogger(logger),
		trophy.WithDigest(sign.Algo(cfg.API.Digest)),
	)
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate credential store based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (client.CredentialStore, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisStore.New(cfg.Storage.Redis)
	case "sql":
		return sqlxStore.New(cfg.Storage.SQL)
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
