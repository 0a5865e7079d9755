package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordrooms/internal/config"
	"wordrooms/internal/game"
	"wordrooms/internal/httpserver"
	"wordrooms/internal/notify"
	"wordrooms/internal/presence"
	"wordrooms/internal/session"
	"wordrooms/internal/store"
	"wordrooms/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if err := words.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}

	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open room store")
	}
	defer func() { _ = st.Close() }()

	pres := presence.NewManager(st, presence.Thresholds{
		OnDemand:   cfg.OnDemandTTL,
		Background: cfg.BackgroundTTL,
		Interval:   cfg.SweepInterval,
		RoomMaxAge: cfg.RoomMaxAge,
	})
	go pres.Run(context.Background())

	hub := notify.NewHub()
	rooms := session.NewService(st, pres, hub, words.RandomAnswer)
	srv := httpserver.New(rooms, game.NewMemorySessions(), hub, cfg)

	log.Info().Str("port", cfg.Port).Msg("starting wordrooms server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// openStore picks the backend: a SQL DSN when configured, otherwise the
// in-process store with file snapshotting.
func openStore(cfg config.Config) (store.Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		log.Info().Msg("using postgres room store")
		return store.OpenSQL(cfg.DatabaseURL)
	case cfg.SQLitePath != "":
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite room store")
		return store.OpenSQL(cfg.SQLitePath)
	default:
		log.Info().Str("snapshot", cfg.SnapshotFile).Msg("using in-memory room store")
		return store.NewMemoryStore(cfg.SnapshotFile, cfg.SnapshotInterval), nil
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
