package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"voice-agent/internal/config"
	"voice-agent/internal/conversation"
	"voice-agent/pkg/logger"
	"voice-agent/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const usage = "usage: migrate [up|down|status]"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg, err := config.LoadDatabase(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if err := run(ctx, cmd, cfg); err != nil {
		log.Error("migrate failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, cfg config.Config) error {
	log := slog.Default()

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := conversation.NewMigrator(db)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		results, err := p.Up(ctx)
		for _, r := range results {
			log.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
		}
		return err
	case "down":
		r, err := p.Down(ctx)
		if r != nil {
			log.Info("migration rolled back", "version", r.Source.Version, "path", r.Source.Path)
		}
		return err
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			log.Info("migration", "version", s.Source.Version, "path", s.Source.Path, "state", s.State, "applied_at", s.AppliedAt)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q: %s", cmd, usage)
	}
}
