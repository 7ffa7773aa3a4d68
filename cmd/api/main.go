package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-agent/internal/audit"
	"voice-agent/internal/auth"
	"voice-agent/internal/config"
	"voice-agent/internal/content"
	"voice-agent/internal/conversation"
	"voice-agent/internal/emotion"
	"voice-agent/internal/langdetect"
	"voice-agent/internal/speech"
	"voice-agent/internal/synthcache"
	"voice-agent/pkg/logger"
	"voice-agent/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Audio)
	if err != nil {
		log.Error("audio token init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	tts, err := speech.NewElevenLabs(speech.ElevenLabsConfig{
		APIKey:       cfg.ElevenLabs.APIKey,
		WSBaseURL:    cfg.ElevenLabs.WSBaseURL,
		ModelID:      cfg.ElevenLabs.ModelID,
		OutputFormat: cfg.ElevenLabs.OutputFormat,
	})
	if err != nil {
		log.Error("speech provider init failed", "err", err)
		os.Exit(1)
	}

	synthOpts := synthcache.Options{
		TTL:             cfg.Synth.CacheTTL,
		Grace:           cfg.Synth.Grace,
		Capacity:        cfg.Synth.Capacity,
		ProviderTimeout: cfg.Synth.ProviderTimeout,
	}
	if cfg.Synth.MaxConcurrent > 0 {
		synthOpts.Limiter = synthcache.NewRedisLimiter(rdb, cfg.Synth.CapKey, cfg.Synth.MaxConcurrent, 2*cfg.Synth.ProviderTimeout)
	}
	synth := synthcache.New(tts, synthcache.NewRedisStore(rdb), synthOpts)

	provider, err := contentProvider(rootCtx, cfg)
	if err != nil {
		log.Error("content provider init failed", "err", err)
		os.Exit(1)
	}

	engine := conversation.New(conversation.Deps{
		Store:      conversation.NewPostgresStore(db),
		Detector:   langdetect.New(langdetect.DefaultTable(), langdetect.Options{}),
		Classifier: emotion.New(emotion.DefaultRules()),
		Content:    provider,
		Synth:      synth,
		Voices:     speech.NewCatalog(cfg.Voices),
		Audit:      audit.NewService(audit.NewPostgresRepo(db)),
	}, conversation.Config{
		MinLanguageConfidence:  cfg.Conversation.MinLanguageConfidence,
		MinSpeechConfidence:    cfg.Conversation.MinSpeechConfidence,
		MaxConsecutiveSilences: cfg.Conversation.MaxConsecutiveSilences,
		MaxAppendAttempts:      cfg.Conversation.MaxAppendAttempts,
		RetryBackoff:           cfg.Conversation.RetryBackoff,
		DefaultLanguage:        cfg.Conversation.DefaultLanguage,
		TurnTimeout:            cfg.Conversation.TurnTimeout,
	})

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:    cfg,
		db:     db,
		rdb:    rdb,
		engine: engine,
		audio:  synth,
		tokens: tokens,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func contentProvider(ctx context.Context, cfg config.Config) (content.Provider, error) {
	if cfg.Gemini.Enabled {
		return content.NewGeminiProvider(ctx, content.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Gemini.Timeout,
		})
	}
	return content.NewTemplateProvider(cfg.Conversation.DefaultLanguage, nil)
}
