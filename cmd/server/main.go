package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/folio/internal/config"
	"github.com/folio/internal/db"
	"github.com/folio/internal/handler"
	"github.com/folio/internal/logger"
	"github.com/folio/internal/router"
	"github.com/folio/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(config.LogConfig{Level: "info"}, os.Stderr)
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Log, os.Stdout)
	gin.SetMode(cfg.Server.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DB.Path); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("failed to initialize database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatcher := task.NewDispatcher(cfg.Tasks, log)
	dispatcher.Start(ctx)

	api := handler.NewAPI(db.DB, handler.Options{
		TokenTTL:   cfg.Auth.TokenTTL,
		Pagination: cfg.Pagination,
		Tasks:      dispatcher,
		Mailer:     task.NewMailer(cfg.Mail, log),
		Logger:     log,
	})

	if cfg.Auth.TokenTTL > 0 {
		go task.Every(ctx, cfg.Auth.CleanupInterval, dispatcher, task.TokenCleanup(api.Auth(), log))
	}

	server := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           router.SetupRouter(api, cfg.CORS, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("could not start HTTP server")
		}
	}()

	<-ctx.Done()
	log.Warn().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	dispatcher.Stop()
	log.Info().Msg("server exiting")
}
