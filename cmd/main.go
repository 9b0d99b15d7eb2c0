package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"

	"srisai/cmd/buildCFG"
	"srisai/cmd/middleware"
	"srisai/internal/admin"
	"srisai/internal/api/api"
	rabbitReader "srisai/internal/consumerWorker"
	"srisai/internal/mailer"
	"srisai/internal/rabbit"
	"srisai/internal/repo"
	"srisai/internal/service"
	"srisai/internal/storage"
)

func main() {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load("config.yaml", "", "SRISAI"); err != nil {
		log.Fatal().Msgf("failed to load configuration: %v", err)
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, &log)

	storageCfg, err := buildCFG.BuildStorageConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build storage config")
	}
	adminCfg, err := buildCFG.BuildAdminConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build admin config")
	}
	display, err := buildCFG.BuildDisplayConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build display config")
	}
	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load RabbitMQ config")
	}

	openCtx, openCancel := context.WithTimeout(context.Background(), 15*time.Second)
	slot, err := storage.Open(openCtx, storageCfg, &log)
	openCancel()
	if err != nil {
		log.Fatal().Err(err).Str("driver", storageCfg.Driver).Msg("failed to open storage")
	}
	defer func() {
		if err := slot.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()
	log.Info().Str("driver", storageCfg.Driver).Msg("storage opened")

	repository, err := repo.NewRepository(slot, &log)
	if err != nil {
		log.Fatal().Msgf("failed to initialize repository: %v", err)
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var notifier service.Notifier
	var reader *rabbitReader.Reader
	if rabbitCfg.Enabled {
		rmq, err := rabbit.NewRabbit(rabbitCfg.Url, rabbitCfg.Exchange, rabbitCfg.Queue)
		if err != nil {
			log.Fatal().Msgf("Failed to connect to RabbitMQ: %v", err)
		}
		defer rmq.Close()
		notifier = rmq

		mail := mailer.New(buildCFG.BuildMailerConfig(cfg), &log)
		reader = rabbitReader.NewReader(rmq, mail, &log)
		reader.Start(workerCtx)
	}

	serviceInstance := service.NewService(repository, &log, notifier, display)
	app := api.NewRouters(&api.Routers{
		Service:      serviceInstance,
		Sessions:     admin.NewSessions(adminCfg.ExpectedHash, admin.SHA256Hex, adminCfg.SessionTTL),
		Repo:         repository,
		Limiter:      middleware.NewRateLimiter(adminCfg.LoginRatePerMin, adminCfg.LoginBurst),
		Log:          &log,
		CookieSecure: adminCfg.CookieSecure,
		GinMode:      serverCfg.GinMode,
	})

	srv := &http.Server{
		Addr:              ":" + serverCfg.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-signalChan:
		log.Info().Msgf("Received signal %s. Initiating shutdown...", sig)
	case err := <-serverErrChan:
		log.Error().Msgf("Server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Msgf("Error shutting down server: %v", err)
	}

	cancelWorkers()
	if reader != nil {
		reader.Stop()
	}

	log.Info().Msg("Shutdown complete")
}
