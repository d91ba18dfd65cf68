package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/dampiermike/cortex-chat/backend/internal/config"
	"github.com/dampiermike/cortex-chat/backend/internal/handler"
	"github.com/dampiermike/cortex-chat/backend/internal/model/semanticmodel"
	"github.com/dampiermike/cortex-chat/backend/internal/service/analyst"
	"github.com/dampiermike/cortex-chat/backend/internal/service/conversation"
	"github.com/dampiermike/cortex-chat/backend/internal/service/warehouse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("failed to load .env file")
		logrus.Info("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	if !cfg.Snowflake.Enabled() {
		logrus.Warn("SNOWFLAKE_ACCOUNT / SNOWFLAKE_TOKEN not set; analyst and warehouse calls will fail until provided")
	}

	modelStore := semanticmodel.NewMemoryStore(semanticmodel.Seed())
	analystClient := analyst.NewClient(cfg.Snowflake)
	warehouseClient := warehouse.NewClient(cfg.Snowflake)
	convService := conversation.NewService(analystClient, warehouseClient)

	router := handler.NewRouter(modelStore, convService, warehouseClient)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logrus.WithField("addr", addr).Info("analyst chat backend listening")
	if err := runServer(ctx, srv); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
