package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventlens-client/internal/config"
	"eventlens-client/internal/download"
	"eventlens-client/internal/middleware"
	"eventlens-client/internal/session"
	"eventlens-client/internal/storage"
	"eventlens-client/internal/upload"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local upload agent for the browser UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			svc, err := ctx.ensureServices()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true
			uploads := initialize(e, cfg, svc)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				svc.logger.Info("starting eventlens agent", zap.String("addr", addr), zap.String("api_url", cfg.APIURL))
				if cfg.AgentToken == "" {
					svc.logger.Warn("EVENTLENS_AGENT_TOKEN is not set; storage and upload routes are open to anyone who can reach the agent")
				}
				errCh <- e.Start(addr)
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-runCtx.Done():
				svc.logger.Info("shutting down eventlens agent")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := e.Shutdown(shutdownCtx); err != nil {
				svc.logger.Warn("server shutdown", zap.Error(err))
			}
			if err := uploads.Shutdown(shutdownCtx); err != nil {
				svc.logger.Warn("uploads still running at shutdown", zap.Error(err))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from EVENTLENS_LISTEN_ADDR)")
	return cmd
}

// initialize registers every agent route and middleware on e. It returns the
// upload service so the caller can drain running uploads on shutdown.
func initialize(e *echo.Echo, cfg *config.Config, svc *services) *upload.Service {
	sessionHandler := session.NewHandler(svc.sessions)
	sessionHandler.RegisterRoutes(e)

	storageHandler := storage.NewHandler(svc.storage)
	storageHandler.RegisterRoutes(e)

	uploadService := upload.NewService(svc.scheduler, svc.storage, svc.logger.Named("runs"))
	uploadHandler := upload.NewHandler(uploadService, svc.sessions)
	uploadHandler.RegisterRoutes(e)

	downloadService := download.NewService(svc.backend, cfg.TransferTimeout, svc.logger.Named("download"))
	downloadHandler := download.NewHandler(downloadService)
	downloadHandler.RegisterRoutes(e)

	e.Use(middleware.RequestLogger(svc.logger.Named("http")))
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.SecurityHeaders(cfg.Domain))
	e.Use(middleware.CORSConfig(cfg.Domain, cfg.AllowedOrigins))
	e.Use(middleware.AgentToken(cfg.AgentToken))

	return uploadService
}
