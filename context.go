package main

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"eventlens-client/internal/backend"
	"eventlens-client/internal/config"
	"eventlens-client/internal/logging"
	"eventlens-client/internal/session"
	"eventlens-client/internal/storage"
	"eventlens-client/internal/transfer"
	"eventlens-client/internal/upload"
)

// commandContext builds the shared services once per invocation
type commandContext struct {
	envFileFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	servicesOnce sync.Once
	services     *services
	servicesErr  error
}

type services struct {
	logger    *zap.Logger
	sessions  *session.Service
	backend   *backend.Client
	storage   *storage.Service
	scheduler *upload.Scheduler
}

func newCommandContext(envFileFlag *string) *commandContext {
	return &commandContext{envFileFlag: envFileFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var files []string
		if c.envFileFlag != nil && strings.TrimSpace(*c.envFileFlag) != "" {
			files = append(files, strings.TrimSpace(*c.envFileFlag))
		}
		c.config, c.configErr = config.Load(files...)
	})
	return c.config, c.configErr
}

// ensureServices wires the session, request layer, and scheduler. The
// session service is the single credential source of the backend client.
func (c *commandContext) ensureServices() (*services, error) {
	c.servicesOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.servicesErr = err
			return
		}

		logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			c.servicesErr = err
			return
		}

		sessionFile := cfg.SessionFile
		if sessionFile == "" {
			if sessionFile, err = session.DefaultPath(); err != nil {
				c.servicesErr = err
				return
			}
		}

		client := backend.NewClient(cfg.APIURL, nil,
			backend.WithTimeout(cfg.RequestTimeout),
			backend.WithLogger(logger.Named("backend")))
		sessions := session.NewService(session.NewStore(sessionFile), client, logger.Named("session"))
		client = client.WithCredentials(sessions)

		scheduler := upload.NewScheduler(client, transfer.New(cfg.TransferTimeout),
			upload.WithDefaultBatchSize(cfg.BatchSize),
			upload.WithSchedulerLogger(logger.Named("upload")))

		c.services = &services{
			logger:    logger,
			sessions:  sessions,
			backend:   client,
			storage:   storage.NewService(),
			scheduler: scheduler,
		}
	})
	return c.services, c.servicesErr
}

func (c *commandContext) close() {
	if c.services != nil {
		_ = c.services.logger.Sync()
	}
}
