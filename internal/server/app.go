// Package server wires the application together: configuration, logging,
// database-backed repositories, the S3 blob store, the domain services and
// the public HTTP endpoint, with graceful shutdown on OS signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/veristamp/veristamp/internal/logging"
	"github.com/veristamp/veristamp/internal/server/attestations"
	"github.com/veristamp/veristamp/internal/server/blob"
	"github.com/veristamp/veristamp/internal/server/config"
	"github.com/veristamp/veristamp/internal/server/db"
	"github.com/veristamp/veristamp/internal/server/httpapi"
	"github.com/veristamp/veristamp/internal/server/users"
)

type App struct {
	config             *config.Config
	logger             logging.Logger
	userService        *users.Service
	attestationService *attestations.Service
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger()

	rm, err := db.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blobs := blob.NewS3Store(cfg)

	us := users.NewService(rm.Users(), rm.RefreshTokens(), rm.Attestations(), cfg)
	as := attestations.NewService(rm.Attestations(), blobs, cfg)

	return &App{config: cfg, logger: logger, userService: us, attestationService: as}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	s := httpapi.NewServer(app.config.EndpointAddr, app.logger,
		app.userService, app.attestationService, app.config.MaxContentBytes)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(ctx)
	})

	if err := g.Wait(); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	return nil
}
