// Package cli implements the veristamp command-line interface: account
// management, attesting files and text, verifying content against the
// service, and sharing verification links.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/veristamp/veristamp/internal/client/api"
	"github.com/veristamp/veristamp/internal/client/config"
	"github.com/veristamp/veristamp/internal/client/store"
	"github.com/veristamp/veristamp/internal/common"
)

type App struct {
	config *config.Config
	api    *api.Client
	store  *store.Store
	out    io.Writer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing local state: %w", err)
	}

	return &App{
		config: cfg,
		api:    api.New(cfg.ServerURL, cfg.RequestTimeout.Duration),
		store:  st,
		out:    os.Stdout,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

// Run executes the root command with the given arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := a.newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(a.out)
	return cmd.ExecuteContext(ctx)
}

// loadToken installs the cached access token on the API client. A missing
// token maps to ErrorUnauthorized so commands can tell the user to log in.
func (a *App) loadToken(ctx context.Context) error {
	token, err := a.store.Metadata.Get(ctx, store.KeyAccessToken)
	if err != nil {
		return err
	}
	if len(token) == 0 {
		return common.ErrorUnauthorized
	}
	a.api.SetToken(string(token))
	return nil
}

// refreshTokens exchanges the cached refresh token for a fresh pair and
// persists it.
func (a *App) refreshTokens(ctx context.Context) error {
	refresh, err := a.store.Metadata.Get(ctx, store.KeyRefreshToken)
	if err != nil {
		return err
	}
	if len(refresh) == 0 {
		return common.ErrorUnauthorized
	}

	pair, err := a.api.Refresh(ctx, string(refresh))
	if err != nil {
		return err
	}
	return a.saveTokens(ctx, pair)
}

func (a *App) saveTokens(ctx context.Context, pair *api.TokenPair) error {
	if err := a.store.Metadata.Set(ctx, store.KeyAccessToken, []byte(pair.AccessToken)); err != nil {
		return err
	}
	if err := a.store.Metadata.Set(ctx, store.KeyRefreshToken, []byte(pair.RefreshToken)); err != nil {
		return err
	}
	a.api.SetToken(pair.AccessToken)
	return nil
}

// withAuth runs fn with a valid token, refreshing once on expiry.
func (a *App) withAuth(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := a.loadToken(ctx); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return errors.New("not logged in, run `veristamp login` first")
		}
		return err
	}

	err := fn(ctx)
	if !errors.Is(err, common.ErrorUnauthorized) {
		return err
	}

	if err := a.refreshTokens(ctx); err != nil {
		return errors.New("session expired, run `veristamp login` again")
	}
	return fn(ctx)
}
