package web

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bigredeye/raport/internal/auth"
	"github.com/bigredeye/raport/internal/config"
	"github.com/bigredeye/raport/internal/database"
	"github.com/bigredeye/raport/internal/photos"
)

const shutdownTimeout = 10 * time.Second

// Run serves the application until ctx is cancelled.
func Run(ctx context.Context, logger *zap.Logger, config *config.Config) error {
	db, err := database.OpenDataBase(logger, config)
	if err != nil {
		return errors.Wrap(err, "Failed to open database")
	}

	maxSize, err := config.PhotoMaxSize()
	if err != nil {
		return err
	}
	store, err := photos.NewStore(logger, config.Uploads.Dir, maxSize, config.Uploads.Extensions)
	if err != nil {
		return err
	}

	gate := auth.NewGate(db, logger)
	if err := gate.SeedDefault(config.Admin.DefaultUsername, config.Admin.DefaultPassword); err != nil {
		return err
	}

	s := newServer(config, logger, db, store, gate)
	return errors.Wrap(s.run(ctx), "Server failed")
}

func (s *server) run(ctx context.Context) error {
	r, err := s.router()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.config.Server.ListenAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Starting server", zap.String("bind_address", s.config.Server.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
