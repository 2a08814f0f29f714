package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/shelfimport/internal/config"
	"github.com/vk/shelfimport/internal/ctxlog"
	"github.com/vk/shelfimport/internal/importer"
	"github.com/vk/shelfimport/internal/registry"
	"github.com/vk/shelfimport/internal/shelf"
	"github.com/vk/shelfimport/internal/shelfimport"
)

// Option customises an App.
type Option func(*options)

type options struct {
	noisy bool
}

// WithNoisyHook installs a path hook ahead of the shelf hook that logs every
// entry and lookup it sees, and puts its trigger entry at the front of the
// search path.
func WithNoisyHook() Option {
	return func(o *options) { o.noisy = true }
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	logCloser io.Closer
	config    *config.Config
	shelfOpts []shelf.Option
	modules   *registry.Registry
	importer  *importer.Importer
}

// NewApp is the constructor for the main application. Results are written to
// outW and log records to logW unless the configuration names a log file.
func NewApp(outW, logW io.Writer, cfg *config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger, closer, err := newLogger(cfg, logW)
	if err != nil {
		return nil, err
	}
	logger.Debug("Logger configured successfully.")

	var shelfOpts []shelf.Option
	if cfg.OpenTimeout > 0 {
		shelfOpts = append(shelfOpts, shelf.WithTimeout(cfg.OpenTimeout))
	}

	var hooks []importer.PathHook
	if o.noisy {
		hooks = append(hooks, noisyHook)
	}
	hooks = append(hooks, shelfimport.PathHook(shelfOpts...))

	modules := registry.New()
	im := importer.New(modules, hooks...)
	for _, entry := range cfg.Path {
		im.AppendPath(entry)
	}
	if o.noisy {
		im.InsertPath(NoisyTrigger)
	}
	logger.Debug("Import system configured.", "path", im.Path(), "hooks", len(hooks))

	return &App{
		outW:      outW,
		logger:    logger,
		logCloser: closer,
		config:    cfg,
		shelfOpts: shelfOpts,
		modules:   modules,
		importer:  im,
	}, nil
}

// Importer returns the application's import system. This is primarily for testing.
func (a *App) Importer() *importer.Importer {
	return a.importer
}

// Close releases the log file, if any.
func (a *App) Close() error {
	if err := a.logCloser.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
