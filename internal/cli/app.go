package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mmcdole/lectio/internal/config"
	"github.com/mmcdole/lectio/internal/domain"
	"github.com/mmcdole/lectio/internal/library"
	"github.com/mmcdole/lectio/internal/log"
	"github.com/mmcdole/lectio/internal/progress"
	"github.com/mmcdole/lectio/internal/source"
	"github.com/mmcdole/lectio/internal/store"
)

// app wires the core components for one CLI invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store      *store.Handle
	source     *source.Client
	coord      *library.Coordinator
	catalogs   *library.CatalogService
	downloader *library.Downloader
	tracker    *progress.Tracker

	logFile io.Closer
}

// newApp loads configuration and builds every component. Nothing touches the
// database or network until a command needs it.
func newApp(globals *GlobalFlags) (*app, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if globals.Ephemeral {
		cfg.Cache.Dir = ""
	}

	// Fall back to null logger if file logging fails
	logger, logFile, err := log.SetupLogger(cfg.Logging)
	if err != nil {
		logger = log.NullLogger()
		logFile = nil
	}
	slog.SetDefault(logger)

	client, err := source.NewClient(cfg.Source.URL, source.Options{
		CatalogPath: cfg.Source.CatalogPath,
		UnitPath:    cfg.Source.UnitPath,
		Timeout:     cfg.Source.Timeout,
	}, logger)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("failed to create source client: %w", err)
	}

	handle := store.NewHandle(cfg.Cache.Dir)
	coord := library.NewCoordinator(client, handle, logger)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		store:      handle,
		source:     client,
		coord:      coord,
		catalogs:   library.NewCatalogService(client, handle, logger),
		downloader: library.NewDownloader(coord, handle, cfg.Sync.Delay, logger),
		tracker:    progress.NewTracker(handle, cfg.Progress.Debounce, logger),
		logFile:    logFile,
	}
	logger.Debug("app ready", "source", cfg.Source.URL, "cache", handle.Path())
	return a, nil
}

// Close persists any pending position and releases the store and log file.
func (a *app) Close() error {
	if a.tracker.Pending() {
		a.logger.Debug("flushing pending scroll position")
		a.tracker.Flush()
	}
	a.tracker.Close()

	err := a.store.Close()
	if a.logFile != nil {
		err = errors.Join(err, a.logFile.Close())
	}
	return err
}

// loadCatalog loads the catalog and registers it with the coordinator.
func (a *app) loadCatalog(ctx context.Context) (domain.Catalog, error) {
	catalog, fromCache, err := a.catalogs.Load(ctx)
	if err != nil {
		return nil, err
	}
	if fromCache {
		fmt.Fprintln(os.Stderr, "offline: using the stored catalog")
	}
	a.coord.UseCatalog(catalog)
	return catalog, nil
}

// withApp builds the app, runs fn and always closes it.
func withApp(globals *GlobalFlags, fn func(a *app) error) (err error) {
	a, err := newApp(globals)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
