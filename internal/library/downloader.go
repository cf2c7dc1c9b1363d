package library

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/lectio/internal/domain"
)

// DefaultDelay is the pause after each network fetch during a bulk download.
const DefaultDelay = 200 * time.Millisecond

// State is the bulk download lifecycle.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

// Downloader pre-fetches the whole catalog one unit at a time.
type Downloader struct {
	coord  *Coordinator
	store  domain.UnitStore
	delay  time.Duration
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	observers []domain.StatsObserver
}

// NewDownloader creates a bulk sync manager. A negative delay means DefaultDelay.
func NewDownloader(coord *Coordinator, store domain.UnitStore, delay time.Duration, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	if delay < 0 {
		delay = DefaultDelay
	}
	return &Downloader{coord: coord, store: store, delay: delay, logger: logger}
}

// Subscribe registers an observer for stats updates after batch operations.
func (d *Downloader) Subscribe(o domain.StatsObserver) {
	d.mu.Lock()
	d.observers = append(d.observers, o)
	d.mu.Unlock()
}

// State returns the current lifecycle state.
func (d *Downloader) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// DownloadAll caches every catalog unit in order. A failed unit is counted and
// skipped. onProgress runs after every unit. Returns domain.ErrDownloadInProgress
// without side effects if a download is already running. Cancelling ctx stops
// the batch between units and returns the partial result with ctx.Err().
func (d *Downloader) DownloadAll(
	ctx context.Context,
	catalog domain.Catalog,
	onProgress domain.ProgressFunc,
) (domain.DownloadResult, error) {
	if !d.begin() {
		d.logger.Warn("download already in progress")
		return domain.DownloadResult{}, domain.ErrDownloadInProgress
	}
	// A panicking onProgress must not leave the downloader stuck in Running
	defer d.release()

	result := domain.DownloadResult{Total: len(catalog)}
	d.logger.Info("download started", "total", result.Total)

	for i, entry := range catalog {
		if err := ctx.Err(); err != nil {
			return d.abort(result, err)
		}

		fetched, err := d.downloadOne(ctx, entry)
		if err != nil {
			if ctx.Err() != nil {
				return d.abort(result, ctx.Err())
			}
			result.Failed++
			d.logger.Error("failed to download unit", "error", err, "unitID", entry.UnitID, "name", entry.DisplayName)
		} else {
			result.Downloaded++
		}

		if onProgress != nil {
			onProgress(result.Downloaded, result.Total)
		}

		// Only network round-trips are rate limited; nothing follows the last unit
		if fetched && i < len(catalog)-1 && d.delay > 0 {
			select {
			case <-time.After(d.delay):
			case <-ctx.Done():
				return d.abort(result, ctx.Err())
			}
		}
	}

	d.logger.Info("download finished",
		"downloaded", result.Downloaded,
		"failed", result.Failed,
		"total", result.Total,
	)
	d.finish(StateCompleted)
	d.publishStats(ctx, catalog)
	return result, nil
}

// downloadOne caches one unit. fetched reports whether the network was used.
func (d *Downloader) downloadOne(ctx context.Context, entry domain.CatalogEntry) (fetched bool, err error) {
	cached, err := d.store.HasUnit(ctx, entry.UnitID)
	if err != nil {
		return false, err
	}
	if cached {
		d.logger.Debug("already cached", "unitID", entry.UnitID)
		return false, nil
	}

	_, err = d.coord.Resolve(ctx, entry.UnitID)
	return true, err
}

// ClearAll deletes every catalog unit from the store, skipping failures, then
// signals observers with zero stats.
func (d *Downloader) ClearAll(ctx context.Context, catalog domain.Catalog) error {
	d.mu.Lock()
	if d.state == StateRunning {
		d.mu.Unlock()
		return domain.ErrDownloadInProgress
	}
	d.mu.Unlock()

	failed := 0
	for _, entry := range catalog {
		if err := d.store.DeleteUnit(ctx, entry.UnitID); err != nil {
			failed++
			d.logger.Error("failed to delete unit", "error", err, "unitID", entry.UnitID)
		}
	}
	d.logger.Info("cache cleared", "total", len(catalog), "failed", failed)

	d.finish(StateIdle)
	d.notify(domain.CacheStats{})
	return nil
}

func (d *Downloader) begin() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateRunning {
		return false
	}
	d.state = StateRunning
	return true
}

// release returns a run that never reached finish or abort to Idle.
func (d *Downloader) release() {
	d.mu.Lock()
	if d.state == StateRunning {
		d.state = StateIdle
	}
	d.mu.Unlock()
}

func (d *Downloader) finish(state State) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}

func (d *Downloader) abort(result domain.DownloadResult, err error) (domain.DownloadResult, error) {
	d.logger.Info("download cancelled", "downloaded", result.Downloaded, "failed", result.Failed, "total", result.Total)
	d.finish(StateIdle)
	return result, err
}

func (d *Downloader) publishStats(ctx context.Context, catalog domain.Catalog) {
	stats, err := d.coord.ComputeStats(ctx, catalog)
	if err != nil {
		d.logger.Error("failed to compute stats", "error", err)
		return
	}
	d.notify(stats)
}

func (d *Downloader) notify(stats domain.CacheStats) {
	d.mu.Lock()
	observers := append([]domain.StatsObserver(nil), d.observers...)
	d.mu.Unlock()

	for _, o := range observers {
		o.OnStats(stats)
	}
}
