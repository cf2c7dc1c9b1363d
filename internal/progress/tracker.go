package progress

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/mmcdole/lectio/internal/domain"
)

// DefaultDebounce is the quiet window before a scroll position is persisted.
const DefaultDebounce = 500 * time.Millisecond

// Tracker persists the single current reading position. Navigation is written
// eagerly; scrolling is debounced. Write failures are logged, never returned.
type Tracker struct {
	store     domain.ProgressStore
	logger    *slog.Logger
	debouncer *Debouncer
	positions *PositionMap
	now       func() time.Time

	mu       sync.Mutex
	loading  Position
	loaded   bool // a load is active for loading
	restored bool // RestoreScrollFor already answered for this load
	closed   bool
	seq      uint64 // bumped by every write-affecting call; stale scroll writes are skipped

	// wmu serializes store writes so a scroll write already in flight
	// lands before a later navigation, Clear or Close.
	wmu sync.Mutex
}

// NewTracker creates a tracker. A non-positive interval means DefaultDebounce.
func NewTracker(store domain.ProgressStore, interval time.Duration, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Tracker{
		store:     store,
		logger:    logger,
		debouncer: NewDebouncer(interval),
		positions: NewPositionMap(),
		now:       time.Now,
	}
}

// Positions exposes the session scroll map.
func (t *Tracker) Positions() *PositionMap { return t.positions }

// Restore reads the saved position. A found record seeds the scroll map and
// starts a load for its chapter.
func (t *Tracker) Restore(ctx context.Context) (*domain.ProgressRecord, bool, error) {
	rec, ok, err := t.store.GetProgress(ctx)
	if err != nil {
		t.logger.Error("failed to restore progress", "error", err)
		return nil, false, err
	}
	if !ok {
		t.logger.Debug("no saved progress")
		return nil, false, nil
	}

	pos := Position{Book: rec.BookIndex, Chapter: rec.ChapterIndex}
	t.positions.Set(pos, rec.ScrollOffset)
	t.BeginLoad(pos.Book, pos.Chapter)
	t.logger.Info("restored progress", "position", pos.String(), "scroll", rec.ScrollOffset)
	return rec, true, nil
}

// RecordNavigation checkpoints a deliberate jump to the top of a chapter.
// Any pending scroll write is dropped.
func (t *Tracker) RecordNavigation(ctx context.Context, bookIndex, chapterIndex int) {
	if _, ok := t.nextSeq(); !ok {
		return
	}
	t.debouncer.Cancel()

	pos := Position{Book: bookIndex, Chapter: chapterIndex}
	t.positions.Set(pos, 0)
	t.BeginLoad(bookIndex, chapterIndex)

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if t.isClosed() {
		return
	}
	t.save(ctx, pos, 0)
}

// RecordScroll updates the scroll map now and persists after the quiet window.
func (t *Tracker) RecordScroll(bookIndex, chapterIndex int, offset float64) {
	seq, ok := t.nextSeq()
	if !ok {
		return
	}
	offset = clampOffset(offset)
	pos := Position{Book: bookIndex, Chapter: chapterIndex}
	t.positions.Set(pos, offset)

	t.debouncer.Schedule(func() {
		t.writeScroll(context.Background(), seq, pos, offset)
	})
}

// BeginLoad marks the start of loading a chapter, re-arming RestoreScrollFor.
func (t *Tracker) BeginLoad(bookIndex, chapterIndex int) {
	t.mu.Lock()
	t.loading = Position{Book: bookIndex, Chapter: chapterIndex}
	t.loaded = true
	t.restored = false
	t.mu.Unlock()
}

// RestoreScrollFor returns the session offset for a chapter (0 if unknown).
// apply is true only on the first call for the chapter's current load, so
// callers reposition once and then leave the viewport to the reader.
func (t *Tracker) RestoreScrollFor(bookIndex, chapterIndex int) (offset float64, apply bool) {
	pos := Position{Book: bookIndex, Chapter: chapterIndex}
	offset = t.positions.Get(pos)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loaded && t.loading == pos && !t.restored {
		t.restored = true
		return offset, true
	}
	return offset, false
}

// Pending reports whether a scroll write is waiting for its quiet window.
func (t *Tracker) Pending() bool {
	return t.debouncer.Pending()
}

// Flush persists a pending scroll write immediately.
func (t *Tracker) Flush() {
	t.debouncer.Flush()
}

// Clear forgets the saved position and the session scroll map.
func (t *Tracker) Clear(ctx context.Context) error {
	t.debouncer.Cancel()
	t.positions.Reset()

	t.mu.Lock()
	t.seq++
	t.loaded = false
	t.restored = false
	t.mu.Unlock()

	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := t.store.DeleteProgress(ctx); err != nil {
		t.logger.Error("failed to clear progress", "error", err)
		return err
	}
	t.logger.Info("progress cleared")
	return nil
}

// Close drops any pending write and waits for one already in flight;
// nothing is persisted afterwards. Call Flush first to keep the last
// scroll position.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.seq++
	t.mu.Unlock()
	t.debouncer.Stop()

	// Wait out a write already in flight
	t.wmu.Lock()
	defer t.wmu.Unlock()
}

// nextSeq starts a new write generation. ok is false once closed.
func (t *Tracker) nextSeq() (seq uint64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, false
	}
	t.seq++
	return t.seq, true
}

func (t *Tracker) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// writeScroll persists a debounced offset unless a later navigation,
// scroll, Clear or Close superseded it.
func (t *Tracker) writeScroll(ctx context.Context, seq uint64, pos Position, offset float64) {
	t.wmu.Lock()
	defer t.wmu.Unlock()

	t.mu.Lock()
	stale := t.closed || seq != t.seq
	t.mu.Unlock()
	if stale {
		t.logger.Debug("dropped superseded scroll write", "position", pos.String())
		return
	}
	t.save(ctx, pos, offset)
}

// save writes the record; callers hold wmu.
func (t *Tracker) save(ctx context.Context, pos Position, offset float64) {
	rec := domain.ProgressRecord{
		ID:           domain.ProgressID,
		BookIndex:    pos.Book,
		ChapterIndex: pos.Chapter,
		ScrollOffset: offset,
		UpdatedAt:    t.now().UTC(),
	}
	if err := t.store.SaveProgress(ctx, rec); err != nil {
		t.logger.Error("failed to save progress", "error", err, "position", pos.String())
		return
	}
	t.logger.Debug("saved progress", "position", pos.String(), "scroll", offset)
}

func clampOffset(offset float64) float64 {
	if math.IsNaN(offset) || offset < 0 {
		return 0
	}
	if math.IsInf(offset, 1) {
		return math.MaxFloat64
	}
	return offset
}
