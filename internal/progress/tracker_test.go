package progress

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/lectio/internal/domain"
	"github.com/mmcdole/lectio/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records SaveProgress calls and can fail them.
type countingStore struct {
	domain.ProgressStore

	mu    sync.Mutex
	saves []domain.ProgressRecord
	fail  bool
}

func (s *countingStore) SaveProgress(ctx context.Context, rec domain.ProgressRecord) error {
	s.mu.Lock()
	s.saves = append(s.saves, rec)
	fail := s.fail
	s.mu.Unlock()
	if fail {
		return &domain.StoreError{Op: "put", Collection: "progress", Key: rec.ID, Err: errors.New("quota exceeded")}
	}
	return s.ProgressStore.SaveProgress(ctx, rec)
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return &countingStore{ProgressStore: st}
}

const testInterval = 40 * time.Millisecond

// gatedStore holds the first SaveProgress until release is closed.
type gatedStore struct {
	domain.ProgressStore

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(t *testing.T) *gatedStore {
	t.Helper()
	return &gatedStore{
		ProgressStore: newCountingStore(t).ProgressStore,
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
}

func (s *gatedStore) SaveProgress(ctx context.Context, rec domain.ProgressRecord) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return s.ProgressStore.SaveProgress(ctx, rec)
}

func TestTracker_RestoreAfterNavigation(t *testing.T) {
	st := newCountingStore(t)
	tr := NewTracker(st, testInterval, nil)
	ctx := context.Background()

	rec, ok, err := tr.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)

	tr.RecordNavigation(ctx, 2, 3)

	rec, ok, err = NewTracker(st, testInterval, nil).Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.ProgressID, rec.ID)
	assert.Equal(t, 2, rec.BookIndex)
	assert.Equal(t, 3, rec.ChapterIndex)
	assert.Equal(t, 0.0, rec.ScrollOffset)
}

func TestTracker_ScrollWritesAreDebounced(t *testing.T) {
	st := newCountingStore(t)
	tr := NewTracker(st, testInterval, nil)
	defer tr.Close()

	for offset := 100.0; offset <= 1000; offset += 100 {
		tr.RecordScroll(0, 4, offset)
	}
	assert.Equal(t, 1000.0, tr.Positions().Get(Position{0, 4}), "map updates immediately")

	require.Eventually(t, func() bool { return st.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(2 * testInterval)
	assert.Equal(t, 1, st.count())

	rec, ok, err := st.GetProgress(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1000.0, rec.ScrollOffset)
	assert.Equal(t, 4, rec.ChapterIndex)
}

func TestTracker_NavigationDropsPendingScroll(t *testing.T) {
	st := newCountingStore(t)
	tr := NewTracker(st, testInterval, nil)
	defer tr.Close()
	ctx := context.Background()

	tr.RecordScroll(1, 1, 300)
	tr.RecordNavigation(ctx, 1, 2)
	assert.Equal(t, 1, st.count(), "navigation writes immediately")

	time.Sleep(3 * testInterval)
	assert.Equal(t, 1, st.count())

	rec, ok, err := st.GetProgress(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, rec.ChapterIndex)
	assert.Equal(t, 0.0, rec.ScrollOffset)
	assert.Equal(t, 300.0, tr.Positions().Get(Position{1, 1}), "session map keeps the old chapter")
}

func TestTracker_RestoreScrollForOncePerLoad(t *testing.T) {
	st := newCountingStore(t)
	ctx := context.Background()
	require.NoError(t, st.ProgressStore.SaveProgress(ctx, domain.ProgressRecord{
		ID: domain.ProgressID, BookIndex: 5, ChapterIndex: 7, ScrollOffset: 420,
	}))

	tr := NewTracker(st, testInterval, nil)
	defer tr.Close()
	_, ok, err := tr.Restore(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	offset, apply := tr.RestoreScrollFor(5, 7)
	assert.True(t, apply)
	assert.Equal(t, 420.0, offset)

	offset, apply = tr.RestoreScrollFor(5, 7)
	assert.False(t, apply, "second call for the same load is suppressed")
	assert.Equal(t, 420.0, offset)

	// A chapter without a load never applies
	offset, apply = tr.RestoreScrollFor(9, 9)
	assert.False(t, apply)
	assert.Equal(t, 0.0, offset)

	// Reloading re-arms it
	tr.BeginLoad(5, 7)
	_, apply = tr.RestoreScrollFor(5, 7)
	assert.True(t, apply)
}

func TestTracker_FlushWritesPendingScroll(t *testing.T) {
	st := newCountingStore(t)
	tr := NewTracker(st, time.Hour, nil)
	defer tr.Close()

	tr.RecordScroll(0, 0, 55)
	assert.Equal(t, 0, st.count())
	tr.Flush()
	assert.Equal(t, 1, st.count())
}

func TestTracker_NoWritesAfterClose(t *testing.T) {
	st := newCountingStore(t)
	tr := NewTracker(st, testInterval, nil)

	tr.RecordScroll(0, 1, 10)
	tr.Close()
	tr.RecordNavigation(context.Background(), 3, 3)
	tr.RecordScroll(0, 1, 20)
	tr.Flush()

	time.Sleep(3 * testInterval)
	assert.Equal(t, 0, st.count())
}

func TestTracker_WriteFailuresAreSwallowed(t *testing.T) {
	st := newCountingStore(t)
	st.fail = true
	tr := NewTracker(st, time.Hour, nil)
	defer tr.Close()

	assert.NotPanics(t, func() {
		tr.RecordNavigation(context.Background(), 1, 1)
		tr.RecordScroll(1, 1, 80)
		tr.Flush()
	})
	assert.Equal(t, 2, st.count())
	assert.Equal(t, 80.0, tr.Positions().Get(Position{1, 1}))
}

func TestTracker_ClampsOffsets(t *testing.T) {
	tr := NewTracker(newCountingStore(t), time.Hour, nil)
	defer tr.Close()

	tr.RecordScroll(0, 0, -12)
	assert.Equal(t, 0.0, tr.Positions().Get(Position{0, 0}))
	tr.RecordScroll(0, 1, math.NaN())
	assert.Equal(t, 0.0, tr.Positions().Get(Position{0, 1}))
}

func TestTracker_Clear(t *testing.T) {
	st := newCountingStore(t)
	tr := NewTracker(st, testInterval, nil)
	defer tr.Close()
	ctx := context.Background()

	tr.RecordNavigation(ctx, 4, 4)
	tr.RecordScroll(4, 4, 99)
	require.NoError(t, tr.Clear(ctx))

	time.Sleep(3 * testInterval)
	_, ok, err := st.GetProgress(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, tr.Positions().Len())
}

func TestTracker_NavigationLandsAfterInFlightScroll(t *testing.T) {
	st := newGatedStore(t)
	tr := NewTracker(st, testInterval, nil)
	defer tr.Close()
	ctx := context.Background()

	tr.RecordScroll(0, 0, 500)
	select {
	case <-st.entered:
	case <-time.After(time.Second):
		t.Fatal("scroll write never started")
	}

	done := make(chan struct{})
	go func() {
		tr.RecordNavigation(ctx, 4, 7)
		close(done)
	}()

	// Give navigation a chance to race the blocked scroll write
	time.Sleep(testInterval)
	close(st.release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("navigation did not finish")
	}

	rec, ok, err := st.GetProgress(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, rec.BookIndex)
	assert.Equal(t, 7, rec.ChapterIndex)
	assert.Equal(t, 0.0, rec.ScrollOffset)
}

func TestTracker_ClearWaitsForInFlightScroll(t *testing.T) {
	st := newGatedStore(t)
	tr := NewTracker(st, testInterval, nil)
	defer tr.Close()
	ctx := context.Background()

	tr.RecordScroll(2, 2, 75)
	select {
	case <-st.entered:
	case <-time.After(time.Second):
		t.Fatal("scroll write never started")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- tr.Clear(ctx) }()
	time.Sleep(testInterval)
	close(st.release)

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("clear did not finish")
	}

	_, ok, err := st.GetProgress(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "the in-flight scroll must not outlive Clear")
}

func TestTracker_LaterScrollSupersedesEarlierOne(t *testing.T) {
	st := newCountingStore(t)
	tr := NewTracker(st, time.Hour, nil)
	defer tr.Close()

	tr.RecordScroll(1, 0, 10)
	assert.True(t, tr.Pending())
	tr.RecordScroll(1, 0, 20)
	tr.Flush()
	assert.False(t, tr.Pending())

	require.Equal(t, 1, st.count())
	rec, ok, err := st.GetProgress(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 20.0, rec.ScrollOffset)
}
