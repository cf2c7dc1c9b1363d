package progress

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_OnlyLastTaskRuns(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var runs, last atomic.Int64

	for i := 1; i <= 10; i++ {
		d.Schedule(func() {
			runs.Add(1)
			last.Store(int64(i))
		})
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(10), last.Load())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int64(1), runs.Load())
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var runs atomic.Int64

	d.Schedule(func() { runs.Add(1) })
	assert.True(t, d.Pending())
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(0), runs.Load())
}

func TestDebouncer_FlushRunsSynchronously(t *testing.T) {
	d := NewDebouncer(time.Hour)
	var runs atomic.Int64

	d.Schedule(func() { runs.Add(1) })
	d.Flush()
	assert.Equal(t, int64(1), runs.Load())

	// Nothing pending: no-op
	d.Flush()
	assert.Equal(t, int64(1), runs.Load())
}

func TestDebouncer_StopRejectsFutureTasks(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	var runs atomic.Int64

	d.Schedule(func() { runs.Add(1) })
	d.Stop()
	d.Schedule(func() { runs.Add(1) })
	assert.False(t, d.Pending())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int64(0), runs.Load())
}
