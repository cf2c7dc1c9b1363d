package domain

// ProgressFunc reports bulk download progress.
// Called once per unit: (1, 66), (2, 66), ...
type ProgressFunc func(done, total int)

// DownloadResult summarizes a bulk download.
type DownloadResult struct {
	Downloaded int
	Failed     int
	Total      int
}

// Success reports whether every unit ended up cached.
func (r DownloadResult) Success() bool { return r.Failed == 0 }

// StatsObserver receives cache coverage updates after batch operations.
type StatsObserver interface {
	OnStats(stats CacheStats)
}

// NoOpObserver discards stats updates (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnStats(CacheStats) {}
