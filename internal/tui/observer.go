package tui

import "github.com/mmcdole/lectio/internal/domain"

// ChannelObserver adapts domain.StatsObserver to a channel.
type ChannelObserver struct {
	ch chan<- domain.CacheStats
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.CacheStats) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnStats sends stats to the channel (non-blocking if full).
func (o *ChannelObserver) OnStats(stats domain.CacheStats) {
	select {
	case o.ch <- stats:
	default: // Non-blocking if channel full
	}
}
