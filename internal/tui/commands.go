package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/lectio/internal/domain"
)

// Downloader runs a bulk download, reporting each unit through onProgress.
type Downloader interface {
	DownloadAll(ctx context.Context, catalog domain.Catalog, onProgress domain.ProgressFunc) (domain.DownloadResult, error)
}

type downloadEvent struct {
	downloaded int
	total      int
	finished   bool
	result     domain.DownloadResult
	err        error
}

// DownloadCmd starts the download in the background and streams progress
// using a continuation pattern: each message carries the command that reads
// the next one.
func DownloadCmd(ctx context.Context, d Downloader, catalog domain.Catalog) tea.Cmd {
	return func() tea.Msg {
		progressCh := make(chan downloadEvent)

		go func() {
			defer close(progressCh)
			result, err := d.DownloadAll(ctx, catalog, func(done, total int) {
				select {
				case progressCh <- downloadEvent{downloaded: done, total: total}:
				case <-ctx.Done():
				}
			})
			// The reader is always waiting for the final event
			progressCh <- downloadEvent{
				downloaded: result.Downloaded,
				total:      result.Total,
				finished:   true,
				result:     result,
				err:        err,
			}
		}()

		return readDownloadProgress(progressCh)
	}
}

// readDownloadProgress reads one event and embeds the continuation command
func readDownloadProgress(progressCh <-chan downloadEvent) tea.Msg {
	ev, ok := <-progressCh
	if !ok {
		return DownloadProgressMsg{Finished: true, Err: context.Canceled}
	}

	msg := DownloadProgressMsg{
		Downloaded: ev.downloaded,
		Total:      ev.total,
		Finished:   ev.finished,
		Result:     ev.result,
		Err:        ev.err,
	}
	if !ev.finished {
		msg.NextCmd = listenToDownloadCmd(progressCh)
	}
	return msg
}

// listenToDownloadCmd returns a command that reads the next event from the channel
func listenToDownloadCmd(progressCh <-chan downloadEvent) tea.Cmd {
	return func() tea.Msg {
		return readDownloadProgress(progressCh)
	}
}
