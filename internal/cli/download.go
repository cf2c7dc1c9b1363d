package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mmcdole/lectio/internal/domain"
	"github.com/mmcdole/lectio/internal/tui"
)

// downloadJSON is the JSON output structure for the download command.
type downloadJSON struct {
	Downloaded int  `json:"downloaded"`
	Failed     int  `json:"failed"`
	Total      int  `json:"total"`
	Success    bool `json:"success"`
	Cancelled  bool `json:"cancelled,omitempty"`
}

// statsPrinter reports the recomputed coverage once the batch ends.
type statsPrinter struct{ quiet bool }

func (p statsPrinter) OnStats(stats domain.CacheStats) {
	if p.quiet {
		return
	}
	fmt.Printf("Cached %d/%d (%d%%)\n", stats.CachedCount, stats.TotalCount, stats.Percentage)
}

// Execute implements the go-flags Commander interface for DownloadCommand.
func (c *DownloadCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *DownloadCommand) run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	var result domain.DownloadResult
	switch {
	case !c.globals.JSON && !c.Plain && isTerminal():
		statsCh := make(chan domain.CacheStats, 1)
		a.downloader.Subscribe(tui.NewChannelObserver(statsCh))
		result, err = tui.RunDownload(ctx, a.downloader, catalog)
		select {
		case stats := <-statsCh:
			statsPrinter{}.OnStats(stats)
		default:
		}
	default:
		a.downloader.Subscribe(statsPrinter{quiet: c.globals.JSON})
		result, err = a.downloader.DownloadAll(ctx, catalog, c.plainProgress())
	}

	cancelled := errors.Is(err, context.Canceled)
	if err != nil && !cancelled {
		return fmt.Errorf("download: %w", err)
	}

	if c.globals.JSON {
		if err := printJSON(downloadJSON{
			Downloaded: result.Downloaded,
			Failed:     result.Failed,
			Total:      result.Total,
			Success:    result.Success() && !cancelled,
			Cancelled:  cancelled,
		}); err != nil {
			return err
		}
	} else if cancelled {
		fmt.Printf("Cancelled after %d/%d\n", result.Downloaded, result.Total)
	} else {
		fmt.Printf("Downloaded %d/%d, %d failed\n", result.Downloaded, result.Total, result.Failed)
	}

	if cancelled {
		return context.Canceled
	}
	if !result.Success() {
		return fmt.Errorf("%d of %d books failed to download", result.Failed, result.Total)
	}
	return nil
}

// plainProgress prints one line per unit, or nothing in JSON mode.
func (c *DownloadCommand) plainProgress() domain.ProgressFunc {
	if c.globals.JSON {
		return nil
	}
	return func(done, total int) {
		fmt.Printf("downloaded %d/%d\n", done, total)
	}
}
