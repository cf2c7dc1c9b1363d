package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/lectio/internal/domain"
)

// DownloadProgressMsg is sent after every unit of a bulk download, and once
// more with Finished set when the run ends.
type DownloadProgressMsg struct {
	Downloaded int
	Total      int
	Finished   bool
	Result     domain.DownloadResult
	Err        error
	NextCmd    tea.Cmd // Continuation command for streaming
}
