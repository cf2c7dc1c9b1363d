package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/lectio/internal/domain"
	"github.com/mmcdole/lectio/internal/tui/styles"
)

const (
	barPadding  = 4
	barMaxWidth = 60
)

// DownloadModel shows a spinner and progress bar while the catalog downloads.
type DownloadModel struct {
	keys    KeyMap
	spinner spinner.Model
	bar     progress.Model

	ctx    context.Context
	cancel context.CancelFunc
	start  tea.Cmd

	downloaded int
	total      int
	finished   bool
	cancelling bool
	result     domain.DownloadResult
	err        error
}

// NewDownloadModel prepares a view that downloads catalog through d once started.
func NewDownloadModel(ctx context.Context, d Downloader, catalog domain.Catalog) DownloadModel {
	ctx, cancel := context.WithCancel(ctx)
	return DownloadModel{
		keys: DefaultKeyMap(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.SpinnerStyle),
		),
		bar: progress.New(
			progress.WithGradient(styles.ProgressStart, styles.ProgressEnd),
			progress.WithWidth(40),
		),
		ctx:    ctx,
		cancel: cancel,
		start:  DownloadCmd(ctx, d, catalog),
		total:  len(catalog),
	}
}

func (m DownloadModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

func (m DownloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.finished {
			// The final progress message quits once the downloader stops
			m.cancelling = true
			m.cancel()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-barPadding, barMaxWidth)
		return m, nil

	case DownloadProgressMsg:
		m.downloaded = msg.Downloaded
		if msg.Total > 0 {
			m.total = msg.Total
		}
		if msg.Finished {
			m.finished = true
			m.result = msg.Result
			m.err = msg.Err
			m.cancel()
			return m, tea.Quit
		}
		return m, tea.Batch(m.bar.SetPercent(m.percent()), msg.NextCmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		updated, cmd := m.bar.Update(msg)
		m.bar = updated.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m DownloadModel) View() string {
	if m.finished {
		return m.summary() + "\n"
	}

	var b strings.Builder
	status := "Downloading"
	if m.cancelling {
		status = "Cancelling"
	}
	fmt.Fprintf(&b, "%s %s %s\n",
		m.spinner.View(),
		styles.TitleStyle.Render(status),
		styles.SubtitleStyle.Render(fmt.Sprintf("%d/%d", m.downloaded, m.total)),
	)
	b.WriteString(m.bar.View())
	b.WriteString("\n")
	b.WriteString(styles.HelpKeyStyle.Render(m.keys.Cancel.Help().Key))
	b.WriteString(" ")
	b.WriteString(styles.HelpDescStyle.Render(m.keys.Cancel.Help().Desc))
	b.WriteString("\n")
	return b.String()
}

func (m DownloadModel) summary() string {
	r := m.result
	switch {
	case errors.Is(m.err, context.Canceled):
		return fmt.Sprintf("%s Cancelled after %d/%d", styles.FailedMark, r.Downloaded, r.Total)
	case m.err != nil:
		return styles.ErrorStyle.Render("Download failed: " + m.err.Error())
	case r.Success():
		return fmt.Sprintf("%s Downloaded %d/%d", styles.CachedMark, r.Downloaded, r.Total)
	default:
		return fmt.Sprintf("%s Downloaded %d/%d, %s", styles.FailedMark, r.Downloaded, r.Total,
			styles.ErrorStyle.Render(fmt.Sprintf("%d failed", r.Failed)))
	}
}

func (m DownloadModel) percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.downloaded) / float64(m.total)
}

// Result returns the outcome once the program has exited.
func (m DownloadModel) Result() (domain.DownloadResult, error) {
	return m.result, m.err
}

// RunDownload runs the download view on the terminal and returns the outcome.
func RunDownload(ctx context.Context, d Downloader, catalog domain.Catalog, opts ...tea.ProgramOption) (domain.DownloadResult, error) {
	final, err := tea.NewProgram(NewDownloadModel(ctx, d, catalog), opts...).Run()
	if err != nil {
		return domain.DownloadResult{}, fmt.Errorf("download view: %w", err)
	}
	return final.(DownloadModel).Result()
}
