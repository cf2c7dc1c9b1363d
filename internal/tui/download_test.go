package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/lectio/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDownloader reports one progress call per catalog entry.
type fakeDownloader struct {
	failed map[string]bool
}

func (f fakeDownloader) DownloadAll(ctx context.Context, catalog domain.Catalog, onProgress domain.ProgressFunc) (domain.DownloadResult, error) {
	result := domain.DownloadResult{Total: len(catalog)}
	for _, entry := range catalog {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if f.failed[entry.UnitID] {
			result.Failed++
		} else {
			result.Downloaded++
		}
		onProgress(result.Downloaded, result.Total)
	}
	return result, nil
}

func testCatalog() domain.Catalog {
	return domain.Catalog{{UnitID: "GEN"}, {UnitID: "EXO"}, {UnitID: "LEV"}}
}

func TestDownloadCmd_StreamsUntilFinished(t *testing.T) {
	cmd := DownloadCmd(context.Background(), fakeDownloader{failed: map[string]bool{"EXO": true}}, testCatalog())

	var seen []int
	var last DownloadProgressMsg
	for cmd != nil {
		msg, ok := cmd().(DownloadProgressMsg)
		require.True(t, ok)
		last = msg
		if msg.Finished {
			break
		}
		seen = append(seen, msg.Downloaded)
		cmd = msg.NextCmd
	}

	assert.Equal(t, []int{1, 1, 2}, seen)
	assert.True(t, last.Finished)
	assert.NoError(t, last.Err)
	assert.Nil(t, last.NextCmd)
	assert.Equal(t, domain.DownloadResult{Downloaded: 2, Failed: 1, Total: 3}, last.Result)
}

func TestDownloadModel_Progress(t *testing.T) {
	m := NewDownloadModel(context.Background(), fakeDownloader{}, testCatalog())
	assert.Contains(t, m.View(), "0/3")

	updated, cmd := m.Update(DownloadProgressMsg{Downloaded: 2, Total: 3})
	m = updated.(DownloadModel)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "2/3")
	assert.InDelta(t, 2.0/3.0, m.percent(), 0.001)
}

func TestDownloadModel_FinishQuits(t *testing.T) {
	m := NewDownloadModel(context.Background(), fakeDownloader{}, testCatalog())
	result := domain.DownloadResult{Downloaded: 3, Total: 3}

	updated, cmd := m.Update(DownloadProgressMsg{Downloaded: 3, Total: 3, Finished: true, Result: result})
	m = updated.(DownloadModel)

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	got, err := m.Result()
	require.NoError(t, err)
	assert.Equal(t, result, got)
	assert.Contains(t, m.View(), "Downloaded 3/3")
}

func TestDownloadModel_CancelKey(t *testing.T) {
	m := NewDownloadModel(context.Background(), fakeDownloader{}, testCatalog())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	m = updated.(DownloadModel)

	assert.True(t, m.cancelling)
	assert.ErrorIs(t, m.ctx.Err(), context.Canceled)
	assert.Contains(t, m.View(), "Cancelling")

	updated, _ = m.Update(DownloadProgressMsg{Finished: true, Err: context.Canceled, Result: domain.DownloadResult{Downloaded: 1, Total: 3}})
	m = updated.(DownloadModel)
	assert.Contains(t, m.View(), "Cancelled after 1/3")
}
