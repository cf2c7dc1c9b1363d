package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/lectio/internal/domain"
	"golang.org/x/term"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// confirm prints prompt and reads one line from in; only want (case-insensitive) confirms.
func confirm(in io.Reader, prompt, want string) error {
	fmt.Print(prompt)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	if !strings.EqualFold(strings.TrimSpace(scanner.Text()), want) {
		return fmt.Errorf("aborted: confirmation text did not match")
	}
	return nil
}

// positionJSON is a reading position as printed by read/where/status.
type positionJSON struct {
	UnitID       string  `json:"unitId,omitempty"`
	DisplayName  string  `json:"displayName,omitempty"`
	BookIndex    int     `json:"bookIndex"`
	ChapterIndex int     `json:"chapterIndex"`
	Chapter      int     `json:"chapter"`
	ScrollOffset float64 `json:"scrollOffset"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

func newPositionJSON(rec *domain.ProgressRecord, catalog domain.Catalog) positionJSON {
	out := positionJSON{
		BookIndex:    rec.BookIndex,
		ChapterIndex: rec.ChapterIndex,
		Chapter:      rec.ChapterIndex + 1,
		ScrollOffset: rec.ScrollOffset,
	}
	if !rec.UpdatedAt.IsZero() {
		out.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
	}
	if rec.BookIndex >= 0 && rec.BookIndex < len(catalog) {
		out.UnitID = catalog[rec.BookIndex].UnitID
		out.DisplayName = catalog[rec.BookIndex].DisplayName
	}
	return out
}

// describePosition renders a position for humans, e.g. "Genesis 3 (scroll 120)".
func describePosition(p positionJSON) string {
	name := p.DisplayName
	if name == "" {
		name = p.UnitID
	}
	if name == "" {
		name = fmt.Sprintf("book #%d", p.BookIndex+1)
	}
	s := fmt.Sprintf("%s %d", name, p.Chapter)
	if p.ScrollOffset > 0 {
		s += fmt.Sprintf(" (scroll %.0f)", p.ScrollOffset)
	}
	return s
}
