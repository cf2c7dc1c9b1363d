package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmcdole/lectio/internal/domain"
	"github.com/mmcdole/lectio/internal/progress"
	"github.com/mmcdole/lectio/internal/search"
	"github.com/mmcdole/lectio/internal/tui/styles"
)

// readJSON is the JSON output structure for the read command.
type readJSON struct {
	positionJSON
	Verses  []string `json:"verses"`
	Resumed bool     `json:"resumed"`
}

// Execute implements the go-flags Commander interface for ReadCommand.
func (c *ReadCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *ReadCommand) run(a *app) error {
	ctx := context.Background()

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	bookIdx, chapterIdx, resumed, err := c.target(ctx, a, catalog)
	if err != nil {
		return err
	}
	entry := catalog[bookIdx]

	unit, err := a.coord.Resolve(ctx, entry.UnitID)
	if err != nil {
		return err
	}
	verses, ok := unit.Chapter(chapterIdx)
	if !ok {
		return fmt.Errorf("%s has %d chapters", unit.Title(), unit.ChapterCount())
	}

	if !resumed {
		a.tracker.RecordNavigation(ctx, bookIdx, chapterIdx)
	}
	offset, _ := a.tracker.RestoreScrollFor(bookIdx, chapterIdx)
	if c.Scroll >= 0 {
		a.tracker.RecordScroll(bookIdx, chapterIdx, c.Scroll)
		offset = a.tracker.Positions().Get(progress.Position{Book: bookIdx, Chapter: chapterIdx})
	}

	rec := &domain.ProgressRecord{BookIndex: bookIdx, ChapterIndex: chapterIdx, ScrollOffset: offset}
	out := readJSON{
		positionJSON: newPositionJSON(rec, catalog),
		Verses:       verses,
		Resumed:      resumed,
	}

	if c.globals.JSON {
		return printJSON(out)
	}

	fmt.Println(styles.TitleStyle.Render(fmt.Sprintf("%s %d", unit.Title(), chapterIdx+1)))
	if resumed && offset > 0 {
		fmt.Println(styles.DimStyle.Render(fmt.Sprintf("resuming at scroll %.0f", offset)))
	}
	fmt.Println()
	for i, verse := range verses {
		fmt.Printf("%s %s\n", styles.DimStyle.Render(fmt.Sprintf("%3d", i+1)), verse)
	}
	return nil
}

// target picks the chapter to read: the named book and chapter, or the saved
// position when no book is given.
func (c *ReadCommand) target(ctx context.Context, a *app, catalog domain.Catalog) (book, chapter int, resumed bool, err error) {
	if c.Args.Book == "" {
		rec, ok, err := a.tracker.Restore(ctx)
		if err != nil {
			return 0, 0, false, fmt.Errorf("read progress: %w", err)
		}
		if !ok {
			return 0, 0, false, errors.New("no saved position; name a book to start reading")
		}
		if rec.BookIndex < 0 || rec.BookIndex >= len(catalog) {
			return 0, 0, false, fmt.Errorf("saved position book #%d is not in the catalog", rec.BookIndex+1)
		}
		return rec.BookIndex, rec.ChapterIndex, true, nil
	}

	match, err := search.NewIndex(catalog, a.logger).Lookup(c.Args.Book)
	if err != nil {
		if errors.Is(err, domain.ErrUnitNotFound) {
			return 0, 0, false, fmt.Errorf("no book matches %q", c.Args.Book)
		}
		return 0, 0, false, err
	}

	chapter = c.Args.Chapter
	if chapter <= 0 {
		chapter = 1
	}
	return match.Position, chapter - 1, false, nil
}
