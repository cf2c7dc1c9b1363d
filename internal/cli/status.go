package cli

import (
	"context"
	"fmt"

	"github.com/mmcdole/lectio/internal/domain"
	"github.com/mmcdole/lectio/internal/tui/styles"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version    string        `json:"version"`
	Source     string        `json:"source"`
	Database   string        `json:"database"`
	Schema     uint64        `json:"schema"`
	Stored     int           `json:"stored"`
	Cached     int           `json:"cached"`
	Total      int           `json:"total"`
	Percentage int           `json:"percentage"`
	Position   *positionJSON `json:"position,omitempty"`
	Books      []bookJSON    `json:"books,omitempty"`
}

type bookJSON struct {
	UnitID      string `json:"unitId"`
	DisplayName string `json:"displayName"`
	Cached      bool   `json:"cached"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *StatusCommand) run(a *app) error {
	ctx := context.Background()

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	stats, err := a.coord.ComputeStats(ctx, catalog)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	out := statusJSON{
		Version:    c.version,
		Source:     a.cfg.Source.URL,
		Database:   a.store.Path(),
		Cached:     stats.CachedCount,
		Total:      stats.TotalCount,
		Percentage: stats.Percentage,
	}

	out.Schema, err = a.store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	ids, err := a.store.UnitIDs(ctx)
	if err != nil {
		return fmt.Errorf("list stored books: %w", err)
	}
	out.Stored = len(ids)

	rec, ok, err := a.tracker.Restore(ctx)
	if err != nil {
		return fmt.Errorf("read progress: %w", err)
	}
	if ok {
		pos := newPositionJSON(rec, catalog)
		out.Position = &pos
	}

	if c.Books {
		out.Books, err = bookStates(ctx, a, catalog)
		if err != nil {
			return err
		}
	}

	if c.globals.JSON {
		return printJSON(out)
	}
	c.printHuman(out)
	return nil
}

func bookStates(ctx context.Context, a *app, catalog domain.Catalog) ([]bookJSON, error) {
	books := make([]bookJSON, len(catalog))
	for i, entry := range catalog {
		cached, err := a.store.HasUnit(ctx, entry.UnitID)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", entry.UnitID, err)
		}
		books[i] = bookJSON{UnitID: entry.UnitID, DisplayName: entry.DisplayName, Cached: cached}
	}
	return books, nil
}

func (c *StatusCommand) printHuman(out statusJSON) {
	fmt.Println(styles.TitleStyle.Render("Lectio Status"))
	fmt.Println("=============")
	fmt.Printf("Version:   %s\n", out.Version)
	fmt.Printf("Source:    %s\n", out.Source)
	if out.Database == "" {
		fmt.Println("Database:  in memory")
	} else {
		fmt.Printf("Database:  %s (schema v%d)\n", out.Database, out.Schema)
	}
	fmt.Printf("Cached:    %d/%d (%d%%)\n", out.Cached, out.Total, out.Percentage)
	if extra := out.Stored - out.Cached; extra > 0 {
		fmt.Printf("Stored:    %d more not in the catalog\n", extra)
	}

	if out.Position != nil {
		fmt.Printf("Reading:   %s\n", describePosition(*out.Position))
	} else {
		fmt.Println("Reading:   no saved position")
	}

	if len(out.Books) > 0 {
		fmt.Println()
		for _, b := range out.Books {
			mark := styles.MissingMark
			if b.Cached {
				mark = styles.CachedMark
			}
			fmt.Printf("  %s %-6s %s\n", mark, b.UnitID, b.DisplayName)
		}
	}
}
