package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/lectio/internal/search"
	"github.com/mmcdole/lectio/internal/tui/styles"
)

type findJSON struct {
	UnitID      string `json:"unitId"`
	DisplayName string `json:"displayName"`
	Book        int    `json:"book"`
	Match       string `json:"match"`
	Cached      bool   `json:"cached"`
}

// Execute implements the go-flags Commander interface for FindCommand.
func (c *FindCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *FindCommand) run(a *app) error {
	ctx := context.Background()

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}

	query := strings.Join(c.Args.Query, " ")
	results := search.NewIndex(catalog, a.logger).Find(query)
	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}

	out := make([]findJSON, len(results))
	for i, r := range results {
		cached, err := a.store.HasUnit(ctx, r.Entry.UnitID)
		if err != nil {
			return fmt.Errorf("check %s: %w", r.Entry.UnitID, err)
		}
		out[i] = findJSON{
			UnitID:      r.Entry.UnitID,
			DisplayName: r.Entry.DisplayName,
			Book:        r.Position + 1,
			Match:       string(r.Field),
			Cached:      cached,
		}
	}

	if c.globals.JSON {
		return printJSON(out)
	}

	if len(results) == 0 {
		fmt.Printf("No books match %q.\n", query)
		return nil
	}
	for i, r := range results {
		mark := styles.MissingMark
		if out[i].Cached {
			mark = styles.CachedMark
		}
		fmt.Printf("%s %-6s %s\n", mark, r.Entry.UnitID, styles.Highlight(r.Entry.DisplayName, r.MatchedIndexes))
	}
	return nil
}
