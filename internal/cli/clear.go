package cli

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Execute implements the go-flags Commander interface for ClearCommand.
func (c *ClearCommand) Execute(args []string) error {
	return c.execute(os.Stdin)
}

// execute runs clear reading confirmation from in (for testing).
func (c *ClearCommand) execute(in io.Reader) error {
	if !c.Yes {
		what := "every cached book"
		if c.Reset {
			what = "the whole database, including reading position and preferences"
		}
		fmt.Printf("This will delete %s.\n", what)
		if err := confirm(in, `Type "yes" to confirm: `, "yes"); err != nil {
			return err
		}
	}

	return withApp(c.globals, c.run)
}

func (c *ClearCommand) run(a *app) error {
	ctx := context.Background()

	if c.Reset {
		if err := a.store.Reset(); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		if c.globals.JSON {
			return printJSON(map[string]any{"reset": true})
		}
		fmt.Println("Database deleted.")
		return nil
	}

	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}
	if err := a.downloader.ClearAll(ctx, catalog); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}

	stats, err := a.coord.ComputeStats(ctx, catalog)
	if err != nil {
		return fmt.Errorf("compute stats: %w", err)
	}

	if c.globals.JSON {
		return printJSON(map[string]any{
			"cleared": len(catalog) - stats.CachedCount,
			"cached":  stats.CachedCount,
			"total":   stats.TotalCount,
		})
	}
	fmt.Printf("Cleared cache. %d/%d books remain cached.\n", stats.CachedCount, stats.TotalCount)
	return nil
}
