package cli

import (
	"context"
	"fmt"
)

// Execute implements the go-flags Commander interface for WhereCommand.
func (c *WhereCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *WhereCommand) run(a *app) error {
	ctx := context.Background()

	rec, ok, err := a.tracker.Restore(ctx)
	if err != nil {
		return fmt.Errorf("read progress: %w", err)
	}
	if !ok {
		if c.globals.JSON {
			return printJSON(map[string]any{"position": nil})
		}
		fmt.Println("No reading position saved.")
		return nil
	}

	// Names are a nicety; an unreachable catalog still shows indices
	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		a.logger.Warn("catalog unavailable for position names", "error", err)
	}

	pos := newPositionJSON(rec, catalog)
	if c.globals.JSON {
		return printJSON(map[string]any{"position": pos})
	}
	fmt.Println(describePosition(pos))
	return nil
}
