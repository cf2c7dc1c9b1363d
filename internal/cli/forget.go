package cli

import (
	"context"
	"fmt"
)

// Execute implements the go-flags Commander interface for ForgetCommand.
func (c *ForgetCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *ForgetCommand) run(a *app) error {
	if err := a.tracker.Clear(context.Background()); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	if c.globals.JSON {
		return printJSON(map[string]any{"forgotten": true})
	}
	fmt.Println("Reading position cleared.")
	return nil
}
