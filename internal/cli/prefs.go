package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Execute implements the go-flags Commander interface for PrefsCommand.
func (c *PrefsCommand) Execute(args []string) error {
	return withApp(c.globals, c.run)
}

func (c *PrefsCommand) run(a *app) error {
	ctx := context.Background()

	raw, ok, err := a.store.GetPreferences(ctx)
	if err != nil {
		return fmt.Errorf("read preferences: %w", err)
	}
	if !ok {
		raw = a.cfg.DefaultPreferences()
	}

	prefs := make(map[string]any)
	if err := json.Unmarshal(raw, &prefs); err != nil {
		return fmt.Errorf("stored preferences are not an object: %w", err)
	}

	if len(c.Args.Pairs) > 0 {
		if err := mergePairs(prefs, c.Args.Pairs); err != nil {
			return err
		}
		data, err := json.Marshal(prefs)
		if err != nil {
			return fmt.Errorf("encode preferences: %w", err)
		}
		if err := a.store.SavePreferences(ctx, data); err != nil {
			return fmt.Errorf("save preferences: %w", err)
		}
	}

	if c.globals.JSON {
		return printJSON(prefs)
	}

	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%-12s %v\n", k+":", prefs[k])
	}
	return nil
}

// mergePairs applies key=value pairs. Values that parse as JSON keep their
// type (20, true); anything else is a string.
func mergePairs(prefs map[string]any, pairs []string) error {
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return fmt.Errorf("expected key=value, got %q", pair)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			decoded = value
		}
		prefs[key] = decoded
	}
	return nil
}
