package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status   *StatusCommand
	Download *DownloadCommand
	Clear    *ClearCommand
	Read     *ReadCommand
	Where    *WhereCommand
	Find     *FindCommand
	Forget   *ForgetCommand
	Prefs    *PrefsCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "lectio"
	parser.LongDescription = "Offline-capable scripture reader: cache the catalog locally and keep your place."

	cmds := &commands{
		Status:   &StatusCommand{globals: &globals, version: version},
		Download: &DownloadCommand{globals: &globals, version: version},
		Clear:    &ClearCommand{globals: &globals, version: version},
		Read:     &ReadCommand{globals: &globals, version: version},
		Where:    &WhereCommand{globals: &globals, version: version},
		Find:     &FindCommand{globals: &globals, version: version},
		Forget:   &ForgetCommand{globals: &globals, version: version},
		Prefs:    &PrefsCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Show cache coverage", "Show how much of the catalog is cached and the saved reading position.", cmds.Status)
	parser.AddCommand("download", "Download every book", "Download every book in the catalog for offline reading.", cmds.Download)
	parser.AddCommand("clear", "Delete cached books", "Delete every cached book. Reading position and preferences are kept unless --reset.", cmds.Clear)
	parser.AddCommand("read", "Print a chapter", "Print a chapter and record it as the current reading position.", cmds.Read)
	parser.AddCommand("where", "Show the reading position", "Show the saved reading position.", cmds.Where)
	parser.AddCommand("find", "Search the catalog", "Fuzzy search books by name or id.", cmds.Find)
	parser.AddCommand("forget", "Clear the reading position", "Clear the saved reading position.", cmds.Forget)
	parser.AddCommand("prefs", "Show or set preferences", "Show the display preferences, or set keys with key=value.", cmds.Prefs)

	return parser, &globals, cmds
}

// Run is the main entry point for the lectio CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("lectio %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
