package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config    string `long:"config" description:"Path to config file" default:""`
	JSON      bool   `long:"json" description:"Output in JSON format"`
	Ephemeral bool   `long:"ephemeral" description:"Keep the cache in memory for this run only"`
	Version   bool   `long:"version" description:"Show version and exit"`
}

// StatusCommand — show cache coverage and the saved reading position.
type StatusCommand struct {
	Books bool `long:"books" description:"List every book with its cache state"`

	globals *GlobalFlags
	version string
}

// DownloadCommand — pre-fetch the whole catalog for offline reading.
type DownloadCommand struct {
	Plain bool `long:"plain" description:"Print progress lines instead of the progress view"`

	globals *GlobalFlags
	version string
}

// ClearCommand — delete every cached book.
type ClearCommand struct {
	Yes   bool `long:"yes" short:"y" description:"Skip the confirmation prompt"`
	Reset bool `long:"reset" description:"Delete the whole database file, including progress and preferences"`

	globals *GlobalFlags
	version string
}

// ReadCommand — print a chapter and record it as the reading position.
type ReadCommand struct {
	Scroll float64 `long:"scroll" description:"Record a scroll offset within the chapter" default:"-1"`

	Args struct {
		Book    string `positional-arg-name:"book" description:"Book id or name; omit to resume"`
		Chapter int    `positional-arg-name:"chapter" description:"Chapter number (1-based)"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// WhereCommand — show the saved reading position.
type WhereCommand struct {
	globals *GlobalFlags
	version string
}

// FindCommand — fuzzy search the catalog.
type FindCommand struct {
	Limit int `long:"limit" description:"Maximum results" default:"10"`

	Args struct {
		Query []string `positional-arg-name:"query" required:"1"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}

// ForgetCommand — clear the saved reading position.
type ForgetCommand struct {
	globals *GlobalFlags
	version string
}

// PrefsCommand — show or update the stored display preferences.
type PrefsCommand struct {
	Args struct {
		Pairs []string `positional-arg-name:"key=value"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
}
