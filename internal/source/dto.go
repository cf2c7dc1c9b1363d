package source

import "encoding/json"

// ManifestResponse is the catalog manifest: {"books": [[unitId, displayName], ...]}
type ManifestResponse struct {
	Books []json.RawMessage `json:"books"`
}

// UnitResponse is one unit payload: {"chapters": [[verse, ...], ...]}
type UnitResponse struct {
	Chapters [][]string `json:"chapters"`
}
