package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProgressID is the fixed key of the single reading position record.
const ProgressID = "current"

// ContentUnit is the full text of one book: chapters of verses.
// Verse n of chapter c lives at Chapters[c][n-1].
type ContentUnit struct {
	UnitID      string     `json:"unitId"`
	DisplayName string     `json:"displayName,omitempty"`
	Chapters    [][]string `json:"chapters"`
}

// Chapter returns the verses of chapter index i.
func (u *ContentUnit) Chapter(i int) ([]string, bool) {
	if u == nil || i < 0 || i >= len(u.Chapters) {
		return nil, false
	}
	return u.Chapters[i], true
}

// ChapterCount returns the number of chapters in the unit.
func (u *ContentUnit) ChapterCount() int {
	if u == nil {
		return 0
	}
	return len(u.Chapters)
}

// Title returns the display name, falling back to the unit ID.
func (u *ContentUnit) Title() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.UnitID
}

// CatalogEntry names one unit of the catalog.
type CatalogEntry struct {
	UnitID      string
	DisplayName string
}

// MarshalJSON encodes the entry as a [unitId, displayName] pair.
func (e CatalogEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.UnitID, e.DisplayName})
}

// UnmarshalJSON decodes a [unitId, displayName] pair.
func (e *CatalogEntry) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 || pair[0] == "" {
		return fmt.Errorf("catalog entry must be [unitId, displayName], got %d fields", len(pair))
	}
	e.UnitID = pair[0]
	e.DisplayName = pair[1]
	return nil
}

// Catalog is the ordered list of all units. Read-only for a session.
type Catalog []CatalogEntry

// Index returns the position of unitID in the catalog, or -1.
func (c Catalog) Index(unitID string) int {
	for i, e := range c {
		if e.UnitID == unitID {
			return i
		}
	}
	return -1
}

// Names returns a unitID -> displayName map.
func (c Catalog) Names() map[string]string {
	names := make(map[string]string, len(c))
	for _, e := range c {
		names[e.UnitID] = e.DisplayName
	}
	return names
}

// ProgressRecord is the persisted current reading position.
type ProgressRecord struct {
	ID           string    `json:"id"`
	BookIndex    int       `json:"bookIndex"`
	ChapterIndex int       `json:"chapterIndex"`
	ScrollOffset float64   `json:"scrollOffset"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CacheStats summarizes catalog coverage of the local store. Never persisted.
type CacheStats struct {
	CachedCount int `json:"cached"`
	TotalCount  int `json:"total"`
	Percentage  int `json:"percentage"`
}

// Preferences is the opaque UI settings blob (font size, family, dark mode).
// The core stores it as-is.
type Preferences = json.RawMessage
