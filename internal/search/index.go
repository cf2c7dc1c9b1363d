package search

import (
	"log/slog"
	"sort"
	"strings"

	fuzzysearch "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/lectio/internal/domain"
	"github.com/sahilm/fuzzy"
)

// MatchField says which part of an entry a query matched.
type MatchField string

const (
	FieldID   MatchField = "id"
	FieldName MatchField = "name"
)

// Result is one ranked catalog match.
type Result struct {
	Entry          domain.CatalogEntry
	Position       int // index in the catalog
	Field          MatchField
	MatchedIndexes []int // rune positions in the display name, for highlighting
	Score          int
}

// Index implements sahilm/fuzzy.Source over catalog display names
type Index struct {
	entries    []domain.CatalogEntry
	lowerNames []string
	ids        []string
	logger     *slog.Logger
}

// String returns the lowercase display name at i (implements fuzzy.Source)
func (idx *Index) String(i int) string { return idx.lowerNames[i] }

// Len returns the number of entries (implements fuzzy.Source)
func (idx *Index) Len() int { return len(idx.entries) }

// NewIndex builds a lookup index. Names are lowercased once here.
func NewIndex(catalog domain.Catalog, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	idx := &Index{
		entries:    make([]domain.CatalogEntry, len(catalog)),
		lowerNames: make([]string, len(catalog)),
		ids:        make([]string, len(catalog)),
		logger:     logger,
	}
	for i, entry := range catalog {
		idx.entries[i] = entry
		idx.lowerNames[i] = strings.ToLower(entry.DisplayName)
		idx.ids[i] = entry.UnitID
	}
	return idx
}

// Find ranks catalog entries for query: exact unit id first, then fuzzy
// display name matches, then fuzzy unit id matches. Each entry appears once.
func (idx *Index) Find(query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" || idx.Len() == 0 {
		return nil
	}

	var results []Result
	seen := make(map[int]bool)
	add := func(r Result) {
		if seen[r.Position] {
			return
		}
		seen[r.Position] = true
		results = append(results, r)
	}

	for i, id := range idx.ids {
		if strings.EqualFold(id, query) {
			add(Result{Entry: idx.entries[i], Position: i, Field: FieldID})
		}
	}

	// Already sorted best-first
	for _, m := range fuzzy.FindFrom(strings.ToLower(query), idx) {
		add(Result{
			Entry:          idx.entries[m.Index],
			Position:       m.Index,
			Field:          FieldName,
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
	}

	ranks := fuzzysearch.RankFindNormalizedFold(query, idx.ids)
	sort.Stable(ranks)
	for _, r := range ranks {
		add(Result{
			Entry:    idx.entries[r.OriginalIndex],
			Position: r.OriginalIndex,
			Field:    FieldID,
			Score:    -r.Distance,
		})
	}

	idx.logger.Debug("catalog search", "query", query, "results", len(results))
	return results
}

// Lookup returns the best match for query, or domain.ErrUnitNotFound.
func (idx *Index) Lookup(query string) (Result, error) {
	results := idx.Find(query)
	if len(results) == 0 {
		return Result{}, domain.ErrUnitNotFound
	}
	return results[0], nil
}
