package source

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmcdole/lectio/internal/domain"
)

// MapCatalog converts manifest rows into a Catalog, rejecting malformed or duplicate rows.
func MapCatalog(resp ManifestResponse) (domain.Catalog, error) {
	if resp.Books == nil {
		return nil, &domain.ParseError{What: "catalog manifest", Err: errors.New("missing books")}
	}

	catalog := make(domain.Catalog, 0, len(resp.Books))
	seen := make(map[string]bool, len(resp.Books))
	for i, raw := range resp.Books {
		var entry domain.CatalogEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, &domain.ParseError{What: fmt.Sprintf("catalog row %d", i), Err: err}
		}
		if seen[entry.UnitID] {
			return nil, &domain.ParseError{What: fmt.Sprintf("catalog row %d", i), Err: fmt.Errorf("duplicate unit %s", entry.UnitID)}
		}
		seen[entry.UnitID] = true
		catalog = append(catalog, entry)
	}
	return catalog, nil
}

// MapUnit validates a payload and builds the ContentUnit for unitID.
func MapUnit(unitID string, resp UnitResponse) (*domain.ContentUnit, error) {
	what := "unit " + unitID
	if len(resp.Chapters) == 0 {
		return nil, &domain.ParseError{What: what, Err: errors.New("no chapters")}
	}
	for i, verses := range resp.Chapters {
		if len(verses) == 0 {
			return nil, &domain.ParseError{What: what, Err: fmt.Errorf("chapter %d has no verses", i+1)}
		}
	}
	return &domain.ContentUnit{UnitID: unitID, Chapters: resp.Chapters}, nil
}
