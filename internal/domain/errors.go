package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrUnitNotFound indicates no catalog entry matches a lookup
	ErrUnitNotFound = errors.New("unit not found in catalog")

	// ErrDownloadInProgress indicates a bulk download is already running
	ErrDownloadInProgress = errors.New("download already in progress")

	// ErrCatalogUnavailable indicates the catalog could not be fetched and no copy is stored
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// StoreError reports a local persistence failure. Not retried by the core.
type StoreError struct {
	Op         string
	Collection string
	Key        string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("store %s %s/%s: %v", e.Op, e.Collection, e.Key, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NetworkError reports a failed or non-success remote request.
// Status is 0 when no response was received.
type NetworkError struct {
	Status int
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request %s: unexpected status %d", e.URL, e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a malformed payload from the remote source.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnitLoadError is the coordinator's single failure signal for one unit.
type UnitLoadError struct {
	UnitID string
	Cause  error
}

func (e *UnitLoadError) Error() string {
	return fmt.Sprintf("load unit %s: %v", e.UnitID, e.Cause)
}

func (e *UnitLoadError) Unwrap() error { return e.Cause }
