package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/lectio/internal/domain"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultCatalogPath = "/data/meta.json"
	defaultUnitPath    = "/data/book_{id}.json"
	unitIDPlaceholder  = "{id}"
	userAgent          = "lectio/1.0"
)

// Options configures the remote layout.
type Options struct {
	CatalogPath string // Manifest path relative to the base URL
	UnitPath    string // Unit payload path; "{id}" is replaced by the unit ID
	Timeout     time.Duration
}

// Client implements domain.ContentSource over HTTP.
// It neither caches nor retries.
type Client struct {
	baseURL     string
	catalogPath string
	unitPath    string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a content client rooted at baseURL
func NewClient(baseURL string, opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		return nil, fmt.Errorf("source URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}

	if opts.CatalogPath == "" {
		opts.CatalogPath = defaultCatalogPath
	}
	if opts.UnitPath == "" {
		opts.UnitPath = defaultUnitPath
	}
	if !strings.Contains(opts.UnitPath, unitIDPlaceholder) {
		return nil, fmt.Errorf("unit path %q must contain %s", opts.UnitPath, unitIDPlaceholder)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		catalogPath: ensureLeadingSlash(opts.CatalogPath),
		unitPath:    ensureLeadingSlash(opts.UnitPath),
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		logger: logger,
	}, nil
}

// UnitURL returns the payload URL for a unit.
func (c *Client) UnitURL(unitID string) string {
	return c.baseURL + strings.ReplaceAll(c.unitPath, unitIDPlaceholder, url.PathEscape(unitID))
}

// CatalogURL returns the manifest URL.
func (c *Client) CatalogURL() string {
	return c.baseURL + c.catalogPath
}

// FetchCatalog returns the catalog manifest
func (c *Client) FetchCatalog(ctx context.Context) (domain.Catalog, error) {
	body, err := c.doRequest(ctx, c.CatalogURL())
	if err != nil {
		return nil, err
	}

	var resp ManifestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ParseError{What: "catalog manifest", Err: err}
	}

	catalog, err := MapCatalog(resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched catalog", "count", len(catalog))
	return catalog, nil
}

// FetchUnit returns the full text of one unit
func (c *Client) FetchUnit(ctx context.Context, unitID string) (*domain.ContentUnit, error) {
	body, err := c.doRequest(ctx, c.UnitURL(unitID))
	if err != nil {
		return nil, err
	}

	var resp UnitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ParseError{What: "unit " + unitID, Err: err}
	}

	unit, err := MapUnit(unitID, resp)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched unit", "unitID", unitID, "chapters", len(unit.Chapters))
	return unit, nil
}

// doRequest performs a single GET and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.NetworkError{URL: reqURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("source request", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		c.logger.Warn("source request failed", "url", reqURL, "error", err)
		return nil, &domain.NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn("source request error", "url", reqURL, "status", resp.StatusCode)
		return nil, &domain.NetworkError{Status: resp.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Status: resp.StatusCode, URL: reqURL, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return body, nil
}

func ensureLeadingSlash(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
