package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public TheCatAPI endpoint.
const DefaultBaseURL = "https://api.thecatapi.com/v1"

// APIConfig holds configuration for the remote catalog API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	APIKey  string        `yaml:"api_key" env:"KEY"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// NewAPIDefaults provides a config with sensible defaults.
func NewAPIDefaults() *APIConfig {
	return &APIConfig{
		BaseURL: DefaultBaseURL,
		Timeout: 10 * time.Second,
	}
}

// APIClient talks to the read-only breed API.
type APIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewAPIClient creates an APIClient. A nil httpClient gets a client with the
// configured timeout.
func NewAPIClient(cfg *APIConfig, httpClient *http.Client, logger zerolog.Logger) (*APIClient, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("catalog api base url cannot be empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog api base url %q: %w", cfg.BaseURL, err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &APIClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "APIClient").Logger(),
	}, nil
}

// ListBreeds fetches the full breed list.
func (c *APIClient) ListBreeds(ctx context.Context) ([]Breed, error) {
	var breeds []Breed
	if err := c.getJSON(ctx, c.baseURL+"/breeds", &breeds); err != nil {
		return nil, err
	}
	return breeds, nil
}

// Fetch satisfies Source by listing all breeds.
func (c *APIClient) Fetch(ctx context.Context) ([]Breed, error) {
	return c.ListBreeds(ctx)
}

// GetBreed fetches a single breed's details. Detail reads are not cached.
func (c *APIClient) GetBreed(ctx context.Context, id string) (Breed, error) {
	var breed Breed
	if err := c.getJSON(ctx, c.baseURL+"/breeds/"+url.PathEscape(id), &breed); err != nil {
		return Breed{}, err
	}
	return breed, nil
}

// SearchImages returns up to limit images of the given breed.
func (c *APIClient) SearchImages(ctx context.Context, breedID string, limit int) ([]Image, error) {
	q := url.Values{}
	q.Set("breed_ids", breedID)
	q.Set("limit", strconv.Itoa(limit))

	var images []Image
	if err := c.getJSON(ctx, c.baseURL+"/images/search?"+q.Encode(), &images); err != nil {
		return nil, err
	}
	return images, nil
}

// getJSON performs one GET and decodes the body into out. Every failure,
// including an undecodable body, is reported as ErrFetchFailed.
func (c *APIClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", rawURL).Msg("Catalog request failed.")
		return fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.Warn().Int("status", resp.StatusCode).Str("url", rawURL).Msg("Catalog request returned non-success status.")
		return &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Warn().Err(err).Str("url", rawURL).Msg("Failed to decode catalog response.")
		return fmt.Errorf("%w: decode %s: %w", ErrFetchFailed, rawURL, err)
	}
	c.logger.Debug().Str("url", rawURL).Msg("Catalog request succeeded.")
	return nil
}
