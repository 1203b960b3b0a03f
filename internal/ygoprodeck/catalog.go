package ygoprodeck

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/handiism/ygo-card-downloader/internal/http"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/handiism/ygo-card-downloader/internal/ygoprodeck/dto"
)

// DefaultCatalogURL is the public cardinfo endpoint serving the full catalog.
const DefaultCatalogURL = "https://db.ygoprodeck.com/api/v7/cardinfo.php"

// Fetcher retrieves the card catalog from the upstream API.
//
// The upstream API serves the whole catalog in a single JSON response, so a
// fetch is exactly one GET request. Nothing is cached or paginated.
//
// Example usage:
//
//	client := http.NewClient(http.WithTimeout(60 * time.Second))
//	fetcher := NewFetcher(client, DefaultCatalogURL, log)
//
//	cards, err := fetcher.FetchCatalog(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("catalog has %d cards\n", len(cards))
type Fetcher struct {
	client *http.Client
	url    string
	log    *slog.Logger
}

// NewFetcher creates a new Fetcher for the given endpoint.
//
// An empty url selects DefaultCatalogURL.
func NewFetcher(client *http.Client, url string, log *slog.Logger) *Fetcher {
	if url == "" {
		url = DefaultCatalogURL
	}
	return &Fetcher{
		client: client,
		url:    url,
		log:    log.With(slog.String("component", "catalog")),
	}
}

// URL returns the catalog endpoint.
func (f *Fetcher) URL() string {
	return f.url
}

// FetchCatalog downloads and decodes the full catalog.
//
// Cards are returned in the order served, without filtering.
//
// Returns a KindNetwork *model.Error if:
//   - The request fails, times out or answers with a non-2xx status
//   - The body is not valid JSON or has no "data" field
//
// No partial result is returned on failure.
func (f *Fetcher) FetchCatalog(ctx context.Context) ([]model.Card, error) {
	start := time.Now()
	f.log.Info("Fetching card catalog", slog.String("url", f.url))

	body, err := f.client.Get(ctx, f.url)
	if err != nil {
		f.log.Error("Cannot fetch card catalog", slog.String("url", f.url), slog.Any("error", err))
		return nil, model.NewError(model.KindNetwork, "fetch catalog", f.url, err)
	}

	cards, err := ParseCatalog(body)
	if err != nil {
		f.log.Error("Cannot decode card catalog", slog.String("url", f.url), slog.Any("error", err))
		return nil, model.NewError(model.KindNetwork, "decode catalog", f.url, err)
	}

	f.log.Info("Fetched card catalog",
		slog.Int("cards", len(cards)),
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)))

	return cards, nil
}

// ParseCatalog decodes a cardinfo response body into cards.
func ParseCatalog(body []byte) ([]model.Card, error) {
	var resp dto.CatalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}
	return resp.Cards()
}
