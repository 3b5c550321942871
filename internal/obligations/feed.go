package obligations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxFeedBytes = 5 << 20

var ErrFeedNotConfigured = errors.New("obligation feed URL is not configured")

// FeedFetcher downloads a catalog published as
// {"source": "...", "obligations": [Entry, ...]}.
type FeedFetcher struct {
	url    string
	client *http.Client
}

func NewFeedFetcher(url string, client *http.Client) *FeedFetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &FeedFetcher{url: url, client: client}
}

type feedDocument struct {
	Source      string  `json:"source"`
	Obligations []Entry `json:"obligations"`
}

// Fetch returns the feed entries and the source label it reports.
func (f *FeedFetcher) Fetch(ctx context.Context) ([]Entry, string, error) {
	if f == nil || f.url == "" {
		return nil, "", ErrFeedNotConfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch obligation feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch obligation feed: unexpected status %d", resp.StatusCode)
	}

	var doc feedDocument
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&doc); err != nil {
		return nil, "", fmt.Errorf("decode obligation feed: %w", err)
	}
	source := doc.Source
	if source == "" {
		source = f.url
	}
	return doc.Obligations, source, nil
}
