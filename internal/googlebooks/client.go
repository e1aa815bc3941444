// Package googlebooks is a thin client for the Google Books volumes
// search API. Only the top-ranked result of a query is consumed.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clubshelf/clubshelf/internal/books"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1/volumes"

// maxDescriptionRunes caps long-form descriptions in the output catalog.
const maxDescriptionRunes = 300

// Client queries the Google Books volumes endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	httpClient *http.Client
}

// NewClient creates a client with the given API key. An empty key is
// allowed; the API then applies its anonymous quota.
func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: defaultBaseURL,
		APIKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search looks up the top-ranked volume for a free-text query. A nil
// result with nil error means the catalog has no match for the query;
// callers may cache that as a permanent miss.
func (c *Client) Search(ctx context.Context, query string) (*books.EnrichedMetadata, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", "1")
	params.Set("printType", "books")
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build volumes request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query Google Books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Google Books API returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp struct {
		Items []struct {
			ID         string `json:"id"`
			VolumeInfo struct {
				Title         string   `json:"title"`
				Authors       []string `json:"authors"`
				Categories    []string `json:"categories"`
				PageCount     int      `json:"pageCount"`
				PublishedDate string   `json:"publishedDate"`
				ImageLinks    struct {
					Thumbnail string `json:"thumbnail"`
				} `json:"imageLinks"`
				Description string `json:"description"`
			} `json:"volumeInfo"`
		} `json:"items"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}

	if len(searchResp.Items) == 0 {
		return nil, nil
	}

	item := searchResp.Items[0]
	return &books.EnrichedMetadata{
		GoogleBooksID:   item.ID,
		CanonicalTitle:  item.VolumeInfo.Title,
		CanonicalAuthor: strings.Join(item.VolumeInfo.Authors, ", "),
		Categories:      item.VolumeInfo.Categories,
		PageCount:       item.VolumeInfo.PageCount,
		PublishedDate:   item.VolumeInfo.PublishedDate,
		Thumbnail:       item.VolumeInfo.ImageLinks.Thumbnail,
		Description:     truncateRunes(item.VolumeInfo.Description, maxDescriptionRunes),
	}, nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
