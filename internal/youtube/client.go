package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"ytaudio/internal/logger"
	"ytaudio/pkg/models"
)

const (
	SearchURL   = "https://www.googleapis.com/youtube/v3/search"
	WatchPrefix = "https://www.youtube.com/watch?v="

	MaxResults = 10
	KindVideo  = "youtube#video"
)

var (
	// ErrAPIKeyMissing means no credential is configured; no request was made.
	ErrAPIKeyMissing = errors.New("API key missing")
	// ErrSearchFailed covers any failure talking to the search API.
	ErrSearchFailed = errors.New("search failed")
)

// StatusError is a non-2xx answer from the search API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("search API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("search API returned status %d: %s", e.StatusCode, e.Body)
}

// SearchQuery is the fixed parameter set sent for a free-text search.
type SearchQuery struct {
	Query      string
	Part       string
	Type       string
	MaxResults int
}

func NewSearchQuery(q string) SearchQuery {
	return SearchQuery{
		Query:      q,
		Part:       "snippet,id",
		Type:       "video",
		MaxResults: MaxResults,
	}
}

func (q SearchQuery) Values(apiKey string) url.Values {
	v := url.Values{}
	v.Set("part", q.Part)
	v.Set("q", q.Query)
	v.Set("type", q.Type)
	v.Set("maxResults", strconv.Itoa(q.MaxResults))
	v.Set("key", apiKey)
	return v
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a search client. An empty baseURL selects the public API;
// a nil httpClient gets a 30s timeout client.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = SearchURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			Kind    string `json:"kind"`
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

// Search runs a keyword search and returns at most MaxResults videos in the
// order the API returned them.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResultItem, error) {
	results := []models.SearchResultItem{}
	if c.apiKey == "" {
		return results, ErrAPIKeyMissing
	}

	q := NewSearchQuery(query)
	endpoint := c.baseURL + "?" + q.Values(c.apiKey).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return results, fmt.Errorf("%w: failed to create request: %v", ErrSearchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return results, fmt.Errorf("%w: failed to make request: %w", ErrSearchFailed, err)
	}
	defer resp.Body.Close()
	logger.Debug("Search API %q -> %d (%v)", query, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return results, fmt.Errorf("%w: %w", ErrSearchFailed, &StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return results, fmt.Errorf("%w: failed to decode search response: %v", ErrSearchFailed, err)
	}

	for _, item := range data.Items {
		if item.ID.Kind != KindVideo {
			continue
		}
		results = append(results, models.SearchResultItem{
			ID:        item.ID.VideoID,
			Title:     html.UnescapeString(item.Snippet.Title),
			Thumbnail: item.Snippet.Thumbnails.High.URL,
			Author:    html.UnescapeString(item.Snippet.ChannelTitle),
		})
		if len(results) == MaxResults {
			break
		}
	}

	return results, nil
}

var (
	bareIDRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoIDRe = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|embed/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
)

// ExtractVideoID extracts the video ID from a YouTube URL or returns the ID if already in ID format
func ExtractVideoID(input string) (string, error) {
	if bareIDRe.MatchString(input) {
		return input, nil
	}

	matches := videoIDRe.FindStringSubmatch(input)
	if len(matches) > 1 {
		return matches[1], nil
	}

	return "", fmt.Errorf("invalid video ID or URL: %s", input)
}

func WatchURL(videoID string) string {
	return WatchPrefix + videoID
}
