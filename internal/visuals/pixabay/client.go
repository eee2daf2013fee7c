package pixabay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"clipforge/internal/visuals"
	"clipforge/pkg/httputil"
)

const (
	searchURL     = "https://pixabay.com/api/"
	searchTimeout = 30 * time.Second
	providerName  = "pixabay"
)

var _ visuals.Provider = (*Client)(nil)

// Client searches the Pixabay stock library for still images.
type Client struct {
	apiKey     string
	httpClient *httputil.RetryClient
	baseURL    string
}

type Config struct {
	APIKey string
}

func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: httputil.NewSearchClient(searchTimeout),
		baseURL:    searchURL,
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Specialty() visuals.Kind {
	return visuals.KindImage
}

type searchResponse struct {
	Hits []hit `json:"hits"`
}

type hit struct {
	ID            int    `json:"id"`
	LargeImageURL string `json:"largeImageURL"`
	PreviewURL    string `json:"previewURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	Tags          string `json:"tags"`
}

func (c *Client) Search(ctx context.Context, query visuals.Query) ([]visuals.Candidate, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("q", query.Term)
	params.Set("image_type", "photo")
	params.Set("per_page", strconv.Itoa(query.MaxResults))
	switch query.Orientation {
	case "portrait":
		params.Set("orientation", "vertical")
	case "landscape":
		params.Set("orientation", "horizontal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pixabay api error: %s - %s", resp.Status, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse pixabay response: %w", err)
	}

	candidates := make([]visuals.Candidate, 0, len(parsed.Hits))
	for _, h := range parsed.Hits {
		candidates = append(candidates, visuals.Candidate{
			Provider:   providerName,
			ProviderID: strconv.Itoa(h.ID),
			URL:        h.LargeImageURL,
			ThumbURL:   h.PreviewURL,
			Kind:       visuals.KindImage,
			Width:      h.ImageWidth,
			Height:     h.ImageHeight,
			Tags:       splitTags(h.Tags),
		})
	}
	return candidates, nil
}

func splitTags(tags string) []string {
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
