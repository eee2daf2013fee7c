package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"clipforge/internal/visuals"
	"clipforge/pkg/httputil"
)

const (
	photoSearchURL = "https://api.pexels.com/v1/search"
	videoSearchURL = "https://api.pexels.com/videos/search"
	searchTimeout  = 30 * time.Second
	providerName   = "pexels"
)

var _ visuals.Provider = (*Client)(nil)

// Client searches the Pexels stock library. Pexels carries a deep motion
// catalog, so it declares video as its specialty.
type Client struct {
	apiKey     string
	httpClient *httputil.RetryClient
	baseURL    string
	videoURL   string
}

type Config struct {
	APIKey string
}

func NewClient(cfg Config) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: httputil.NewSearchClient(searchTimeout),
		baseURL:    photoSearchURL,
		videoURL:   videoSearchURL,
	}
}

func (c *Client) Name() string {
	return providerName
}

func (c *Client) Specialty() visuals.Kind {
	return visuals.KindVideo
}

func (c *Client) Search(ctx context.Context, query visuals.Query) ([]visuals.Candidate, error) {
	if query.Kind == visuals.KindVideo {
		return c.searchVideos(ctx, query)
	}
	return c.searchPhotos(ctx, query)
}

type photoResponse struct {
	Photos []struct {
		ID     int    `json:"id"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Alt    string `json:"alt"`
		Src    struct {
			Large2x string `json:"large2x"`
			Medium  string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

type videoResponse struct {
	Videos []struct {
		ID         int     `json:"id"`
		Width      int     `json:"width"`
		Height     int     `json:"height"`
		Duration   float64 `json:"duration"`
		Image      string  `json:"image"`
		VideoFiles []struct {
			Link    string `json:"link"`
			Width   int    `json:"width"`
			Height  int    `json:"height"`
			Quality string `json:"quality"`
		} `json:"video_files"`
	} `json:"videos"`
}

func (c *Client) searchPhotos(ctx context.Context, query visuals.Query) ([]visuals.Candidate, error) {
	body, err := c.get(ctx, c.baseURL, query)
	if err != nil {
		return nil, err
	}

	var resp photoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse pexels response: %w", err)
	}

	candidates := make([]visuals.Candidate, 0, len(resp.Photos))
	for _, photo := range resp.Photos {
		candidates = append(candidates, visuals.Candidate{
			Provider:   providerName,
			ProviderID: strconv.Itoa(photo.ID),
			URL:        photo.Src.Large2x,
			ThumbURL:   photo.Src.Medium,
			Kind:       visuals.KindImage,
			Width:      photo.Width,
			Height:     photo.Height,
			Tags:       []string{query.Term},
		})
	}
	return candidates, nil
}

func (c *Client) searchVideos(ctx context.Context, query visuals.Query) ([]visuals.Candidate, error) {
	body, err := c.get(ctx, c.videoURL, query)
	if err != nil {
		return nil, err
	}

	var resp videoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse pexels response: %w", err)
	}

	candidates := make([]visuals.Candidate, 0, len(resp.Videos))
	for _, video := range resp.Videos {
		link, w, h := bestFile(video.VideoFiles)
		if link == "" {
			continue
		}
		candidates = append(candidates, visuals.Candidate{
			Provider:   providerName,
			ProviderID: strconv.Itoa(video.ID),
			URL:        link,
			ThumbURL:   video.Image,
			Kind:       visuals.KindVideo,
			Width:      w,
			Height:     h,
			Duration:   video.Duration,
			Tags:       []string{query.Term},
		})
	}
	return candidates, nil
}

// bestFile picks the highest-resolution HD rendition, falling back to the
// largest available.
func bestFile(files []struct {
	Link    string `json:"link"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality string `json:"quality"`
}) (string, int, int) {
	var link string
	var width, height int
	for _, f := range files {
		if f.Quality == "hd" && f.Width > width {
			link, width, height = f.Link, f.Width, f.Height
		}
	}
	if link != "" {
		return link, width, height
	}
	for _, f := range files {
		if f.Width > width {
			link, width, height = f.Link, f.Width, f.Height
		}
	}
	return link, width, height
}

func (c *Client) get(ctx context.Context, endpoint string, query visuals.Query) ([]byte, error) {
	params := url.Values{}
	params.Set("query", query.Term)
	params.Set("per_page", strconv.Itoa(query.MaxResults))
	if query.Orientation != "" {
		params.Set("orientation", query.Orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

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
		return nil, fmt.Errorf("pexels api error: %s - %s", resp.Status, string(body))
	}
	return body, nil
}
