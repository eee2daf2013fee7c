package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"clipforge/internal/publish"
)

const (
	defaultBaseURL = "https://graph.facebook.com/v19.0"

	pollInterval = 5 * time.Second
	pollAttempts = 24
)

var _ publish.Uploader = (*Client)(nil)

// Client publishes reels through the Instagram Graph API. The API ingests
// media by URL, so rendered files must already be reachable under the
// configured public base URL.
type Client struct {
	accessToken   string
	accountID     string
	publicBaseURL string
	baseURL       string
	httpClient    *http.Client
}

type Config struct {
	AccessToken   string
	AccountID     string
	PublicBaseURL string
}

type option func(*Client)

func withBaseURL(url string) option {
	return func(c *Client) { c.baseURL = url }
}

func withHTTPClient(client *http.Client) option {
	return func(c *Client) { c.httpClient = client }
}

func New(cfg Config, opts ...option) *Client {
	c := &Client{
		accessToken:   cfg.AccessToken,
		accountID:     cfg.AccountID,
		publicBaseURL: cfg.PublicBaseURL,
		baseURL:       defaultBaseURL,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Platform() publish.Platform {
	return publish.PlatformInstagram
}

type containerResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	StatusCode string `json:"status_code"`
}

func (c *Client) Upload(ctx context.Context, filePath string, meta publish.Metadata) (*publish.Result, error) {
	videoURL := fmt.Sprintf("%s/%s", c.publicBaseURL, filepath.Base(filePath))

	containerID, err := c.createContainer(ctx, videoURL, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to create media container: %w", err)
	}

	if err := c.waitForContainer(ctx, containerID); err != nil {
		return nil, err
	}

	mediaID, err := c.publishContainer(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to publish container: %w", err)
	}

	return &publish.Result{
		PlatformID:  mediaID,
		PlatformURL: fmt.Sprintf("https://www.instagram.com/reel/%s", mediaID),
	}, nil
}

func (c *Client) createContainer(ctx context.Context, videoURL string, meta publish.Metadata) (string, error) {
	params := url.Values{}
	params.Set("media_type", "REELS")
	params.Set("video_url", videoURL)
	params.Set("caption", caption(meta))
	params.Set("access_token", c.accessToken)

	var resp containerResponse
	endpoint := fmt.Sprintf("%s/%s/media", c.baseURL, c.accountID)
	if err := c.post(ctx, endpoint, params, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// waitForContainer polls until the API finishes ingesting the video URL.
// Publishing before the container is FINISHED fails with a transient error.
func (c *Client) waitForContainer(ctx context.Context, containerID string) error {
	for attempt := 0; attempt < pollAttempts; attempt++ {
		params := url.Values{}
		params.Set("fields", "status_code")
		params.Set("access_token", c.accessToken)

		var resp statusResponse
		endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, containerID, params.Encode())
		if err := c.get(ctx, endpoint, &resp); err != nil {
			return fmt.Errorf("failed to check container status: %w", err)
		}

		switch resp.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR", "EXPIRED":
			return fmt.Errorf("media container %s entered state %s", containerID, resp.StatusCode)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return fmt.Errorf("media container %s not ready after %d checks", containerID, pollAttempts)
}

func (c *Client) publishContainer(ctx context.Context, containerID string) (string, error) {
	params := url.Values{}
	params.Set("creation_id", containerID)
	params.Set("access_token", c.accessToken)

	var resp containerResponse
	endpoint := fmt.Sprintf("%s/%s/media_publish", c.baseURL, c.accountID)
	if err := c.post(ctx, endpoint, params, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) post(ctx context.Context, endpoint string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func caption(meta publish.Metadata) string {
	text := meta.Title
	if meta.Description != "" {
		text += "\n\n" + meta.Description
	}
	for _, tag := range meta.Tags {
		text += " #" + tag
	}
	return text
}
