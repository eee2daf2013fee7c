package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"clipforge/internal/publish"
)

const defaultBaseURL = "https://graph-video.facebook.com/v19.0"

var _ publish.Uploader = (*Client)(nil)

// Client uploads videos to a Facebook page via the Graph video API.
type Client struct {
	accessToken string
	pageID      string
	baseURL     string
	httpClient  *http.Client
}

type Config struct {
	AccessToken string
	PageID      string
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
		accessToken: cfg.AccessToken,
		pageID:      cfg.PageID,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Platform() publish.Platform {
	return publish.PlatformFacebook
}

type uploadResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Upload(ctx context.Context, filePath string, meta publish.Metadata) (*publish.Result, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = file.Close() }()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"access_token": c.accessToken,
		"title":        meta.Title,
		"description":  meta.Description,
	}
	if meta.Visibility == "private" || meta.Visibility == "unlisted" {
		fields["published"] = "false"
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	videoPart, err := writer.CreateFormFile("source", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create video part: %w", err)
	}
	if _, err := io.Copy(videoPart, file); err != nil {
		return nil, fmt.Errorf("failed to copy video: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	url := fmt.Sprintf("%s/%s/videos", c.baseURL, c.pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var uploadResp uploadResponse
	if err := json.Unmarshal(respBody, &uploadResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || uploadResp.Error != nil {
		if uploadResp.Error != nil {
			return nil, fmt.Errorf("upload failed: %s", uploadResp.Error.Message)
		}
		return nil, fmt.Errorf("upload failed: status %d: %s", resp.StatusCode, string(respBody))
	}

	return &publish.Result{
		PlatformID:  uploadResp.ID,
		PlatformURL: fmt.Sprintf("https://www.facebook.com/%s/videos/%s", c.pageID, uploadResp.ID),
	}, nil
}
