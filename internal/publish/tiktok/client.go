package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"clipforge/internal/publish"
)

const defaultBaseURL = "https://open.tiktokapis.com/v2"

var _ publish.Uploader = (*Client)(nil)

// Client posts videos through the TikTok Content Posting API using the
// direct-post flow: initialize, stream the file to the returned upload
// URL, then let TikTok process it asynchronously.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

type Config struct {
	AccessToken string
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
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Platform() publish.Platform {
	return publish.PlatformTikTok
}

type initRequest struct {
	PostInfo   postInfo   `json:"post_info"`
	SourceInfo sourceInfo `json:"source_info"`
}

type postInfo struct {
	Title        string `json:"title"`
	PrivacyLevel string `json:"privacy_level"`
}

type sourceInfo struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int    `json:"total_chunk_count"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Upload(ctx context.Context, filePath string, meta publish.Metadata) (*publish.Result, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat video file: %w", err)
	}

	initResp, err := c.initPost(ctx, info.Size(), meta)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize post: %w", err)
	}

	if err := c.uploadFile(ctx, initResp.Data.UploadURL, filePath, info.Size()); err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	return &publish.Result{
		PlatformID: initResp.Data.PublishID,
	}, nil
}

func (c *Client) initPost(ctx context.Context, size int64, meta publish.Metadata) (*initResponse, error) {
	payload := initRequest{
		PostInfo: postInfo{
			Title:        meta.Title,
			PrivacyLevel: privacyLevel(meta.Visibility),
		},
		SourceInfo: sourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       size,
			TotalChunkCount: 1,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/post/publish/video/init/", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var initResp initResponse
	if err := json.Unmarshal(respBody, &initResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if initResp.Error.Code != "" && initResp.Error.Code != "ok" {
		return nil, fmt.Errorf("api error %s: %s", initResp.Error.Code, initResp.Error.Message)
	}
	if initResp.Data.UploadURL == "" {
		return nil, fmt.Errorf("api returned no upload url")
	}
	return &initResp, nil
}

func (c *Client) uploadFile(ctx context.Context, uploadURL, filePath string, size int64) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = file.Close() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func privacyLevel(visibility string) string {
	switch visibility {
	case "private":
		return "SELF_ONLY"
	case "unlisted":
		return "MUTUAL_FOLLOW_FRIENDS"
	default:
		return "PUBLIC_TO_EVERYONE"
	}
}
