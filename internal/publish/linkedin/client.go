package linkedin

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

const defaultBaseURL = "https://api.linkedin.com/v2"

var _ publish.Uploader = (*Client)(nil)

// Client shares videos through the LinkedIn UGC API: register an upload,
// push the bytes to the returned asset URL, then create the post.
type Client struct {
	accessToken string
	ownerURN    string
	baseURL     string
	httpClient  *http.Client
}

type Config struct {
	AccessToken string
	// OwnerURN identifies the posting entity, e.g. "urn:li:person:abc"
	// or "urn:li:organization:123".
	OwnerURN string
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
		ownerURN:    cfg.OwnerURN,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Platform() publish.Platform {
	return publish.PlatformLinkedIn
}

type registerResponse struct {
	Value struct {
		Asset           string `json:"asset"`
		UploadMechanism struct {
			MediaUploadHTTPRequest struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
		} `json:"uploadMechanism"`
	} `json:"value"`
}

type postResponse struct {
	ID string `json:"id"`
}

func (c *Client) Upload(ctx context.Context, filePath string, meta publish.Metadata) (*publish.Result, error) {
	asset, uploadURL, err := c.registerUpload(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to register upload: %w", err)
	}

	if err := c.uploadAsset(ctx, uploadURL, filePath); err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	postID, err := c.createPost(ctx, asset, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return &publish.Result{
		PlatformID:  postID,
		PlatformURL: fmt.Sprintf("https://www.linkedin.com/feed/update/%s", postID),
	}, nil
}

func (c *Client) registerUpload(ctx context.Context) (asset, uploadURL string, err error) {
	payload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-video"},
			"owner":   c.ownerURN,
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}

	var resp registerResponse
	if err := c.postJSON(ctx, c.baseURL+"/assets?action=registerUpload", payload, &resp); err != nil {
		return "", "", err
	}

	uploadURL = resp.Value.UploadMechanism.MediaUploadHTTPRequest.UploadURL
	if uploadURL == "" {
		return "", "", fmt.Errorf("api returned no upload url")
	}
	return resp.Value.Asset, uploadURL, nil
}

func (c *Client) uploadAsset(ctx context.Context, uploadURL, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat video file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

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

func (c *Client) createPost(ctx context.Context, asset string, meta publish.Metadata) (string, error) {
	payload := map[string]any{
		"author":         c.ownerURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": meta.Title},
				"shareMediaCategory": "VIDEO",
				"media": []map[string]any{{
					"status":      "READY",
					"media":       asset,
					"title":       map[string]string{"text": meta.Title},
					"description": map[string]string{"text": meta.Description},
				}},
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": visibility(meta.Visibility),
		},
	}

	var resp postResponse
	if err := c.postJSON(ctx, c.baseURL+"/ugcPosts", payload, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func visibility(v string) string {
	if v == "private" || v == "unlisted" {
		return "CONNECTIONS"
	}
	return "PUBLIC"
}
