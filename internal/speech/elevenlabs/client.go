package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"clipforge/internal/speech"
)

const (
	baseURL = "https://api.elevenlabs.io/v1"
	timeout = 120 * time.Second
	model   = "eleven_multilingual_v2"
)

var _ speech.Provider = (*Client)(nil)

type Client struct {
	apiKeys    []string
	keyIndex   uint64
	httpClient *http.Client
	voiceID    string
	baseURL    string
	stability  float64
	similarity float64
}

type Config struct {
	APIKeys    []string
	VoiceID    string
	Stability  float64
	Similarity float64
}

type option func(*Client)

func withBaseURL(url string) option {
	return func(c *Client) {
		c.baseURL = url
	}
}

func withHTTPClient(client *http.Client) option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func NewClient(cfg Config) speech.Provider {
	return newClient(cfg)
}

func newClient(cfg Config, opts ...option) *Client {
	keys := cfg.APIKeys
	if len(keys) == 0 {
		keys = []string{""}
	}

	c := &Client{
		apiKeys:    keys,
		httpClient: &http.Client{Timeout: timeout},
		voiceID:    cfg.VoiceID,
		stability:  cfg.Stability,
		similarity: cfg.Similarity,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Synthesize produces raw audio bytes for the request. Quota errors rotate
// through the configured API keys; any other provider failure surfaces as
// speech.ErrSynthesisUnavailable.
func (c *Client) Synthesize(ctx context.Context, req speech.Request) ([]byte, error) {
	voiceID := req.Voice
	if voiceID == "" || voiceID == speech.DefaultVoice {
		voiceID = c.voiceID
	}
	url := c.buildURL(voiceID, req.Format)

	startKey := c.nextAPIKey()
	audio, err := c.doRequestWithKey(ctx, url, req, startKey)
	if err == nil {
		return audio, nil
	}
	if !isQuotaError(err) {
		return nil, err
	}

	for i := 1; i < len(c.apiKeys); i++ {
		key := c.getKeyAtOffset(i)
		if key == startKey {
			continue
		}
		audio, err = c.doRequestWithKey(ctx, url, req, key)
		if err == nil {
			return audio, nil
		}
		if !isQuotaError(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: all API keys exhausted: %v", speech.ErrSynthesisUnavailable, err)
}

func (c *Client) nextAPIKey() string {
	if len(c.apiKeys) == 1 {
		return c.apiKeys[0]
	}
	idx := atomic.AddUint64(&c.keyIndex, 1)
	return c.apiKeys[idx%uint64(len(c.apiKeys))]
}

func (c *Client) getKeyAtOffset(offset int) string {
	idx := atomic.LoadUint64(&c.keyIndex)
	return c.apiKeys[(idx+uint64(offset))%uint64(len(c.apiKeys))]
}

func (c *Client) doRequestWithKey(ctx context.Context, url string, req speech.Request, apiKey string) ([]byte, error) {
	httpReq, err := c.buildRequestWithKey(ctx, url, req, apiKey)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", speech.ErrSynthesisUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: elevenlabs %s - %s", speech.ErrSynthesisUnavailable, resp.Status, string(body))
	}

	return body, nil
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "quota_exceeded") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "429")
}

func (c *Client) buildURL(voiceID, format string) string {
	base := c.baseURL
	if base == "" {
		base = baseURL
	}
	outputFormat := "mp3_44100_128"
	if format == "wav" {
		outputFormat = "pcm_44100"
	}
	return fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", base, voiceID, outputFormat)
}

func (c *Client) buildRequestWithKey(ctx context.Context, url string, req speech.Request, apiKey string) (*http.Request, error) {
	payload := map[string]any{
		"text":     req.Text,
		"model_id": model,
		"voice_settings": map[string]any{
			"stability":        c.stability,
			"similarity_boost": c.similarity,
			"speed":            req.Speed,
		},
	}
	if req.Language != "" {
		payload["language_code"] = languageCode(req.Language)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", apiKey)

	return httpReq, nil
}

var languageCodes = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"dutch":      "nl",
	"russian":    "ru",
	"polish":     "pl",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"mandarin":   "zh",
	"hindi":      "hi",
	"arabic":     "ar",
	"turkish":    "tr",
}

func languageCode(language string) string {
	lower := strings.ToLower(strings.TrimSpace(language))
	if code, ok := languageCodes[lower]; ok {
		return code
	}
	if len(lower) == 2 {
		return lower
	}
	return "en"
}
