package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/conneroisu/groq-go"

	"clipforge/internal/script"
)

const (
	systemScript = "You write tight, spoken-word narration scripts for short " +
		"vertical videos. Plain sentences, no stage directions, no markdown."
	systemVisuals = "You pick stock-footage search terms for narration scripts " +
		"and answer with JSON only."
	systemTitle = "You write short, punchy video titles. Answer with the title " +
		"only, no quotes."
)

var _ script.Generator = (*Client)(nil)

type Client struct {
	client *groq.Client
	model  groq.ChatModel
}

func NewClient(apiKey, model string, opts ...groq.Opts) (*Client, error) {
	client, err := groq.NewClient(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client: client,
		model:  groq.ChatModel(model),
	}, nil
}

func (c *Client) GenerateScript(ctx context.Context, topic string, wordCount int) (string, error) {
	prompt := fmt.Sprintf(
		"Write a %d-word narration script about: %s. Open with a hook in the first sentence.",
		wordCount, topic,
	)
	content, err := c.generate(ctx, systemScript, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (c *Client) GenerateVisuals(ctx context.Context, scriptText string, count int) ([]script.VisualCue, error) {
	prompt := fmt.Sprintf(
		"Give %d stock-footage search terms covering this script in order, as a JSON array of "+
			`objects with "keyword", "search_query" and "kind" ("image" or "video") fields. Script: %s`,
		count, scriptText,
	)

	content, err := c.generateJSON(ctx, systemVisuals, prompt)
	if err != nil {
		return nil, err
	}

	var cues []script.VisualCue
	if err := json.Unmarshal([]byte(content), &cues); err == nil {
		return cues, nil
	}

	// Some models wrap the array in an object even when asked not to.
	var wrapped struct {
		Visuals []script.VisualCue `json:"visuals"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return wrapped.Visuals, nil
}

func (c *Client) GenerateTitle(ctx context.Context, scriptText string) (string, error) {
	prompt := fmt.Sprintf("Write a title for this script: %s", scriptText)
	content, err := c.generate(ctx, systemTitle, prompt)
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(content), `"`), nil
}

func (c *Client) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response")
	}

	return content, nil
}

func (c *Client) generateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
		ResponseFormat: &groq.ChatResponseFormat{
			Type: "json_object",
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response")
	}

	return content, nil
}
