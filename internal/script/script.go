package script

import "context"

// VisualCue names one search term the visual locator should resolve for a
// stretch of the script.
type VisualCue struct {
	Keyword     string `json:"keyword"`
	SearchQuery string `json:"search_query"`
	Kind        string `json:"kind"`
}

// Generator produces narration scripts and their derived metadata.
type Generator interface {
	GenerateScript(ctx context.Context, topic string, wordCount int) (string, error)
	GenerateVisuals(ctx context.Context, script string, count int) ([]VisualCue, error)
	GenerateTitle(ctx context.Context, script string) (string, error)
}
