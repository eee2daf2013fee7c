package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clipforge/internal/captions"
	"clipforge/internal/composer"
	"clipforge/internal/publish"
	"clipforge/internal/speech"
	"clipforge/internal/store"
	"clipforge/internal/visuals"
)

// Pipeline drives one content-to-publish run through its stages. Voice
// synthesis and composition failures abort the run; visual lookup, music
// selection, and per-target publish failures degrade it.
type Pipeline struct {
	service *Service
}

type RunRequest struct {
	Topic       string
	Script      string
	Title       string
	Language    string
	AspectRatio string
	OwnerID     string
	Targets     []publish.Target
}

type RunOutput struct {
	VideoID       string
	Title         string
	Script        string
	VideoPath     string
	ThumbnailPath string
	PublicURL     string
	Duration      float64
	VoiceCacheHit bool
	AssetCount    int
	Attempts      map[publish.Platform]*store.PublishAttempt
}

// RunResult is the uniform envelope for a run: either Output is set and
// Success is true, or Error carries the failure.
type RunResult struct {
	Success bool
	Output  *RunOutput
	Error   string
}

func NewPipeline(service *Service) *Pipeline {
	return &Pipeline{service: service}
}

func (p *Pipeline) Run(ctx context.Context, req RunRequest) *RunResult {
	output, err := p.run(ctx, req)
	if err != nil {
		return &RunResult{Success: false, Error: err.Error()}
	}
	return &RunResult{Success: true, Output: output}
}

func (p *Pipeline) run(ctx context.Context, req RunRequest) (*RunOutput, error) {
	cfg := p.service.cfg

	scriptText, title, err := p.resolveScript(ctx, req)
	if err != nil {
		return nil, err
	}

	slog.Info("synthesizing voice", "words", len(strings.Fields(scriptText)))
	voice, err := p.service.speech.Synthesize(ctx, speech.Request{
		Text:     scriptText,
		Language: req.Language,
		Voice:    cfg.Speech.Voice,
		Speed:    cfg.Speech.Speed,
		Format:   cfg.Speech.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize voice: %w", err)
	}
	slog.Info("voice ready", "duration", voice.Duration, "cached", voice.CacheHit)

	aspect := composer.AspectRatio(req.AspectRatio)
	if req.AspectRatio == "" {
		aspect = composer.AspectRatio(cfg.Video.AspectRatio)
	}

	assets := p.locateAssets(ctx, scriptText, voice.Duration, aspect)
	slog.Info("visual assets resolved", "count", len(assets))

	segments := p.service.captions.Synthesize(scriptText, voice.Duration, req.Language)

	musicSource := p.selectMusic(ctx)

	rec, rendered, err := p.service.composer.Compose(ctx, composer.Request{
		Script:        scriptText,
		AudioSource:   voice.AudioPath,
		AudioDuration: voice.Duration,
		Assets:        assets,
		AspectRatio:   aspect,
		Captions:      segments,
		MusicSource:   musicSource,
		MusicVolume:   cfg.Music.Volume,
	}, req.OwnerID, title)
	if err != nil {
		return nil, fmt.Errorf("compose video: %w", err)
	}

	output := &RunOutput{
		VideoID:       rec.ID,
		Title:         title,
		Script:        scriptText,
		VideoPath:     rendered.Path,
		ThumbnailPath: rendered.ThumbnailPath,
		Duration:      rendered.Duration,
		VoiceCacheHit: voice.CacheHit,
		AssetCount:    len(assets),
	}

	if p.service.storage != nil {
		name := fmt.Sprintf("video_%s.mp4", rec.ID)
		url, err := p.service.storage.Store(ctx, rendered.Path, name)
		if err != nil {
			slog.Warn("artifact publish to storage failed", "video", rec.ID, "error", err)
		} else {
			output.PublicURL = url
		}
	}

	if len(req.Targets) > 0 {
		attempts, err := p.service.publisher.Publish(ctx, rec.ID, rendered.Path, p.fillTargets(req.Targets, title, scriptText))
		if err != nil {
			return nil, fmt.Errorf("publish video: %w", err)
		}
		output.Attempts = attempts
	}

	return output, nil
}

// resolveScript returns the provided script or generates one from the topic,
// plus the best available title.
func (p *Pipeline) resolveScript(ctx context.Context, req RunRequest) (string, string, error) {
	scriptText := strings.TrimSpace(req.Script)
	if scriptText == "" {
		if req.Topic == "" {
			return "", "", fmt.Errorf("either a script or a topic is required")
		}
		if p.service.generator == nil {
			return "", "", fmt.Errorf("script generation requires GROQ_API_KEY")
		}
		slog.Info("generating script", "topic", req.Topic)
		generated, err := p.service.generator.GenerateScript(ctx, req.Topic, p.service.cfg.Content.ScriptWords)
		if err != nil {
			return "", "", fmt.Errorf("generate script: %w", err)
		}
		scriptText = generated
	}

	title := strings.TrimSpace(req.Title)
	if title == "" && p.service.generator != nil {
		generated, err := p.service.generator.GenerateTitle(ctx, scriptText)
		if err != nil {
			slog.Warn("title generation failed, falling back to topic", "error", err)
		} else {
			title = generated
		}
	}
	if title == "" {
		title = req.Topic
	}
	if title == "" {
		title = firstWords(scriptText, 8)
	}

	return scriptText, title, nil
}

// locateAssets resolves visual cues for the script and spreads the found
// candidates evenly across the voice track. Every failure here degrades to
// fewer assets, never an aborted run.
func (p *Pipeline) locateAssets(ctx context.Context, scriptText string, duration float64, aspect composer.AspectRatio) []composer.Asset {
	if p.service.locator == nil {
		return nil
	}

	queries := p.assetQueries(ctx, scriptText)
	if len(queries) == 0 {
		return nil
	}

	orientation := orientationFor(aspect)

	var picked []visuals.Candidate
	for _, q := range queries {
		q.Orientation = orientation
		q.MaxResults = 1
		if found := p.service.locator.Search(ctx, q); len(found) > 0 {
			picked = append(picked, found[0])
		}
	}
	if len(picked) == 0 {
		return nil
	}

	window := duration / float64(len(picked))
	assets := make([]composer.Asset, len(picked))
	for i, cand := range picked {
		assets[i] = composer.Asset{
			Source:     cand.URL,
			Kind:       cand.Kind,
			Provider:   cand.Provider,
			ProviderID: cand.ProviderID,
			Start:      float64(i) * window,
			Duration:   window,
		}
	}
	return assets
}

func (p *Pipeline) assetQueries(ctx context.Context, scriptText string) []visuals.Query {
	if p.service.generator != nil {
		cues, err := p.service.generator.GenerateVisuals(ctx, scriptText, p.service.cfg.Content.VisualCues)
		if err != nil {
			slog.Warn("visual cue generation failed", "error", err)
		} else if len(cues) > 0 {
			queries := make([]visuals.Query, len(cues))
			for i, cue := range cues {
				queries[i] = visuals.Query{Term: cue.SearchQuery, Kind: visuals.Kind(cue.Kind)}
			}
			return queries
		}
	}

	// Without a generator, fall back to one query per sentence keyword run.
	sentences := captions.SplitSentences(scriptText)
	limit := p.service.cfg.Content.VisualCues
	if limit <= 0 || limit > len(sentences) {
		limit = len(sentences)
	}
	queries := make([]visuals.Query, 0, limit)
	for _, sentence := range sentences[:limit] {
		queries = append(queries, visuals.Query{Term: firstWords(sentence, 4), Kind: visuals.KindImage})
	}
	return queries
}

func (p *Pipeline) selectMusic(ctx context.Context) string {
	if !p.service.cfg.Music.Enabled || p.service.storage == nil {
		return ""
	}
	track, err := p.service.storage.RandomMusicTrack(ctx)
	if err != nil {
		slog.Warn("music selection failed, rendering without music", "error", err)
		return ""
	}
	return track
}

// fillTargets applies pipeline-level title, description, and config defaults
// to targets that did not set their own.
func (p *Pipeline) fillTargets(targets []publish.Target, title, description string) []publish.Target {
	cfg := p.service.cfg
	filled := make([]publish.Target, len(targets))
	for i, t := range targets {
		if t.Title == "" {
			t.Title = title
		}
		if t.Description == "" {
			t.Description = description
		}
		if len(t.Tags) == 0 {
			t.Tags = cfg.YouTube.DefaultTags
		}
		if t.Visibility == "" {
			t.Visibility = cfg.YouTube.PrivacyStatus
		}
		filled[i] = t
	}
	return filled
}

func orientationFor(aspect composer.AspectRatio) string {
	switch aspect {
	case composer.AspectLandscape:
		return "landscape"
	case composer.AspectSquare:
		return ""
	default:
		return "portrait"
	}
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
