package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"clipforge/internal/captions"
	"clipforge/internal/composer"
	"clipforge/internal/publish"
	"clipforge/internal/script"
	"clipforge/internal/speech"
	"clipforge/internal/store"
	"clipforge/internal/visuals"
	"clipforge/pkg/config"
)

type fakeSpeech struct {
	result *speech.Result
	err    error
}

func (f *fakeSpeech) Synthesize(ctx context.Context, req speech.Request) (*speech.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeLocator struct {
	candidates []visuals.Candidate
	queries    []visuals.Query
}

func (f *fakeLocator) Search(ctx context.Context, query visuals.Query) []visuals.Candidate {
	f.queries = append(f.queries, query)
	return f.candidates
}

type fakeRenderer struct {
	record  *store.VideoRecord
	output  *composer.Output
	err     error
	gotReq  composer.Request
	ownerID string
	title   string
}

func (f *fakeRenderer) Compose(ctx context.Context, req composer.Request, ownerID, title string) (*store.VideoRecord, *composer.Output, error) {
	f.gotReq = req
	f.ownerID = ownerID
	f.title = title
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.record, f.output, nil
}

type fakePublisher struct {
	attempts   map[publish.Platform]*store.PublishAttempt
	err        error
	gotTargets []publish.Target
}

func (f *fakePublisher) Publish(ctx context.Context, videoID, videoPath string, targets []publish.Target) (map[publish.Platform]*store.PublishAttempt, error) {
	f.gotTargets = targets
	if f.err != nil {
		return nil, f.err
	}
	return f.attempts, nil
}

type fakeGenerator struct {
	script string
	title  string
	cues   []script.VisualCue
	err    error
}

func (f *fakeGenerator) GenerateScript(ctx context.Context, topic string, wordCount int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.script, nil
}

func (f *fakeGenerator) GenerateVisuals(ctx context.Context, scriptText string, count int) ([]script.VisualCue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cues, nil
}

func (f *fakeGenerator) GenerateTitle(ctx context.Context, scriptText string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.title, nil
}

type fakeStorage struct {
	url   string
	track string
	err   error
}

func (f *fakeStorage) Store(ctx context.Context, localPath, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func (f *fakeStorage) RandomMusicTrack(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.track, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Content.ScriptWords = 150
	cfg.Content.VisualCues = 3
	cfg.Video.AspectRatio = "9:16"
	cfg.YouTube.DefaultTags = []string{"shorts"}
	cfg.YouTube.PrivacyStatus = "public"
	return cfg
}

func testPipeline(opts ServiceOptions) *Pipeline {
	if opts.Config == nil {
		opts.Config = testConfig()
	}
	if opts.Captions == nil {
		opts.Captions = captions.NewSynthesizer()
	}
	return NewPipeline(NewService(opts))
}

func TestRunWithScript(t *testing.T) {
	renderer := &fakeRenderer{
		record: &store.VideoRecord{ID: "vid1"},
		output: &composer.Output{Path: "/out/video.mp4", Duration: 12},
	}
	pipeline := testPipeline(ServiceOptions{
		Speech:   &fakeSpeech{result: &speech.Result{AudioPath: "/cache/voice.mp3", Duration: 12}},
		Composer: renderer,
	})

	result := pipeline.Run(context.Background(), RunRequest{
		Script: "A test script. With two sentences.",
		Title:  "My video",
	})
	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if result.Output.VideoID != "vid1" {
		t.Errorf("VideoID = %q", result.Output.VideoID)
	}
	if result.Output.VideoPath != "/out/video.mp4" {
		t.Errorf("VideoPath = %q", result.Output.VideoPath)
	}
	if renderer.title != "My video" {
		t.Errorf("renderer title = %q", renderer.title)
	}
	if len(renderer.gotReq.Captions) == 0 {
		t.Error("no caption segments handed to renderer")
	}
}

func TestRunNoScriptNoTopic(t *testing.T) {
	pipeline := testPipeline(ServiceOptions{})

	result := pipeline.Run(context.Background(), RunRequest{})
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "script or a topic") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestRunTopicWithoutGenerator(t *testing.T) {
	pipeline := testPipeline(ServiceOptions{})

	result := pipeline.Run(context.Background(), RunRequest{Topic: "space facts"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "GROQ_API_KEY") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestRunGeneratesScriptAndTitle(t *testing.T) {
	renderer := &fakeRenderer{
		record: &store.VideoRecord{ID: "vid1"},
		output: &composer.Output{Path: "/out/video.mp4"},
	}
	pipeline := testPipeline(ServiceOptions{
		Generator: &fakeGenerator{script: "Generated narration.", title: "Generated title"},
		Speech:    &fakeSpeech{result: &speech.Result{AudioPath: "/cache/voice.mp3", Duration: 5}},
		Composer:  renderer,
	})

	result := pipeline.Run(context.Background(), RunRequest{Topic: "space facts"})
	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if result.Output.Script != "Generated narration." {
		t.Errorf("script = %q", result.Output.Script)
	}
	if result.Output.Title != "Generated title" {
		t.Errorf("title = %q", result.Output.Title)
	}
}

func TestRunVoiceFailureAborts(t *testing.T) {
	pipeline := testPipeline(ServiceOptions{
		Speech:   &fakeSpeech{err: speech.ErrSynthesisUnavailable},
		Composer: &fakeRenderer{},
	})

	result := pipeline.Run(context.Background(), RunRequest{Script: "Hello there."})
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "synthesize voice") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestRunComposeFailureAborts(t *testing.T) {
	pipeline := testPipeline(ServiceOptions{
		Speech:   &fakeSpeech{result: &speech.Result{AudioPath: "/cache/voice.mp3", Duration: 5}},
		Composer: &fakeRenderer{err: composer.ErrCompositionFailed},
	})

	result := pipeline.Run(context.Background(), RunRequest{Script: "Hello there."})
	if result.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(result.Error, "compose video") {
		t.Errorf("error = %q", result.Error)
	}
}

func TestRunSpreadsAssets(t *testing.T) {
	locator := &fakeLocator{candidates: []visuals.Candidate{
		{Provider: "pexels", URL: "https://example.com/clip.mp4", Kind: visuals.KindVideo},
	}}
	renderer := &fakeRenderer{
		record: &store.VideoRecord{ID: "vid1"},
		output: &composer.Output{Path: "/out/video.mp4"},
	}
	pipeline := testPipeline(ServiceOptions{
		Speech:   &fakeSpeech{result: &speech.Result{AudioPath: "/cache/voice.mp3", Duration: 30}},
		Locator:  locator,
		Composer: renderer,
	})

	result := pipeline.Run(context.Background(), RunRequest{
		Script: "First sentence. Second sentence. Third sentence.",
	})
	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}

	assets := renderer.gotReq.Assets
	if len(assets) != 3 {
		t.Fatalf("got %d assets, want 3 (one per sentence cue)", len(assets))
	}
	window := 30.0 / 3
	for i, a := range assets {
		if a.Start != float64(i)*window {
			t.Errorf("asset %d start = %v, want %v", i, a.Start, float64(i)*window)
		}
		if a.Duration != window {
			t.Errorf("asset %d duration = %v, want %v", i, a.Duration, window)
		}
	}
	for _, q := range locator.queries {
		if q.Orientation != "portrait" {
			t.Errorf("query orientation = %q, want portrait", q.Orientation)
		}
		if q.MaxResults != 1 {
			t.Errorf("query max results = %d, want 1", q.MaxResults)
		}
	}
}

func TestRunMusicFailureDegrades(t *testing.T) {
	cfg := testConfig()
	cfg.Music.Enabled = true
	renderer := &fakeRenderer{
		record: &store.VideoRecord{ID: "vid1"},
		output: &composer.Output{Path: "/out/video.mp4"},
	}
	pipeline := testPipeline(ServiceOptions{
		Config:   cfg,
		Speech:   &fakeSpeech{result: &speech.Result{AudioPath: "/cache/voice.mp3", Duration: 5}},
		Composer: renderer,
		Storage:  &fakeStorage{err: errors.New("no tracks")},
	})

	result := pipeline.Run(context.Background(), RunRequest{Script: "Hello there."})
	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if renderer.gotReq.MusicSource != "" {
		t.Errorf("music source = %q, want empty", renderer.gotReq.MusicSource)
	}
}

func TestRunPublishesWithFilledTargets(t *testing.T) {
	publisher := &fakePublisher{attempts: map[publish.Platform]*store.PublishAttempt{
		publish.PlatformYouTube: {Status: store.PublishPublished},
	}}
	pipeline := testPipeline(ServiceOptions{
		Speech:    &fakeSpeech{result: &speech.Result{AudioPath: "/cache/voice.mp3", Duration: 5}},
		Composer:  &fakeRenderer{record: &store.VideoRecord{ID: "vid1"}, output: &composer.Output{Path: "/out/video.mp4"}},
		Publisher: publisher,
	})

	result := pipeline.Run(context.Background(), RunRequest{
		Script:  "Hello there.",
		Title:   "My title",
		Targets: []publish.Target{{Platform: publish.PlatformYouTube}},
	})
	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if len(result.Output.Attempts) != 1 {
		t.Fatalf("got %d attempts, want 1", len(result.Output.Attempts))
	}

	target := publisher.gotTargets[0]
	if target.Title != "My title" {
		t.Errorf("target title = %q", target.Title)
	}
	if target.Description != "Hello there." {
		t.Errorf("target description = %q", target.Description)
	}
	if len(target.Tags) != 1 || target.Tags[0] != "shorts" {
		t.Errorf("target tags = %v", target.Tags)
	}
	if target.Visibility != "public" {
		t.Errorf("target visibility = %q", target.Visibility)
	}
}

func TestRunStorageURLInOutput(t *testing.T) {
	pipeline := testPipeline(ServiceOptions{
		Speech:   &fakeSpeech{result: &speech.Result{AudioPath: "/cache/voice.mp3", Duration: 5}},
		Composer: &fakeRenderer{record: &store.VideoRecord{ID: "vid1"}, output: &composer.Output{Path: "/out/video.mp4"}},
		Storage:  &fakeStorage{url: "https://media.example.com/video_vid1.mp4"},
	})

	result := pipeline.Run(context.Background(), RunRequest{Script: "Hello there."})
	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if result.Output.PublicURL != "https://media.example.com/video_vid1.mp4" {
		t.Errorf("PublicURL = %q", result.Output.PublicURL)
	}
}

func TestOrientationFor(t *testing.T) {
	tests := []struct {
		aspect composer.AspectRatio
		want   string
	}{
		{composer.AspectPortrait, "portrait"},
		{composer.AspectLandscape, "landscape"},
		{composer.AspectSquare, ""},
		{composer.AspectRatio(""), "portrait"},
	}

	for _, tt := range tests {
		if got := orientationFor(tt.aspect); got != tt.want {
			t.Errorf("orientationFor(%q) = %q, want %q", tt.aspect, got, tt.want)
		}
	}
}
