package composer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"clipforge/internal/captions"
	"clipforge/internal/store"
	"clipforge/internal/visuals"
)

const (
	defaultFFmpegPath  = "ffmpeg"
	defaultFFprobePath = "ffprobe"
	defaultTimeout     = 10 * time.Minute

	// backgroundMusicVolume attenuates the music bed under the voice track.
	backgroundMusicVolume = 0.30

	thumbnailOffset = 1.0
)

// ErrCompositionFailed indicates the render engine exited non-zero or timed
// out; the engine's diagnostic output is attached.
var ErrCompositionFailed = errors.New("composition failed")

// AspectRatio is the closed set of supported output shapes.
type AspectRatio string

const (
	AspectPortrait  AspectRatio = "9:16"
	AspectLandscape AspectRatio = "16:9"
	AspectSquare    AspectRatio = "1:1"
)

// Resolution maps an aspect ratio to output pixel dimensions. Unrecognized
// ratios fall back to the portrait mapping.
func (a AspectRatio) Resolution() (int, int) {
	switch a {
	case AspectLandscape:
		return 1920, 1080
	case AspectSquare:
		return 1080, 1080
	default:
		return 1080, 1920
	}
}

// Asset is one visual input with its caller-assigned placement.
type Asset struct {
	Source     string
	Kind       visuals.Kind
	Provider   string
	ProviderID string
	Start      float64
	Duration   float64
	Position   string
	Scale      float64
}

// Request is the value object for one composition run; consumed once.
type Request struct {
	Script        string
	AudioSource   string
	AudioDuration float64
	Assets        []Asset
	AspectRatio   AspectRatio
	Captions      []captions.Segment
	MusicSource   string
	MusicVolume   float64
}

// Output describes the rendered artifact.
type Output struct {
	Path          string
	ThumbnailPath string
	Duration      float64
	ByteSize      int64
}

type Options struct {
	FFmpegPath  string
	FFprobePath string
	OutputDir   string
	WorkDir     string
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Composer stages inputs, builds the render graph, drives the external
// render engine, and persists the resulting VideoRecord.
type Composer struct {
	ffmpegPath  string
	ffprobePath string
	outputDir   string
	workDir     string
	timeout     time.Duration
	httpClient  *http.Client
	store       *store.Store
}

func New(st *store.Store, opts Options) *Composer {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = defaultFFmpegPath
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = defaultFFprobePath
	}
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Composer{
		ffmpegPath:  opts.FFmpegPath,
		ffprobePath: opts.FFprobePath,
		outputDir:   opts.OutputDir,
		workDir:     opts.WorkDir,
		timeout:     opts.Timeout,
		httpClient:  opts.HTTPClient,
		store:       st,
	}
}

// Compose runs the full render: stage, build graph, render, thumbnail,
// measure, persist. The record is persisted as completed with final metadata
// or failed with the captured error; the workspace is always released.
func (c *Composer) Compose(ctx context.Context, req Request, ownerID, title string) (*store.VideoRecord, *Output, error) {
	width, height := req.AspectRatio.Resolution()

	rec := &store.VideoRecord{
		OwnerID:     ownerID,
		Title:       title,
		Script:      req.Script,
		AspectRatio: string(req.AspectRatio),
		Width:       width,
		Height:      height,
		Status:      store.VideoProcessing,
	}
	if err := c.store.CreateVideo(ctx, rec); err != nil {
		return nil, nil, err
	}

	output, err := c.render(ctx, req, rec.ID, width, height)
	if err != nil {
		if failErr := c.store.FailVideo(ctx, rec.ID, err.Error()); failErr != nil {
			slog.Error("failed to record video failure", "video", rec.ID, "error", failErr)
		}
		rec.Status = store.VideoFailed
		rec.ErrorDetail = err.Error()
		return rec, nil, err
	}

	c.finalize(ctx, rec, output, req.Assets)
	return rec, output, nil
}

// finalize persists completion metadata for a render that already succeeded.
// A store failure at this point must not fail the run, so it is logged and
// the output still reaches the caller.
func (c *Composer) finalize(ctx context.Context, rec *store.VideoRecord, output *Output, assets []Asset) {
	rec.OutputPath = output.Path
	rec.ThumbnailPath = output.ThumbnailPath
	rec.Duration = output.Duration
	rec.ByteSize = output.ByteSize
	if err := c.store.CompleteVideo(ctx, rec); err != nil {
		slog.Error("failed to record video completion", "video", rec.ID, "error", err)
	}
	if err := c.store.AddVideoAssets(ctx, rec.ID, assetRows(assets)); err != nil {
		slog.Error("failed to record video assets", "video", rec.ID, "error", err)
	}
}

func (c *Composer) render(ctx context.Context, req Request, videoID string, width, height int) (*Output, error) {
	ws, err := newWorkspace(c.workDir)
	if err != nil {
		return nil, err
	}
	defer ws.release()

	staged, err := c.stageInputs(ctx, ws, req)
	if err != nil {
		return nil, err
	}

	graph := BuildGraph(staged, width, height)

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	outputPath := filepath.Join(c.outputDir, fmt.Sprintf("video_%s.mp4", videoID))
	if err := c.runEngine(ctx, graph.Args(outputPath)); err != nil {
		return nil, err
	}

	output := &Output{Path: outputPath}

	thumbPath := filepath.Join(c.outputDir, fmt.Sprintf("thumb_%s.jpg", videoID))
	if err := c.extractThumbnail(ctx, outputPath, thumbPath); err != nil {
		slog.Warn("thumbnail extraction failed", "video", videoID, "error", err)
	} else {
		output.ThumbnailPath = thumbPath
	}

	if dur, err := c.probeDuration(ctx, outputPath); err != nil {
		slog.Warn("output measurement failed, using audio duration estimate", "video", videoID, "error", err)
		output.Duration = req.AudioDuration
	} else {
		output.Duration = dur
	}
	if size, err := fileSize(outputPath); err == nil {
		output.ByteSize = size
	}

	return output, nil
}

// stagedRequest carries workspace-local paths into graph construction.
type stagedRequest struct {
	AudioPath     string
	AudioDuration float64
	MusicPath     string
	MusicVolume   float64
	SubtitlePath  string
	Assets        []stagedAsset
}

type stagedAsset struct {
	Path     string
	Kind     visuals.Kind
	Start    float64
	Duration float64
}

func (c *Composer) stageInputs(ctx context.Context, ws *workspace, req Request) (*stagedRequest, error) {
	staged := &stagedRequest{
		AudioDuration: req.AudioDuration,
		MusicVolume:   req.MusicVolume,
	}
	if staged.MusicVolume <= 0 {
		staged.MusicVolume = backgroundMusicVolume
	}

	audioPath, err := ws.stage(ctx, c.httpClient, req.AudioSource, "voice"+sourceExt(req.AudioSource, ".mp3"))
	if err != nil {
		return nil, fmt.Errorf("stage audio: %w", err)
	}
	staged.AudioPath = audioPath

	if req.MusicSource != "" {
		musicPath, err := ws.stage(ctx, c.httpClient, req.MusicSource, "music"+sourceExt(req.MusicSource, ".mp3"))
		if err != nil {
			return nil, fmt.Errorf("stage music: %w", err)
		}
		staged.MusicPath = musicPath
	}

	for i, asset := range req.Assets {
		ext := sourceExt(asset.Source, defaultAssetExt(asset.Kind))
		path, err := ws.stage(ctx, c.httpClient, asset.Source, fmt.Sprintf("asset_%02d%s", i, ext))
		if err != nil {
			return nil, fmt.Errorf("stage asset %d: %w", i, err)
		}
		staged.Assets = append(staged.Assets, stagedAsset{
			Path:     path,
			Kind:     asset.Kind,
			Start:    asset.Start,
			Duration: asset.Duration,
		})
	}

	if len(req.Captions) > 0 {
		subPath := ws.path("captions.srt")
		if err := writeFile(subPath, captions.FormatSRT(req.Captions)); err != nil {
			return nil, fmt.Errorf("write subtitle file: %w", err)
		}
		staged.SubtitlePath = subPath
	}

	return staged, nil
}

// BuildGraph assembles the typed render command for a staged request: a
// solid base sized to the target resolution, one input per visual asset
// (images held static for their assigned window, videos offset to theirs),
// burned-in subtitles when present, and the voice track mixed with an
// attenuated music bed for the shorter of the two when music is present.
func BuildGraph(staged *stagedRequest, width, height int) *Graph {
	g := NewGraph()

	g.AddInput(Input{Kind: InputColor, Width: width, Height: height, Duration: staged.AudioDuration})

	lastVideo := "0:v"
	for i, asset := range staged.Assets {
		var idx int
		switch asset.Kind {
		case visuals.KindVideo:
			idx = g.AddInput(Input{Kind: InputVideo, Path: asset.Path, Offset: asset.Start})
		default:
			idx = g.AddInput(Input{Kind: InputImage, Path: asset.Path, Duration: asset.Duration})
		}

		scaled := fmt.Sprintf("scaled%d", i)
		g.AddFilter(Filter{
			Inputs: []string{fmt.Sprintf("%d:v", idx)},
			Expr: fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1",
				width, height, width, height),
			Outputs: []string{scaled},
		})

		overlaid := fmt.Sprintf("v%d", i)
		g.AddFilter(Filter{
			Inputs: []string{lastVideo, scaled},
			Expr: fmt.Sprintf("overlay=0:0:enable='between(t,%s,%s)'",
				formatSeconds(asset.Start), formatSeconds(asset.Start+asset.Duration)),
			Outputs: []string{overlaid},
		})
		lastVideo = overlaid
	}

	if staged.SubtitlePath != "" {
		g.AddFilter(Filter{
			Inputs:  []string{lastVideo},
			Expr:    fmt.Sprintf("subtitles=%s", escapeFilterPath(staged.SubtitlePath)),
			Outputs: []string{"vout"},
		})
		lastVideo = "vout"
	} else if lastVideo == "0:v" {
		g.AddFilter(Filter{
			Inputs:  []string{lastVideo},
			Expr:    "null",
			Outputs: []string{"vout"},
		})
		lastVideo = "vout"
	}
	g.MapVideo(lastVideo)

	audioIdx := g.AddInput(Input{Kind: InputAudio, Path: staged.AudioPath})
	if staged.MusicPath != "" {
		musicIdx := g.AddInput(Input{Kind: InputAudio, Path: staged.MusicPath})
		g.AddFilter(Filter{
			Inputs:  []string{fmt.Sprintf("%d:a", audioIdx)},
			Expr:    "volume=1.0",
			Outputs: []string{"voice"},
		})
		g.AddFilter(Filter{
			Inputs:  []string{fmt.Sprintf("%d:a", musicIdx)},
			Expr:    fmt.Sprintf("volume=%.2f", staged.MusicVolume),
			Outputs: []string{"bgm"},
		})
		g.AddFilter(Filter{
			Inputs:  []string{"voice", "bgm"},
			Expr:    "amix=inputs=2:duration=shortest:normalize=0",
			Outputs: []string{"aout"},
		})
		g.MapAudio("aout")
	} else {
		g.MapAudio(fmt.Sprintf("%d:a", audioIdx))
	}

	return g
}

// runEngine invokes ffmpeg as an isolated process under a bounded timeout.
// On expiry the process is terminated, not left running.
func (c *Composer) runEngine(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: render timed out after %s", ErrCompositionFailed, c.timeout)
	}
	if err != nil {
		return fmt.Errorf("%w: %v, output: %s", ErrCompositionFailed, err, tail(string(output), 2000))
	}
	return nil
}

func assetRows(assets []Asset) []store.VideoAsset {
	rows := make([]store.VideoAsset, len(assets))
	for i, a := range assets {
		rows[i] = store.VideoAsset{
			Kind:      string(a.Kind),
			Provider:  a.Provider,
			URL:       a.Source,
			StartTime: a.Start,
			Duration:  a.Duration,
			Position:  a.Position,
			Scale:     a.Scale,
		}
	}
	return rows
}

func sourceExt(source, fallback string) string {
	base := source
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if ext := filepath.Ext(base); ext != "" && len(ext) <= 5 {
		return ext
	}
	return fallback
}

func defaultAssetExt(kind visuals.Kind) string {
	if kind == visuals.KindVideo {
		return ".mp4"
	}
	return ".jpg"
}

func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `:`, `\:`, `'`, `\'`)
	return replacer.Replace(path)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
