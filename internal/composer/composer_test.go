package composer

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"clipforge/internal/store"
	"clipforge/internal/visuals"
)

func TestAspectRatioResolution(t *testing.T) {
	tests := []struct {
		aspect AspectRatio
		width  int
		height int
	}{
		{AspectPortrait, 1080, 1920},
		{AspectLandscape, 1920, 1080},
		{AspectSquare, 1080, 1080},
		{AspectRatio("4:3"), 1080, 1920},
		{AspectRatio(""), 1080, 1920},
	}

	for _, tt := range tests {
		w, h := tt.aspect.Resolution()
		if w != tt.width || h != tt.height {
			t.Errorf("Resolution(%q) = %dx%d, want %dx%d", tt.aspect, w, h, tt.width, tt.height)
		}
	}
}

func TestBuildGraphMinimal(t *testing.T) {
	staged := &stagedRequest{
		AudioPath:     "/work/voice.mp3",
		AudioDuration: 30,
	}

	g := BuildGraph(staged, 1080, 1920)

	inputs := g.Inputs()
	if len(inputs) != 2 {
		t.Fatalf("got %d inputs, want 2 (color base + voice)", len(inputs))
	}
	if inputs[0].Kind != InputColor {
		t.Errorf("input 0 kind = %v, want InputColor", inputs[0].Kind)
	}
	if inputs[1].Path != "/work/voice.mp3" {
		t.Errorf("input 1 path = %q", inputs[1].Path)
	}

	args := g.Args("/out/video.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "color=c=black:s=1080x1920") {
		t.Errorf("missing color base in args: %s", joined)
	}
	if !strings.Contains(joined, "-map [vout]") {
		t.Errorf("missing video map in args: %s", joined)
	}
	if !strings.Contains(joined, "-map 1:a") {
		t.Errorf("missing audio map in args: %s", joined)
	}
	if !strings.Contains(joined, "-shortest") {
		t.Errorf("missing -shortest in args: %s", joined)
	}
	if args[len(args)-1] != "/out/video.mp4" {
		t.Errorf("last arg = %q, want output path", args[len(args)-1])
	}
}

func TestBuildGraphAssets(t *testing.T) {
	staged := &stagedRequest{
		AudioPath:     "/work/voice.mp3",
		AudioDuration: 20,
		Assets: []stagedAsset{
			{Path: "/work/asset_00.jpg", Kind: visuals.KindImage, Start: 0, Duration: 10},
			{Path: "/work/asset_01.mp4", Kind: visuals.KindVideo, Start: 10, Duration: 10},
		},
	}

	g := BuildGraph(staged, 1080, 1920)

	inputs := g.Inputs()
	if len(inputs) != 4 {
		t.Fatalf("got %d inputs, want 4", len(inputs))
	}
	if inputs[1].Kind != InputImage || inputs[1].Duration != 10 {
		t.Errorf("image input = %+v", inputs[1])
	}
	if inputs[2].Kind != InputVideo || inputs[2].Offset != 10 {
		t.Errorf("video input = %+v", inputs[2])
	}

	fc := g.FilterComplex()
	if !strings.Contains(fc, "scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920") {
		t.Errorf("missing scale filter: %s", fc)
	}
	if !strings.Contains(fc, "overlay=0:0:enable='between(t,0.00,10.00)'") {
		t.Errorf("missing first overlay window: %s", fc)
	}
	if !strings.Contains(fc, "overlay=0:0:enable='between(t,10.00,20.00)'") {
		t.Errorf("missing second overlay window: %s", fc)
	}
}

func TestBuildGraphSubtitles(t *testing.T) {
	staged := &stagedRequest{
		AudioPath:     "/work/voice.mp3",
		AudioDuration: 10,
		SubtitlePath:  "/work/captions.srt",
	}

	g := BuildGraph(staged, 1080, 1920)

	fc := g.FilterComplex()
	if !strings.Contains(fc, `subtitles=/work/captions.srt`) {
		t.Errorf("missing subtitles filter: %s", fc)
	}
}

func TestBuildGraphMusicMix(t *testing.T) {
	staged := &stagedRequest{
		AudioPath:     "/work/voice.mp3",
		AudioDuration: 10,
		MusicPath:     "/work/music.mp3",
		MusicVolume:   0.25,
	}

	g := BuildGraph(staged, 1080, 1920)

	fc := g.FilterComplex()
	if !strings.Contains(fc, "volume=0.25") {
		t.Errorf("missing attenuated music volume: %s", fc)
	}
	if !strings.Contains(fc, "amix=inputs=2:duration=shortest:normalize=0") {
		t.Errorf("missing amix: %s", fc)
	}

	joined := strings.Join(g.Args("/out/video.mp4"), " ")
	if !strings.Contains(joined, "-map [aout]") {
		t.Errorf("missing mixed audio map: %s", joined)
	}
}

func TestFilterComplexSerialization(t *testing.T) {
	g := NewGraph()
	g.AddFilter(Filter{Inputs: []string{"0:v"}, Expr: "null", Outputs: []string{"a"}})
	g.AddFilter(Filter{Inputs: []string{"a", "1:v"}, Expr: "overlay", Outputs: []string{"b"}})

	want := "[0:v]null[a];[a][1:v]overlay[b]"
	if got := g.FilterComplex(); got != want {
		t.Errorf("FilterComplex() = %q, want %q", got, want)
	}
}

func TestSourceExt(t *testing.T) {
	tests := []struct {
		source   string
		fallback string
		want     string
	}{
		{"https://example.com/clip.mp4", ".jpg", ".mp4"},
		{"https://example.com/clip.mp4?token=abc", ".jpg", ".mp4"},
		{"https://example.com/media", ".jpg", ".jpg"},
		{"/local/voice.wav", ".mp3", ".wav"},
		{"https://example.com/file.verylongext", ".mp4", ".mp4"},
	}

	for _, tt := range tests {
		if got := sourceExt(tt.source, tt.fallback); got != tt.want {
			t.Errorf("sourceExt(%q, %q) = %q, want %q", tt.source, tt.fallback, got, tt.want)
		}
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := escapeFilterPath(`C:\work\it's.srt`)
	want := `C\:\\work\\it\'s.srt`
	if got != want {
		t.Errorf("escapeFilterPath = %q, want %q", got, want)
	}
}

func TestTail(t *testing.T) {
	if got := tail("abcdef", 3); got != "def" {
		t.Errorf("tail = %q, want def", got)
	}
	if got := tail("ab", 3); got != "ab" {
		t.Errorf("tail = %q, want ab", got)
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestFinalizePersistsCompletion(t *testing.T) {
	st := newTestStore(t)
	c := New(st, Options{})
	ctx := context.Background()

	rec := &store.VideoRecord{OwnerID: "owner", Title: "clip"}
	if err := st.CreateVideo(ctx, rec); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}

	output := &Output{Path: "/out/video.mp4", ThumbnailPath: "/out/thumb.jpg", Duration: 12.5, ByteSize: 1024}
	assets := []Asset{{Source: "https://example.com/a.jpg", Kind: visuals.KindImage, Duration: 5}}
	c.finalize(ctx, rec, output, assets)

	got, err := st.GetVideo(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Status != store.VideoCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.OutputPath != "/out/video.mp4" || got.Duration != 12.5 {
		t.Errorf("output = %s/%v, want /out/video.mp4/12.5", got.OutputPath, got.Duration)
	}

	rows, err := st.ListVideoAssets(ctx, rec.ID)
	if err != nil {
		t.Fatalf("ListVideoAssets() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d asset rows, want 1", len(rows))
	}
}

func TestFinalizeStoreErrorKeepsOutput(t *testing.T) {
	st := newTestStore(t)
	c := New(st, Options{})
	ctx := context.Background()

	rec := &store.VideoRecord{OwnerID: "owner", Title: "clip"}
	if err := st.CreateVideo(ctx, rec); err != nil {
		t.Fatalf("CreateVideo() error = %v", err)
	}

	// The render finished before the store became unavailable; the caller
	// must still see the completed output.
	_ = st.Close()

	output := &Output{Path: "/out/video.mp4", Duration: 10}
	c.finalize(ctx, rec, output, nil)

	if rec.Status != store.VideoCompleted {
		t.Errorf("status = %s, want completed", rec.Status)
	}
	if rec.OutputPath != "/out/video.mp4" || rec.Duration != 10 {
		t.Errorf("output = %s/%v, want /out/video.mp4/10", rec.OutputPath, rec.Duration)
	}
}
