package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	cfg := Load()

	if cfg.Speech.Provider != "elevenlabs" {
		t.Errorf("Speech.Provider = %q, want elevenlabs", cfg.Speech.Provider)
	}
	if cfg.Video.AspectRatio != "9:16" {
		t.Errorf("Video.AspectRatio = %q, want 9:16", cfg.Video.AspectRatio)
	}
	if cfg.Video.RenderTimeoutMinutes != 10 {
		t.Errorf("Video.RenderTimeoutMinutes = %d, want 10", cfg.Video.RenderTimeoutMinutes)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("Storage.Backend = %q, want local", cfg.Storage.Backend)
	}
}

func TestLoadFromYAML(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	yaml := `
speech:
  provider: stub
  voice: test-voice
content:
  script_words: 200
video:
  aspect_ratio: "16:9"
`
	_ = os.WriteFile(filepath.Join(tmp, "config.yaml"), []byte(yaml), 0644)

	cfg := Load()

	if cfg.Speech.Provider != "stub" {
		t.Errorf("Speech.Provider = %q, want stub", cfg.Speech.Provider)
	}
	if cfg.Speech.Voice != "test-voice" {
		t.Errorf("Speech.Voice = %q, want test-voice", cfg.Speech.Voice)
	}
	if cfg.Content.ScriptWords != 200 {
		t.Errorf("Content.ScriptWords = %d, want 200", cfg.Content.ScriptWords)
	}
	if cfg.Video.AspectRatio != "16:9" {
		t.Errorf("Video.AspectRatio = %q, want 16:9", cfg.Video.AspectRatio)
	}
}

func TestLoadFromEnv(t *testing.T) {
	tmp := t.TempDir()
	orig, _ := os.Getwd()
	defer func() { _ = os.Chdir(orig) }()
	_ = os.Chdir(tmp)

	t.Setenv("GROQ_API_KEY", "test-groq")
	t.Setenv("PEXELS_API_KEY", "test-pexels")

	cfg := Load()

	if cfg.GroqAPIKey != "test-groq" {
		t.Errorf("GroqAPIKey = %q, want test-groq", cfg.GroqAPIKey)
	}
	if cfg.PexelsAPIKey != "test-pexels" {
		t.Errorf("PexelsAPIKey = %q, want test-pexels", cfg.PexelsAPIKey)
	}
}

func TestElevenLabsKeys(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "empty", raw: "", want: 0},
		{name: "single", raw: "key1", want: 1},
		{name: "multiple", raw: "key1, key2,key3", want: 3},
		{name: "trailingComma", raw: "key1,", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{ElevenLabsAPIKeys: tt.raw}
			if got := cfg.ElevenLabsKeys(); len(got) != tt.want {
				t.Errorf("ElevenLabsKeys() = %v, want %d keys", got, tt.want)
			}
		})
	}
}
