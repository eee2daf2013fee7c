package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath    = "config.yaml"
	defaultOutputDir     = "./output"
	defaultWorkDir       = "./.work"
	defaultCacheDir      = "./.cache/voice"
	defaultMusicDir      = "./assets/music"
	defaultPublishDir    = "./published"
	defaultDatabasePath  = "./clipforge.db"
	defaultAspectRatio   = "9:16"
	defaultFFmpegPath    = "ffmpeg"
	defaultFFprobePath   = "ffprobe"
	defaultRenderTimeout = 10
	defaultCacheTTLDays  = 30
	defaultScriptWords   = 150
	defaultVisualCues    = 5
	defaultMaxResults    = 10
	defaultGroqModel     = "llama-3.3-70b-versatile"
	defaultProvider      = "elevenlabs"
	defaultVoice         = "JBFqnCBsd6RMkjVDRZzb"
	defaultSpeed         = 1.0
	defaultFormat        = "mp3"
	defaultPrivacy       = "private"
	defaultTokenPath     = "./youtube_token.json"
	defaultMusicVolume   = 0.30
	defaultMusicPrefix   = "music"
	defaultPublishPrefix = "published"
)

type Config struct {
	ElevenLabsAPIKeys    string
	GroqAPIKey           string
	PexelsAPIKey         string
	PixabayAPIKey        string
	YouTubeClientID      string
	YouTubeClientSecret  string
	YouTubeTokenPath     string
	InstagramAccessToken string
	InstagramAccountID   string
	TikTokAccessToken    string
	FacebookAccessToken  string
	FacebookPageID       string
	LinkedInAccessToken  string
	LinkedInOwnerURN     string
	GCSBucket            string

	Speech   SpeechConfig   `yaml:"speech"`
	Content  ContentConfig  `yaml:"content"`
	Visuals  VisualsConfig  `yaml:"visuals"`
	Video    VideoConfig    `yaml:"video"`
	Music    MusicConfig    `yaml:"music"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
}

type SpeechConfig struct {
	Provider     string  `yaml:"provider"` // "elevenlabs" or "stub"
	Voice        string  `yaml:"voice"`
	Speed        float64 `yaml:"speed"`
	Format       string  `yaml:"format"`
	CacheDir     string  `yaml:"cache_dir"`
	CacheTTLDays int     `yaml:"cache_ttl_days"`
}

type ContentConfig struct {
	ScriptWords int    `yaml:"script_words"`
	VisualCues  int    `yaml:"visual_cues"`
	Language    string `yaml:"language"`
	GroqModel   string `yaml:"groq_model"`
}

type VisualsConfig struct {
	MaxResults int `yaml:"max_results"`
}

type VideoConfig struct {
	OutputDir            string `yaml:"output_dir"`
	WorkDir              string `yaml:"work_dir"`
	AspectRatio          string `yaml:"aspect_ratio"`
	FFmpegPath           string `yaml:"ffmpeg_path"`
	FFprobePath          string `yaml:"ffprobe_path"`
	RenderTimeoutMinutes int    `yaml:"render_timeout_minutes"`
}

type MusicConfig struct {
	Enabled bool    `yaml:"enabled"`
	Dir     string  `yaml:"dir"`
	Volume  float64 `yaml:"volume"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // "local" or "gcs"
	PublishDir    string `yaml:"publish_dir"`
	PublicBaseURL string `yaml:"public_base_url"`
	MusicPrefix   string `yaml:"music_prefix"`
	PublishPrefix string `yaml:"publish_prefix"`
	CacheDir      string `yaml:"cache_dir"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type YouTubeConfig struct {
	DefaultTags   []string `yaml:"default_tags"`
	PrivacyStatus string   `yaml:"privacy_status"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		ElevenLabsAPIKeys:    os.Getenv("ELEVENLABS_API_KEYS"),
		GroqAPIKey:           os.Getenv("GROQ_API_KEY"),
		PexelsAPIKey:         os.Getenv("PEXELS_API_KEY"),
		PixabayAPIKey:        os.Getenv("PIXABAY_API_KEY"),
		YouTubeClientID:      os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret:  os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeTokenPath:     getEnvOrDefault("YOUTUBE_TOKEN_PATH", defaultTokenPath),
		InstagramAccessToken: os.Getenv("INSTAGRAM_ACCESS_TOKEN"),
		InstagramAccountID:   os.Getenv("INSTAGRAM_ACCOUNT_ID"),
		TikTokAccessToken:    os.Getenv("TIKTOK_ACCESS_TOKEN"),
		FacebookAccessToken:  os.Getenv("FACEBOOK_ACCESS_TOKEN"),
		FacebookPageID:       os.Getenv("FACEBOOK_PAGE_ID"),
		LinkedInAccessToken:  os.Getenv("LINKEDIN_ACCESS_TOKEN"),
		LinkedInOwnerURN:     os.Getenv("LINKEDIN_OWNER_URN"),
		GCSBucket:            os.Getenv("GCS_BUCKET"),
	}
	if cfg.ElevenLabsAPIKeys == "" {
		cfg.ElevenLabsAPIKeys = os.Getenv("ELEVENLABS_API_KEY")
	}

	loadYAMLConfig(cfg)
	applyDefaults(cfg)

	return cfg
}

// ElevenLabsKeys splits the comma-separated key list.
func (c *Config) ElevenLabsKeys() []string {
	if c.ElevenLabsAPIKeys == "" {
		return nil
	}
	parts := strings.Split(c.ElevenLabsAPIKeys, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

func loadYAMLConfig(cfg *Config) {
	path := getEnvOrDefault("CLIPFORGE_CONFIG", defaultConfigPath)
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyDefaults(cfg *Config) {
	applySpeechDefaults(cfg)
	applyContentDefaults(cfg)
	applyVisualsDefaults(cfg)
	applyVideoDefaults(cfg)
	applyMusicDefaults(cfg)
	applyStorageDefaults(cfg)
	applyDatabaseDefaults(cfg)
	applyYouTubeDefaults(cfg)
}

func applySpeechDefaults(cfg *Config) {
	if cfg.Speech.Provider == "" {
		cfg.Speech.Provider = defaultProvider
	}
	if cfg.Speech.Voice == "" {
		cfg.Speech.Voice = defaultVoice
	}
	if cfg.Speech.Speed == 0 {
		cfg.Speech.Speed = defaultSpeed
	}
	if cfg.Speech.Format == "" {
		cfg.Speech.Format = defaultFormat
	}
	if cfg.Speech.CacheDir == "" {
		cfg.Speech.CacheDir = defaultCacheDir
	}
	if cfg.Speech.CacheTTLDays == 0 {
		cfg.Speech.CacheTTLDays = defaultCacheTTLDays
	}
}

func applyContentDefaults(cfg *Config) {
	if cfg.Content.ScriptWords == 0 {
		cfg.Content.ScriptWords = defaultScriptWords
	}
	if cfg.Content.VisualCues == 0 {
		cfg.Content.VisualCues = defaultVisualCues
	}
	if cfg.Content.GroqModel == "" {
		cfg.Content.GroqModel = defaultGroqModel
	}
}

func applyVisualsDefaults(cfg *Config) {
	if cfg.Visuals.MaxResults == 0 {
		cfg.Visuals.MaxResults = defaultMaxResults
	}
}

func applyVideoDefaults(cfg *Config) {
	if cfg.Video.OutputDir == "" {
		cfg.Video.OutputDir = defaultOutputDir
	}
	if cfg.Video.WorkDir == "" {
		cfg.Video.WorkDir = defaultWorkDir
	}
	if cfg.Video.AspectRatio == "" {
		cfg.Video.AspectRatio = defaultAspectRatio
	}
	if cfg.Video.FFmpegPath == "" {
		cfg.Video.FFmpegPath = defaultFFmpegPath
	}
	if cfg.Video.FFprobePath == "" {
		cfg.Video.FFprobePath = defaultFFprobePath
	}
	if cfg.Video.RenderTimeoutMinutes == 0 {
		cfg.Video.RenderTimeoutMinutes = defaultRenderTimeout
	}
}

func applyMusicDefaults(cfg *Config) {
	if cfg.Music.Dir == "" {
		cfg.Music.Dir = defaultMusicDir
	}
	if cfg.Music.Volume == 0 {
		cfg.Music.Volume = defaultMusicVolume
	}
}

func applyStorageDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "local"
	}
	if cfg.Storage.PublishDir == "" {
		cfg.Storage.PublishDir = defaultPublishDir
	}
	if cfg.Storage.MusicPrefix == "" {
		cfg.Storage.MusicPrefix = defaultMusicPrefix
	}
	if cfg.Storage.PublishPrefix == "" {
		cfg.Storage.PublishPrefix = defaultPublishPrefix
	}
	if cfg.Storage.CacheDir == "" {
		cfg.Storage.CacheDir = "./.cache/media"
	}
}

func applyDatabaseDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = defaultDatabasePath
	}
}

func applyYouTubeDefaults(cfg *Config) {
	if len(cfg.YouTube.DefaultTags) == 0 {
		cfg.YouTube.DefaultTags = []string{"shorts", "facts"}
	}
	if cfg.YouTube.PrivacyStatus == "" {
		cfg.YouTube.PrivacyStatus = defaultPrivacy
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
