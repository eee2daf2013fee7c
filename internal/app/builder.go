package app

import (
	"context"
	"fmt"
	"time"

	"clipforge/internal/captions"
	"clipforge/internal/composer"
	"clipforge/internal/publish"
	"clipforge/internal/publish/facebook"
	"clipforge/internal/publish/instagram"
	"clipforge/internal/publish/linkedin"
	"clipforge/internal/publish/tiktok"
	"clipforge/internal/publish/youtube"
	"clipforge/internal/script"
	"clipforge/internal/script/groq"
	"clipforge/internal/speech"
	"clipforge/internal/speech/elevenlabs"
	"clipforge/internal/storage"
	"clipforge/internal/store"
	"clipforge/internal/visuals"
	"clipforge/internal/visuals/pexels"
	"clipforge/internal/visuals/pixabay"
	"clipforge/pkg/config"
)

// BuildService wires every collaborator from configuration. Components
// whose credentials are absent are left out rather than failing the build;
// the pipeline degrades or reports per-operation errors instead.
func BuildService(ctx context.Context, cfg *config.Config) (*Service, error) {
	if err := cfg.ResolveSecrets(ctx); err != nil {
		return nil, fmt.Errorf("resolve secrets: %w", err)
	}

	st, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var generator script.Generator
	if cfg.GroqAPIKey != "" {
		generator, err = groq.NewClient(cfg.GroqAPIKey, cfg.Content.GroqModel)
		if err != nil {
			return nil, fmt.Errorf("build script generator: %w", err)
		}
	}

	var ttsProvider speech.Provider
	if cfg.Speech.Provider == "elevenlabs" && len(cfg.ElevenLabsKeys()) > 0 {
		ttsProvider = elevenlabs.NewClient(elevenlabs.Config{
			APIKeys: cfg.ElevenLabsKeys(),
			VoiceID: cfg.Speech.Voice,
		})
	} else {
		ttsProvider = speech.NewStubProvider()
	}
	speechCache := speech.NewCache(ttsProvider, st, cfg.Speech.CacheDir)

	var visualProviders []visuals.Provider
	if cfg.PexelsAPIKey != "" {
		visualProviders = append(visualProviders, pexels.NewClient(pexels.Config{APIKey: cfg.PexelsAPIKey}))
	}
	if cfg.PixabayAPIKey != "" {
		visualProviders = append(visualProviders, pixabay.NewClient(pixabay.Config{APIKey: cfg.PixabayAPIKey}))
	}
	locator := visuals.NewLocator(visualProviders...)

	comp := composer.New(st, composer.Options{
		FFmpegPath:  cfg.Video.FFmpegPath,
		FFprobePath: cfg.Video.FFprobePath,
		OutputDir:   cfg.Video.OutputDir,
		WorkDir:     cfg.Video.WorkDir,
		Timeout:     time.Duration(cfg.Video.RenderTimeoutMinutes) * time.Minute,
	})

	backend, err := buildStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	coordinator := publish.NewCoordinator(st, buildUploaders(cfg)...)
	scheduler := publish.NewScheduler(st, coordinator)

	return NewService(ServiceOptions{
		Config:    cfg,
		Generator: generator,
		Speech:    speechCache,
		Locator:   locator,
		Captions:  captions.NewSynthesizer(),
		Composer:  comp,
		Publisher: coordinator,
		Scheduler: scheduler,
		Storage:   backend,
		Store:     st,
	}), nil
}

func buildStorage(ctx context.Context, cfg *config.Config) (storage.Backend, error) {
	if cfg.Storage.Backend == "gcs" && cfg.GCSBucket != "" {
		backend, err := storage.NewGCSStorage(ctx, cfg.GCSBucket,
			cfg.Storage.MusicPrefix, cfg.Storage.PublishPrefix, cfg.Storage.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("build gcs storage: %w", err)
		}
		if err := backend.EnsureCacheDir(); err != nil {
			return nil, err
		}
		return backend, nil
	}

	backend := storage.NewLocalStorage(cfg.Music.Dir, cfg.Storage.PublishDir, cfg.Storage.PublicBaseURL)
	if err := backend.EnsureDirectories(); err != nil {
		return nil, err
	}
	return backend, nil
}

func buildUploaders(cfg *config.Config) []publish.Uploader {
	var uploaders []publish.Uploader

	if cfg.YouTubeClientID != "" && cfg.YouTubeClientSecret != "" {
		auth := youtube.NewAuth(cfg.YouTubeClientID, cfg.YouTubeClientSecret, cfg.YouTubeTokenPath)
		uploaders = append(uploaders, youtube.NewClient(auth))
	}
	if cfg.InstagramAccessToken != "" && cfg.InstagramAccountID != "" {
		uploaders = append(uploaders, instagram.New(instagram.Config{
			AccessToken:   cfg.InstagramAccessToken,
			AccountID:     cfg.InstagramAccountID,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}))
	}
	if cfg.TikTokAccessToken != "" {
		uploaders = append(uploaders, tiktok.New(tiktok.Config{AccessToken: cfg.TikTokAccessToken}))
	}
	if cfg.FacebookAccessToken != "" && cfg.FacebookPageID != "" {
		uploaders = append(uploaders, facebook.New(facebook.Config{
			AccessToken: cfg.FacebookAccessToken,
			PageID:      cfg.FacebookPageID,
		}))
	}
	if cfg.LinkedInAccessToken != "" && cfg.LinkedInOwnerURN != "" {
		uploaders = append(uploaders, linkedin.New(linkedin.Config{
			AccessToken: cfg.LinkedInAccessToken,
			OwnerURN:    cfg.LinkedInOwnerURN,
		}))
	}

	return uploaders
}
