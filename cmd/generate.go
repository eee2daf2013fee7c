package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/app"
	"clipforge/internal/publish"
	"clipforge/pkg/config"
)

var (
	genTopic      string
	genScriptFile string
	genTitle      string
	genLanguage   string
	genAspect     string
	genOwner      string
	genPlatforms  []string
	genSchedule   string
	genJSON       bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a single video",
	Long: `Generate a single video from a topic or a script file, optionally
publishing it to one or more platforms afterwards.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genTopic, "topic", "t", "", "Topic to generate a script for")
	generateCmd.Flags().StringVarP(&genScriptFile, "script", "s", "", "Path to a prepared script file")
	generateCmd.Flags().StringVar(&genTitle, "title", "", "Video title (generated when empty)")
	generateCmd.Flags().StringVarP(&genLanguage, "language", "l", "", "Script language (detected when empty)")
	generateCmd.Flags().StringVarP(&genAspect, "aspect", "a", "", "Aspect ratio: 9:16, 16:9 or 1:1")
	generateCmd.Flags().StringVar(&genOwner, "owner", "", "Owner identifier recorded on the video")
	generateCmd.Flags().StringSliceVarP(&genPlatforms, "publish", "p", nil, "Platforms to publish to after rendering")
	generateCmd.Flags().StringVar(&genSchedule, "schedule", "", "Defer publishing until this RFC3339 time")
	generateCmd.Flags().BoolVar(&genJSON, "json", false, "Print the run result as JSON")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if genTopic == "" && genScriptFile == "" {
		return errors.New("please provide --topic or --script")
	}

	ctx := cmd.Context()

	var scriptText string
	if genScriptFile != "" {
		data, err := os.ReadFile(genScriptFile)
		if err != nil {
			return fmt.Errorf("read script file: %w", err)
		}
		scriptText = string(data)
	}

	targets, err := buildTargets(genPlatforms, genSchedule)
	if err != nil {
		return err
	}

	cfg := config.Load()
	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	pipeline := app.NewPipeline(service)
	result := pipeline.Run(ctx, app.RunRequest{
		Topic:       genTopic,
		Script:      scriptText,
		Title:       genTitle,
		Language:    genLanguage,
		AspectRatio: genAspect,
		OwnerID:     genOwner,
		Targets:     targets,
	})

	if genJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if !result.Success {
		return errors.New(result.Error)
	}

	slog.Info("video generated",
		"id", result.Output.VideoID,
		"title", result.Output.Title,
		"path", result.Output.VideoPath,
		"duration", result.Output.Duration,
		"cached_voice", result.Output.VoiceCacheHit,
	)
	for platform, attempt := range result.Output.Attempts {
		if attempt.Status == "published" {
			slog.Info("published", "platform", platform, "url", attempt.PlatformURL)
		} else {
			slog.Warn("publish attempt", "platform", platform, "status", attempt.Status, "error", attempt.ErrorDetail)
		}
	}
	return nil
}

func buildTargets(platforms []string, schedule string) ([]publish.Target, error) {
	var scheduledAt *time.Time
	if schedule != "" {
		at, err := time.Parse(time.RFC3339, schedule)
		if err != nil {
			return nil, fmt.Errorf("parse --schedule: %w", err)
		}
		scheduledAt = &at
	}

	targets := make([]publish.Target, 0, len(platforms))
	for _, name := range platforms {
		platform, err := publish.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, publish.Target{
			Platform:    platform,
			ScheduledAt: scheduledAt,
		})
	}
	return targets, nil
}
