package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"clipforge/internal/app"
	"clipforge/internal/store"
	"clipforge/pkg/config"
)

var (
	pubPlatforms []string
	pubSchedule  string
)

var publishCmd = &cobra.Command{
	Use:   "publish <video-id>",
	Short: "Publish an already-rendered video",
	Long:  `Publish a completed video from the local store to one or more platforms.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringSliceVarP(&pubPlatforms, "platform", "p", nil, "Platforms to publish to")
	publishCmd.Flags().StringVar(&pubSchedule, "schedule", "", "Defer publishing until this RFC3339 time")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	if len(pubPlatforms) == 0 {
		return errors.New("please provide at least one --platform")
	}

	ctx := cmd.Context()
	videoID := args[0]

	targets, err := buildTargets(pubPlatforms, pubSchedule)
	if err != nil {
		return err
	}

	cfg := config.Load()
	service, err := app.BuildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	video, err := service.Store().GetVideo(ctx, videoID)
	if err != nil {
		return fmt.Errorf("load video %s: %w", videoID, err)
	}
	if video.Status != store.VideoCompleted {
		return fmt.Errorf("video %s is %s, only completed videos can be published", videoID, video.Status)
	}

	for i := range targets {
		targets[i].Title = video.Title
		targets[i].Description = video.Script
		targets[i].Tags = cfg.YouTube.DefaultTags
		targets[i].Visibility = cfg.YouTube.PrivacyStatus
	}

	attempts, err := service.Publisher().Publish(ctx, video.ID, video.OutputPath, targets)
	if err != nil {
		return err
	}

	for platform, attempt := range attempts {
		switch attempt.Status {
		case store.PublishPublished:
			slog.Info("published", "platform", platform, "url", attempt.PlatformURL)
		case store.PublishPending:
			slog.Info("publish scheduled", "platform", platform, "at", attempt.ScheduledAt)
		default:
			slog.Warn("publish failed", "platform", platform, "error", attempt.ErrorDetail)
		}
	}
	return nil
}
