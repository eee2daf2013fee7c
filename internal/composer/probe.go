package composer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// probeDuration reads a media file's container duration via ffprobe.
func (c *Composer) probeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	cmd := exec.CommandContext(ctx, c.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var dur float64
	if _, err := fmt.Sscanf(string(output), "%f", &dur); err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return dur, nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat output: %w", err)
	}
	return info.Size(), nil
}

// extractThumbnail samples one frame shortly after the start. Failure is
// non-fatal to the composition.
func (c *Composer) extractThumbnail(ctx context.Context, videoPath, thumbPath string) error {
	args := []string{
		"-y",
		"-ss", formatSeconds(thumbnailOffset),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		thumbPath,
	}

	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("thumbnail extraction failed: %w, output: %s", err, string(output))
	}
	return nil
}
