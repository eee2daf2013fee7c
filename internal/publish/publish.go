package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"clipforge/internal/store"
)

// Platform is the closed set of supported publish targets. Adding a platform
// means adding an uploader variant, not editing a dispatch chain.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformTikTok    Platform = "tiktok"
	PlatformFacebook  Platform = "facebook"
	PlatformLinkedIn  Platform = "linkedin"
)

var supportedPlatforms = map[Platform]struct{}{
	PlatformYouTube:   {},
	PlatformInstagram: {},
	PlatformTikTok:    {},
	PlatformFacebook:  {},
	PlatformLinkedIn:  {},
}

// ErrEmptyTargets is the only coordinator-level failure besides an
// unsupported platform name.
var ErrEmptyTargets = errors.New("no publish targets")

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ErrMissingCredentials marks a configuration error: the platform is
// supported but no uploader was constructed for it.
var ErrMissingCredentials = errors.New("missing platform credentials")

// ParsePlatform validates a platform name.
func ParsePlatform(name string) (Platform, error) {
	p := Platform(name)
	if _, ok := supportedPlatforms[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, name)
	}
	return p, nil
}

// Metadata is the per-target description handed to an uploader.
type Metadata struct {
	Title        string
	Description  string
	Tags         []string
	Visibility   string
	ThumbnailURL string
}

// Target names one platform plus its publish metadata.
type Target struct {
	Platform     Platform
	Title        string
	Description  string
	Tags         []string
	Visibility   string
	ThumbnailURL string
	ScheduledAt  *time.Time
}

// Result is what a platform reports back after a successful upload.
type Result struct {
	PlatformID  string
	PlatformURL string
}

// Uploader is one platform variant's upload capability.
type Uploader interface {
	Platform() Platform
	Upload(ctx context.Context, filePath string, meta Metadata) (*Result, error)
}

// Coordinator fans a publish request out to each target independently.
// One target's failure never prevents, delays, or rolls back another's.
type Coordinator struct {
	store     *store.Store
	uploaders map[Platform]Uploader
}

func NewCoordinator(st *store.Store, uploaders ...Uploader) *Coordinator {
	m := make(map[Platform]Uploader, len(uploaders))
	for _, u := range uploaders {
		if u != nil {
			m[u.Platform()] = u
		}
	}
	return &Coordinator{store: st, uploaders: m}
}

// Publish runs one attempt per target and returns the aggregate map with
// exactly one entry per requested platform, each in a terminal state unless
// deferred by scheduling. The coordinator itself only fails on an empty
// target set or an unsupported platform name.
func (c *Coordinator) Publish(ctx context.Context, videoID, videoPath string, targets []Target) (map[Platform]*store.PublishAttempt, error) {
	if len(targets) == 0 {
		return nil, ErrEmptyTargets
	}
	for _, t := range targets {
		if _, err := ParsePlatform(string(t.Platform)); err != nil {
			return nil, err
		}
	}

	results := make(map[Platform]*store.PublishAttempt, len(targets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		g.Go(func() error {
			attempt := c.publishOne(gctx, videoID, videoPath, target)
			mu.Lock()
			results[target.Platform] = attempt
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// publishOne drives a single attempt through its lifecycle. Errors are
// absorbed into the attempt's failed state and never escalate.
func (c *Coordinator) publishOne(ctx context.Context, videoID, videoPath string, target Target) *store.PublishAttempt {
	attempt := &store.PublishAttempt{
		VideoID:     videoID,
		Platform:    string(target.Platform),
		Status:      store.PublishPending,
		ScheduledAt: target.ScheduledAt,
	}
	if err := c.store.CreatePublishAttempt(ctx, attempt); err != nil {
		attempt.Status = store.PublishFailed
		attempt.ErrorDetail = err.Error()
		return attempt
	}

	if target.ScheduledAt != nil && target.ScheduledAt.After(time.Now()) {
		slog.Info("publish deferred", "platform", target.Platform, "video", videoID, "at", target.ScheduledAt)
		return attempt
	}

	return c.Dispatch(ctx, attempt, videoPath, targetMetadata(target))
}

// Dispatch uploads for an existing attempt and records its terminal state.
// Used both for immediate fan-out and by the scheduled-publish sweeper.
func (c *Coordinator) Dispatch(ctx context.Context, attempt *store.PublishAttempt, videoPath string, meta Metadata) *store.PublishAttempt {
	fail := func(err error) *store.PublishAttempt {
		slog.Warn("publish failed", "platform", attempt.Platform, "video", attempt.VideoID, "error", err)
		attempt.Status = store.PublishFailed
		attempt.ErrorDetail = err.Error()
		if dbErr := c.store.MarkPublishFailed(ctx, attempt.ID, err.Error()); dbErr != nil {
			slog.Error("failed to record publish failure", "attempt", attempt.ID, "error", dbErr)
		}
		return attempt
	}

	uploader, ok := c.uploaders[Platform(attempt.Platform)]
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrMissingCredentials, attempt.Platform))
	}

	if err := c.store.MarkUploading(ctx, attempt.ID); err != nil {
		return fail(err)
	}
	attempt.Status = store.PublishUploading

	result, err := uploader.Upload(ctx, videoPath, meta)
	if err != nil {
		return fail(err)
	}

	attempt.Status = store.PublishPublished
	attempt.PlatformID = result.PlatformID
	attempt.PlatformURL = result.PlatformURL
	now := time.Now().UTC()
	attempt.PublishedAt = &now
	if err := c.store.MarkPublished(ctx, attempt.ID, result.PlatformID, result.PlatformURL); err != nil {
		slog.Error("failed to record publish success", "attempt", attempt.ID, "error", err)
	}
	slog.Info("published", "platform", attempt.Platform, "video", attempt.VideoID, "url", result.PlatformURL)
	return attempt
}

func targetMetadata(target Target) Metadata {
	return Metadata{
		Title:        target.Title,
		Description:  target.Description,
		Tags:         target.Tags,
		Visibility:   target.Visibility,
		ThumbnailURL: target.ThumbnailURL,
	}
}
