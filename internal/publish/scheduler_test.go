package publish

import (
	"context"
	"testing"
	"time"

	"clipforge/internal/store"
)

func TestSweepDispatchesDueAttempts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	video := createTestVideo(t, st)

	past := time.Now().Add(-time.Minute)
	attempt := &store.PublishAttempt{
		VideoID:     video.ID,
		Platform:    string(PlatformYouTube),
		ScheduledAt: &past,
	}
	if err := st.CreatePublishAttempt(ctx, attempt); err != nil {
		t.Fatalf("create attempt: %v", err)
	}

	uploader := &fakeUploader{platform: PlatformYouTube, result: &Result{PlatformID: "yt1", PlatformURL: "https://youtube.com/watch?v=yt1"}}
	scheduler := NewScheduler(st, NewCoordinator(st, uploader))

	scheduler.Sweep(ctx)

	if uploader.calls != 1 {
		t.Errorf("uploader calls = %d, want 1", uploader.calls)
	}
	if uploader.gotMeta.Title != video.Title {
		t.Errorf("metadata title = %q, want %q", uploader.gotMeta.Title, video.Title)
	}

	stored, err := st.GetPublishAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.Status != store.PublishPublished {
		t.Errorf("status = %s, want published", stored.Status)
	}

	// A second sweep finds nothing due.
	scheduler.Sweep(ctx)
	if uploader.calls != 1 {
		t.Errorf("uploader calls after second sweep = %d, want 1", uploader.calls)
	}
}

func TestSweepSkipsFutureAttempts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	video := createTestVideo(t, st)

	future := time.Now().Add(time.Hour)
	attempt := &store.PublishAttempt{
		VideoID:     video.ID,
		Platform:    string(PlatformYouTube),
		ScheduledAt: &future,
	}
	if err := st.CreatePublishAttempt(ctx, attempt); err != nil {
		t.Fatalf("create attempt: %v", err)
	}

	uploader := &fakeUploader{platform: PlatformYouTube, result: &Result{PlatformID: "yt1"}}
	scheduler := NewScheduler(st, NewCoordinator(st, uploader))

	scheduler.Sweep(ctx)

	if uploader.calls != 0 {
		t.Errorf("uploader calls = %d, want 0", uploader.calls)
	}
}

func TestSweepAfterVideoDeleted(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	video := createTestVideo(t, st)

	past := time.Now().Add(-time.Minute)
	attempt := &store.PublishAttempt{
		VideoID:     video.ID,
		Platform:    string(PlatformYouTube),
		ScheduledAt: &past,
	}
	if err := st.CreatePublishAttempt(ctx, attempt); err != nil {
		t.Fatalf("create attempt: %v", err)
	}

	// Deleting the video cascades the attempt away; the sweep finds nothing.
	if err := st.DeleteVideo(ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}

	uploader := &fakeUploader{platform: PlatformYouTube, result: &Result{PlatformID: "yt1"}}
	scheduler := NewScheduler(st, NewCoordinator(st, uploader))

	scheduler.Sweep(ctx)

	if uploader.calls != 0 {
		t.Errorf("uploader calls = %d, want 0", uploader.calls)
	}
}
