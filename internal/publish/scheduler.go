package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"clipforge/internal/store"
)

const sweepSchedule = "@every 1m"

// Scheduler periodically dispatches publish attempts whose scheduled time
// has come due.
type Scheduler struct {
	store       *store.Store
	coordinator *Coordinator
	cron        *cron.Cron
}

func NewScheduler(st *store.Store, coordinator *Coordinator) *Scheduler {
	return &Scheduler{
		store:       st,
		coordinator: coordinator,
		cron:        cron.New(),
	}
}

// Start begins the sweep loop; it returns immediately. Stop with Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(sweepSchedule, func() {
		s.Sweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep dispatches every due attempt once. Per-attempt failures are recorded
// on the attempt and never stop the sweep.
func (s *Scheduler) Sweep(ctx context.Context) {
	due, err := s.store.ListDuePublishAttempts(ctx, time.Now())
	if err != nil {
		slog.Error("list due publish attempts", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	slog.Info("dispatching scheduled publishes", "count", len(due))
	for _, attempt := range due {
		video, err := s.store.GetVideo(ctx, attempt.VideoID)
		if err != nil {
			slog.Warn("scheduled publish references missing video", "attempt", attempt.ID, "error", err)
			_ = s.store.MarkPublishFailed(ctx, attempt.ID, err.Error())
			continue
		}
		s.coordinator.Dispatch(ctx, attempt, video.OutputPath, Metadata{
			Title:       video.Title,
			Description: video.Script,
		})
	}
}
