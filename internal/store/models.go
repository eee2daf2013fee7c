package store

import "time"

// VideoStatus represents the lifecycle of a rendered video.
type VideoStatus string

const (
	VideoProcessing VideoStatus = "processing"
	VideoCompleted  VideoStatus = "completed"
	VideoFailed     VideoStatus = "failed"
)

// PublishStatus represents the lifecycle of a single platform upload.
type PublishStatus string

const (
	PublishPending   PublishStatus = "pending"
	PublishUploading PublishStatus = "uploading"
	PublishPublished PublishStatus = "published"
	PublishFailed    PublishStatus = "failed"
)

// Terminal reports whether no further automatic transition occurs.
func (s PublishStatus) Terminal() bool {
	return s == PublishPublished || s == PublishFailed
}

type VideoRecord struct {
	ID            string
	OwnerID       string
	Title         string
	Script        string
	OutputPath    string
	ThumbnailPath string
	Duration      float64
	ByteSize      int64
	Format        string
	AspectRatio   string
	Width         int
	Height        int
	Status        VideoStatus
	ErrorDetail   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type VideoAsset struct {
	ID        string
	VideoID   string
	Kind      string
	Provider  string
	URL       string
	StartTime float64
	Duration  float64
	Position  string
	Scale     float64
	CreatedAt time.Time
}

type PublishAttempt struct {
	ID          string
	VideoID     string
	Platform    string
	Status      PublishStatus
	PlatformID  string
	PlatformURL string
	ErrorDetail string
	ScheduledAt *time.Time
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type VoiceCacheEntry struct {
	Fingerprint string
	AudioPath   string
	Duration    *float64
	ByteSize    int64
	Format      string
	OwnerID     string
	CreatedAt   time.Time
	ExpiresAt   *time.Time
}

// Expired reports whether the entry carries an expiry in the past.
func (e *VoiceCacheEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && e.ExpiresAt.Before(now)
}
