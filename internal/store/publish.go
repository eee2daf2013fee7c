package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreatePublishAttempt inserts a pending attempt for one (video, platform) pair.
// Historical attempts for the same pair are allowed; idempotency is the caller's policy.
func (s *Store) CreatePublishAttempt(ctx context.Context, att *PublishAttempt) error {
	if att.ID == "" {
		att.ID = uuid.NewString()
	}
	if att.Status == "" {
		att.Status = PublishPending
	}
	now := time.Now().UTC()
	att.CreatedAt = now
	att.UpdatedAt = now

	_, err := s.execWithRetry(ctx, `
		INSERT INTO publish_attempts (id, video_id, platform, status, platform_id, platform_url,
			error_detail, scheduled_at, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		att.ID, att.VideoID, att.Platform, string(att.Status), att.PlatformID, att.PlatformURL,
		att.ErrorDetail, nullTime(att.ScheduledAt), nullTime(att.PublishedAt), att.CreatedAt, att.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert publish attempt: %w", err)
	}
	return nil
}

// MarkUploading transitions an attempt to uploading.
func (s *Store) MarkUploading(ctx context.Context, id string) error {
	return s.updateAttemptStatus(ctx, id, PublishUploading, "", "", "", nil)
}

// MarkPublished records the platform-assigned id/URL and publish timestamp.
func (s *Store) MarkPublished(ctx context.Context, id, platformID, platformURL string) error {
	now := time.Now().UTC()
	return s.updateAttemptStatus(ctx, id, PublishPublished, platformID, platformURL, "", &now)
}

// MarkPublishFailed records the error detail for the attempt.
func (s *Store) MarkPublishFailed(ctx context.Context, id, detail string) error {
	return s.updateAttemptStatus(ctx, id, PublishFailed, "", "", detail, nil)
}

func (s *Store) updateAttemptStatus(ctx context.Context, id string, status PublishStatus, platformID, platformURL, detail string, publishedAt *time.Time) error {
	_, err := s.execWithRetry(ctx, `
		UPDATE publish_attempts
		SET status = ?,
			platform_id = CASE WHEN ? != '' THEN ? ELSE platform_id END,
			platform_url = CASE WHEN ? != '' THEN ? ELSE platform_url END,
			error_detail = ?,
			published_at = COALESCE(?, published_at),
			updated_at = ?
		WHERE id = ?`,
		string(status), platformID, platformID, platformURL, platformURL,
		detail, nullTime(publishedAt), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update publish attempt: %w", err)
	}
	return nil
}

func (s *Store) GetPublishAttempt(ctx context.Context, id string) (*PublishAttempt, error) {
	row := s.db.QueryRowContext(ctx, publishAttemptColumns+" WHERE id = ?", id)
	att, err := scanPublishAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("publish attempt %s: %w", id, ErrNotFound)
	}
	return att, err
}

func (s *Store) ListPublishAttempts(ctx context.Context, videoID string) ([]*PublishAttempt, error) {
	rows, err := s.db.QueryContext(ctx, publishAttemptColumns+" WHERE video_id = ? ORDER BY created_at", videoID)
	if err != nil {
		return nil, fmt.Errorf("list publish attempts: %w", err)
	}
	return collectPublishAttempts(rows)
}

// ListDuePublishAttempts returns pending attempts whose scheduled time has passed.
func (s *Store) ListDuePublishAttempts(ctx context.Context, now time.Time) ([]*PublishAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		publishAttemptColumns+` WHERE status = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ? ORDER BY scheduled_at`,
		string(PublishPending), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("list due publish attempts: %w", err)
	}
	return collectPublishAttempts(rows)
}

const publishAttemptColumns = `
	SELECT id, video_id, platform, status, platform_id, platform_url, error_detail,
		scheduled_at, published_at, created_at, updated_at
	FROM publish_attempts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublishAttempt(row rowScanner) (*PublishAttempt, error) {
	var att PublishAttempt
	var status string
	var scheduledAt, publishedAt sql.NullTime
	err := row.Scan(&att.ID, &att.VideoID, &att.Platform, &status, &att.PlatformID,
		&att.PlatformURL, &att.ErrorDetail, &scheduledAt, &publishedAt, &att.CreatedAt, &att.UpdatedAt)
	if err != nil {
		return nil, err
	}
	att.Status = PublishStatus(status)
	att.ScheduledAt = scanNullTime(scheduledAt)
	att.PublishedAt = scanNullTime(publishedAt)
	return &att, nil
}

func collectPublishAttempts(rows *sql.Rows) ([]*PublishAttempt, error) {
	defer func() { _ = rows.Close() }()
	var attempts []*PublishAttempt
	for rows.Next() {
		att, err := scanPublishAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan publish attempt: %w", err)
		}
		attempts = append(attempts, att)
	}
	return attempts, rows.Err()
}
