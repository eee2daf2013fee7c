package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateVideo inserts a new record in processing state and returns it.
func (s *Store) CreateVideo(ctx context.Context, rec *VideoRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = VideoProcessing
	}
	if rec.Format == "" {
		rec.Format = "mp4"
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.execWithRetry(ctx, `
		INSERT INTO videos (id, owner_id, title, script, output_path, thumbnail_path,
			duration, byte_size, format, aspect_ratio, width, height, status, error_detail,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.Title, rec.Script, rec.OutputPath, rec.ThumbnailPath,
		rec.Duration, rec.ByteSize, rec.Format, rec.AspectRatio, rec.Width, rec.Height,
		string(rec.Status), rec.ErrorDetail, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// CompleteVideo transitions a record to completed with its final metadata.
func (s *Store) CompleteVideo(ctx context.Context, rec *VideoRecord) error {
	rec.Status = VideoCompleted
	rec.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(ctx, `
		UPDATE videos SET output_path = ?, thumbnail_path = ?, duration = ?, byte_size = ?,
			width = ?, height = ?, status = ?, error_detail = '', updated_at = ?
		WHERE id = ?`,
		rec.OutputPath, rec.ThumbnailPath, rec.Duration, rec.ByteSize,
		rec.Width, rec.Height, string(VideoCompleted), rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("complete video: %w", err)
	}
	return nil
}

// FailVideo transitions a record to failed, retaining the causing error.
func (s *Store) FailVideo(ctx context.Context, id, detail string) error {
	_, err := s.execWithRetry(ctx, `
		UPDATE videos SET status = ?, error_detail = ?, updated_at = ? WHERE id = ?`,
		string(VideoFailed), detail, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("fail video: %w", err)
	}
	return nil
}

func (s *Store) GetVideo(ctx context.Context, id string) (*VideoRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, script, output_path, thumbnail_path, duration, byte_size,
			format, aspect_ratio, width, height, status, error_detail, created_at, updated_at
		FROM videos WHERE id = ?`, id)

	var rec VideoRecord
	var status string
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Title, &rec.Script, &rec.OutputPath,
		&rec.ThumbnailPath, &rec.Duration, &rec.ByteSize, &rec.Format, &rec.AspectRatio,
		&rec.Width, &rec.Height, &status, &rec.ErrorDetail, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	rec.Status = VideoStatus(status)
	return &rec, nil
}

// DeleteVideo removes a record; assets and publish attempts cascade.
func (s *Store) DeleteVideo(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, "DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddVideoAssets records the placement of each staged asset alongside a completed video.
func (s *Store) AddVideoAssets(ctx context.Context, videoID string, assets []VideoAsset) error {
	now := time.Now().UTC()
	for i := range assets {
		a := &assets[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.VideoID = videoID
		a.CreatedAt = now
		_, err := s.execWithRetry(ctx, `
			INSERT INTO video_assets (id, video_id, kind, provider, url, start_time, duration, position, scale, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.VideoID, a.Kind, a.Provider, a.URL, a.StartTime, a.Duration, a.Position, a.Scale, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert video asset: %w", err)
		}
	}
	return nil
}

func (s *Store) ListVideoAssets(ctx context.Context, videoID string) ([]VideoAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, video_id, kind, provider, url, start_time, duration, position, scale, created_at
		FROM video_assets WHERE video_id = ? ORDER BY start_time`, videoID)
	if err != nil {
		return nil, fmt.Errorf("list video assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var assets []VideoAsset
	for rows.Next() {
		var a VideoAsset
		if err := rows.Scan(&a.ID, &a.VideoID, &a.Kind, &a.Provider, &a.URL,
			&a.StartTime, &a.Duration, &a.Position, &a.Scale, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
