package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetVoiceCacheEntry looks up a cache entry by fingerprint. Expired entries
// are purged on access and reported as absent.
func (s *Store) GetVoiceCacheEntry(ctx context.Context, fingerprint string) (*VoiceCacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, audio_path, duration, byte_size, format, owner_id, created_at, expires_at
		FROM voice_cache WHERE fingerprint = ?`, fingerprint)

	var e VoiceCacheEntry
	var duration sql.NullFloat64
	var expiresAt sql.NullTime
	err := row.Scan(&e.Fingerprint, &e.AudioPath, &duration, &e.ByteSize, &e.Format,
		&e.OwnerID, &e.CreatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("voice cache %s: %w", fingerprint, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get voice cache entry: %w", err)
	}
	e.Duration = scanNullFloat(duration)
	e.ExpiresAt = scanNullTime(expiresAt)

	if e.Expired(time.Now()) {
		_ = s.DeleteVoiceCacheEntry(ctx, fingerprint)
		return nil, fmt.Errorf("voice cache %s expired: %w", fingerprint, ErrNotFound)
	}

	return &e, nil
}

// PutVoiceCacheEntry records a freshly synthesized artifact. An existing row
// for the fingerprint is replaced; a duplicate-synthesis race loses nothing
// but the wasted provider call.
func (s *Store) PutVoiceCacheEntry(ctx context.Context, e *VoiceCacheEntry) error {
	e.CreatedAt = time.Now().UTC()
	_, err := s.execWithRetry(ctx, `
		INSERT OR REPLACE INTO voice_cache (fingerprint, audio_path, duration, byte_size, format, owner_id, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Fingerprint, e.AudioPath, nullFloat(e.Duration), e.ByteSize, e.Format,
		e.OwnerID, e.CreatedAt, nullTime(e.ExpiresAt))
	if err != nil {
		return fmt.Errorf("put voice cache entry: %w", err)
	}
	return nil
}

func (s *Store) DeleteVoiceCacheEntry(ctx context.Context, fingerprint string) error {
	_, err := s.execWithRetry(ctx, "DELETE FROM voice_cache WHERE fingerprint = ?", fingerprint)
	if err != nil {
		return fmt.Errorf("delete voice cache entry: %w", err)
	}
	return nil
}

// PurgeVoiceCache drops every cache entry and returns how many were removed.
// Artifact files on disk are the caller's concern.
func (s *Store) PurgeVoiceCache(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM voice_cache")
	if err != nil {
		return 0, fmt.Errorf("purge voice cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge voice cache: %w", err)
	}
	return n, nil
}
