package storage

import "context"

// Backend stores rendered artifacts and hands out supporting media.
// Store returns a URL under which the artifact is reachable afterwards.
type Backend interface {
	Store(ctx context.Context, localPath, name string) (string, error)
	RandomMusicTrack(ctx context.Context) (string, error)
}
