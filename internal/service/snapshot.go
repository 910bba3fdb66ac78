package service

import (
	"context"

	"github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/guregu/null.v3"

	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/bgerr"
	"exusiai.dev/bgstats/internal/repo"
)

var (
	ErrSnapshotNonNullable         = errors.New("snapshot content cannot be empty")
	ErrSnapshotFromVersionNotFound = bgerr.ErrInvalidReq.Msg("snapshot matching `from` version not found")
	ErrSnapshotToVersionNotFound   = bgerr.ErrInvalidReq.Msg("snapshot matching `to` version not found")
)

// SnapshotStore is the persistence the snapshot service needs.
type SnapshotStore interface {
	GetLatestSnapshotByKey(ctx context.Context, key string) (*model.Snapshot, error)
	GetSnapshotsByVersions(ctx context.Context, key string, versions []string) ([]*model.Snapshot, error)
	ListVersions(ctx context.Context, key string, limit int) ([]*model.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) (*model.Snapshot, error)
}

// Snapshot keeps the published history of every artifact key.
type Snapshot struct {
	SnapshotRepo SnapshotStore
}

func NewSnapshot(snapshotRepo *repo.Snapshot) *Snapshot {
	return NewSnapshotWithStore(snapshotRepo)
}

func NewSnapshotWithStore(store SnapshotStore) *Snapshot {
	return &Snapshot{
		SnapshotRepo: store,
	}
}

// SaveSnapshot records content under key. Content identical to the latest
// snapshot of key is not recorded again; the latest snapshot is returned
// instead.
func (s *Snapshot) SaveSnapshot(ctx context.Context, key string, content string) (*model.Snapshot, error) {
	if content == "" {
		return nil, ErrSnapshotNonNullable
	}
	version := s.CalculateVersion(content)

	latest, err := s.SnapshotRepo.GetLatestSnapshotByKey(ctx, key)
	if err != nil && !errors.Is(err, bgerr.ErrNotFound) {
		return nil, err
	}
	if latest != nil && latest.Version == version {
		log.Trace().
			Str("evt.name", "snapshot.unchanged").
			Str("key", key).
			Str("version", version).
			Msg("content unchanged, skipping snapshot")
		return latest, nil
	}

	return s.SnapshotRepo.SaveSnapshot(ctx, &model.Snapshot{
		Key:     key,
		Version: version,
		Content: content,
	})
}

func (s *Snapshot) ListVersions(ctx context.Context, key string, limit int) ([]*model.Snapshot, error) {
	return s.SnapshotRepo.ListVersions(ctx, key, limit)
}

// GetDiffBetweenVersions returns a bsdiff patch turning the `from` content
// into the `to` content.
func (s *Snapshot) GetDiffBetweenVersions(ctx context.Context, key, fromVersion, toVersion string) ([]byte, error) {
	snapshots, err := s.SnapshotRepo.GetSnapshotsByVersions(ctx, key, []string{fromVersion, toVersion})
	if err != nil && !errors.Is(err, bgerr.ErrNotFound) {
		return nil, err
	}

	var fromContent, toContent null.String
	for _, snapshot := range snapshots {
		if snapshot.Version == fromVersion {
			fromContent = null.StringFrom(snapshot.Content)
		}
		if snapshot.Version == toVersion {
			toContent = null.StringFrom(snapshot.Content)
		}
	}

	if !fromContent.Valid {
		return nil, ErrSnapshotFromVersionNotFound
	} else if !toContent.Valid {
		return nil, ErrSnapshotToVersionNotFound
	}

	return bsdiff.Bytes([]byte(fromContent.String), []byte(toContent.String))
}

func (s *Snapshot) CalculateVersion(content string) string {
	return repo.ContentVersion([]byte(content))
}
