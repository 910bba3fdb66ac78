package repo

import (
	"context"

	"github.com/uptrace/bun"

	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/repo/selector"
)

type Snapshot struct {
	db *bun.DB

	sel selector.S[model.Snapshot]
}

func NewSnapshot(db *bun.DB) *Snapshot {
	return &Snapshot{
		db:  db,
		sel: selector.New[model.Snapshot](db),
	}
}

// CreateTable creates the snapshots table and its lookup index when missing.
func (s *Snapshot) CreateTable(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*model.Snapshot)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}
	_, err := s.db.NewCreateIndex().
		Model((*model.Snapshot)(nil)).
		Index("snapshots_key_version_idx").
		IfNotExists().
		Column("key", "version").
		Exec(ctx)
	return err
}

func (s *Snapshot) GetLatestSnapshotByKey(ctx context.Context, key string) (*model.Snapshot, error) {
	return s.sel.SelectOne(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("key = ?", key).OrderExpr("snapshot_id DESC").Limit(1)
	})
}

func (s *Snapshot) GetSnapshotsByVersions(ctx context.Context, key string, versions []string) ([]*model.Snapshot, error) {
	return s.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("key = ?", key).Where("version IN (?)", bun.In(versions))
	})
}

// ListVersions returns the snapshot headers of key, newest first, without content.
func (s *Snapshot) ListVersions(ctx context.Context, key string, limit int) ([]*model.Snapshot, error) {
	return s.sel.SelectMany(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.ExcludeColumn("content").Where("key = ?", key).OrderExpr("snapshot_id DESC").Limit(limit)
	})
}

func (s *Snapshot) SaveSnapshot(ctx context.Context, snapshot *model.Snapshot) (*model.Snapshot, error) {
	_, err := s.db.NewInsert().
		Model(snapshot).
		Returning("snapshot_id, created_at").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}
