package model

import (
	"time"

	"github.com/uptrace/bun"
)

// Snapshot is one published version of an artifact.
type Snapshot struct {
	bun.BaseModel `bun:"snapshots"`

	SnapshotID int64      `bun:",pk,autoincrement" json:"id"`
	CreatedAt  *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt"`
	Key        string     `bun:"key" json:"key"`
	Version    string     `bun:"version" json:"version"`
	Content    string     `bun:"content" json:"-"`
}
