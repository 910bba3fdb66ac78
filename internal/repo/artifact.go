package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/sjson"
	"github.com/zeebo/xxh3"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/blobstore"
)

const (
	artifactStatsFile      = "overview-from-hourly.gz.json"
	artifactPercentileFile = "mmr-percentiles.gz.json"
)

// Stamped is an artifact as written: the JSON body carries its own content
// version.
type Stamped struct {
	Key     string
	Version string
	Body    []byte
}

// ContentVersion is the xxh3 digest of content, hex encoded.
func ContentVersion(content []byte) string {
	return strconv.FormatUint(xxh3.Hash(content), 16)
}

// Artifact persists the merged statistics. Writes overwrite, so re-running a
// job is idempotent.
type Artifact struct {
	bucket   blobstore.Bucket
	prefix   string
	attempts uint
}

func NewArtifact(bucket blobstore.Bucket, conf *appconfig.Config) *Artifact {
	return NewArtifactWithPrefix(bucket, conf.ArtifactPrefix, conf.RetryAttempts)
}

func NewArtifactWithPrefix(bucket blobstore.Bucket, prefix string, attempts uint) *Artifact {
	if attempts == 0 {
		attempts = 1
	}
	return &Artifact{bucket: bucket, prefix: prefix, attempts: attempts}
}

// StatsKey is e.g. api/bgs/stats/hero-stats/tribes-1-2-3-4-5/mmr-25/last-patch/overview-from-hourly.gz.json
func (a *Artifact) StatsKey(s model.Selector) string {
	return fmt.Sprintf("%s/%s-stats/%smmr-%d/%s/%s",
		a.prefix, s.Entity, filterSegment(s.Filter), s.MmrPercentile, s.TimePeriod, artifactStatsFile)
}

func (a *Artifact) PercentileKey(entity shard.Entity, period model.TimePeriod) string {
	return fmt.Sprintf("%s/%s-stats/%s/%s", a.prefix, entity, period, artifactPercentileFile)
}

// Put encodes v, stamps its content version under "version" and writes it.
func (a *Artifact) Put(ctx context.Context, key string, v any) (Stamped, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Stamped{}, errors.Wrap(err, "failed to encode artifact")
	}
	version := ContentVersion(body)
	body, err = sjson.SetBytes(body, "version", version)
	if err != nil {
		return Stamped{}, errors.Wrap(err, "failed to stamp artifact version")
	}

	err = retry.Do(
		func() error {
			return a.bucket.PutGzip(ctx, key, body)
		},
		retry.Context(ctx),
		retry.Attempts(a.attempts),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return Stamped{}, errors.Wrapf(err, "failed to put artifact %s", key)
	}
	return Stamped{Key: key, Version: version, Body: body}, nil
}

// Get returns the decompressed artifact body.
func (a *Artifact) Get(ctx context.Context, key string) ([]byte, error) {
	return a.bucket.Get(ctx, key)
}
