package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/core/shard"
	"exusiai.dev/bgstats/internal/core/tribeset"
	"exusiai.dev/bgstats/internal/pkg/blobstore"
	"exusiai.dev/bgstats/internal/pkg/cache"
)

const (
	contentPoolTTL = 10 * time.Minute

	tribesSegmentPrefix  = "tribes-"
	anomalySegmentPrefix = "anomaly-"
)

// Content is the active content of the hero shards: every tribe seen in a
// tribe subset folder and every anomaly folder.
type Content struct {
	Tribes    []int
	Anomalies []string
}

// ContentPool lists the active tribes and anomalies from the shard folders
// the producers wrote.
type ContentPool struct {
	bucket blobstore.Bucket
	prefix string

	cache *cache.Singular[Content]
}

func NewContentPool(bucket blobstore.Bucket, conf *appconfig.Config) *ContentPool {
	return NewContentPoolWithPrefix(bucket, conf.ShardPrefix)
}

func NewContentPoolWithPrefix(bucket blobstore.Bucket, prefix string) *ContentPool {
	return &ContentPool{
		bucket: bucket,
		prefix: prefix,
		cache:  cache.NewSingular[Content]("content-pool"),
	}
}

func (s *ContentPool) Content(ctx context.Context) (Content, error) {
	return s.cache.MutexGetSet(func() (Content, error) {
		return s.list(ctx)
	}, contentPoolTTL)
}

func (s *ContentPool) Tribes(ctx context.Context) ([]int, error) {
	c, err := s.Content(ctx)
	return c.Tribes, err
}

func (s *ContentPool) Anomalies(ctx context.Context) ([]string, error) {
	c, err := s.Content(ctx)
	return c.Anomalies, err
}

// Invalidate drops the cached listing.
func (s *ContentPool) Invalidate() {
	s.cache.Delete()
}

func (s *ContentPool) list(ctx context.Context) (Content, error) {
	folders, err := s.bucket.ListPrefixes(ctx, s.prefix+"/"+shard.EntityHero.Folder())
	if err != nil {
		return Content{}, err
	}

	var c Content
	for _, folder := range folders {
		switch {
		case strings.HasPrefix(folder, anomalySegmentPrefix):
			if anomaly := strings.TrimPrefix(folder, anomalySegmentPrefix); anomaly != "" {
				c.Anomalies = append(c.Anomalies, anomaly)
			}
		case strings.HasPrefix(folder, tribesSegmentPrefix):
			subset, err := tribeset.ParseKey(strings.TrimPrefix(folder, tribesSegmentPrefix))
			if err != nil {
				log.Warn().
					Err(err).
					Str("evt.name", "content_pool.invalid_folder").
					Str("folder", folder).
					Msg("ignoring tribe folder with an invalid key")
				continue
			}
			c.Tribes = append(c.Tribes, subset...)
		}
	}

	c.Tribes = lo.Uniq(c.Tribes)
	slices.Sort(c.Tribes)
	c.Anomalies = lo.Uniq(c.Anomalies)
	slices.Sort(c.Anomalies)

	log.Debug().
		Str("evt.name", "content_pool.listed").
		Str("tribes", strings.Join(lo.Map(c.Tribes, func(t int, _ int) string { return strconv.Itoa(t) }), ",")).
		Int("anomalies", len(c.Anomalies)).
		Msg("listed active content")
	return c, nil
}
