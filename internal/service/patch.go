package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"github.com/valyala/fasthttp"

	"exusiai.dev/bgstats/internal/app/appconfig"
	"exusiai.dev/bgstats/internal/model"
	"exusiai.dev/bgstats/internal/pkg/cache"
)

const patchCacheKey = "active"

var (
	ErrPatchInfoMalformed = errors.New("patch info document is malformed")
	ErrPatchNotListed     = errors.New("current battlegrounds patch is not listed")
)

var patchDateLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

// PatchSource fetches the raw patch info document.
type PatchSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type patchCache interface {
	MutexGetSet(ctx context.Context, key string, valueFunc func(ctx context.Context) (model.Patch, error), expire time.Duration) (model.Patch, error)
}

type httpPatchSource struct {
	url    string
	client *fasthttp.Client
}

func (s httpPatchSource) Fetch(ctx context.Context) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := s.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, errors.Wrap(err, "failed to fetch patch info")
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, errors.Errorf("failed to fetch patch info: unexpected status %d", resp.StatusCode())
	}
	if string(resp.Header.ContentEncoding()) == "gzip" {
		body, err := resp.BodyGunzip()
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode patch info body")
		}
		return body, nil
	}
	return append([]byte(nil), resp.Body()...), nil
}

// Patch resolves the Battlegrounds patch currently live.
type Patch struct {
	source PatchSource
	cache  patchCache
	ttl    time.Duration
}

func NewPatch(conf *appconfig.Config, set *cache.Set[model.Patch]) *Patch {
	return NewPatchWithSource(httpPatchSource{
		url:    conf.PatchInfoURL,
		client: &fasthttp.Client{Name: "bgstats"},
	}, set, conf.PatchInfoTTL)
}

func NewPatchWithSource(source PatchSource, c patchCache, ttl time.Duration) *Patch {
	return &Patch{source: source, cache: c, ttl: ttl}
}

func (s *Patch) Active(ctx context.Context) (*model.Patch, error) {
	p, err := s.cache.MutexGetSet(ctx, patchCacheKey, func(ctx context.Context) (model.Patch, error) {
		body, err := s.source.Fetch(ctx)
		if err != nil {
			return model.Patch{}, err
		}
		p, err := ParsePatchInfo(body)
		if err != nil {
			return model.Patch{}, err
		}
		log.Info().
			Str("evt.name", "patch.refreshed").
			Int("patch", p.Number).
			Time("date", p.Date).
			Msg("active patch refreshed")
		return *p, nil
	}, s.ttl)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ParsePatchInfo picks the patch named by currentBattlegroundsMetaPatch out of
// the patch list.
func ParsePatchInfo(body []byte) (*model.Patch, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrPatchInfoMalformed
	}
	doc := gjson.ParseBytes(body)
	current := doc.Get("currentBattlegroundsMetaPatch")
	if !current.Exists() {
		return nil, errors.Wrap(ErrPatchInfoMalformed, "missing currentBattlegroundsMetaPatch")
	}

	var found gjson.Result
	doc.Get("patches").ForEach(func(_, p gjson.Result) bool {
		if p.Get("number").Int() == current.Int() {
			found = p
			return false
		}
		return true
	})
	if !found.Exists() {
		return nil, errors.Wrapf(ErrPatchNotListed, "patch %d", current.Int())
	}

	date, err := parsePatchDate(found.Get("date").String())
	if err != nil {
		return nil, err
	}
	return &model.Patch{
		Number:  int(found.Get("number").Int()),
		Version: found.Get("version").String(),
		Date:    date,
	}, nil
}

func parsePatchDate(s string) (time.Time, error) {
	for _, layout := range patchDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrPatchInfoMalformed, "invalid patch date %q", s)
}
