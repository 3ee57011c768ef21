package data

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"biolinkbot/internal/biz"
	"biolinkbot/internal/conf"
	"biolinkbot/internal/pkg/abuse"
	"biolinkbot/internal/pkg/bloom"
	"biolinkbot/internal/pkg/hash"
	pkgredis "biolinkbot/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	verdictKeyPrefix = "verdict:"
	verdictBloomKey  = "verdict:bloom"
	verdictBloomBits = 1 << 20
	verdictBloomHash = 14

	defaultVerdictTTL = 6 * time.Hour
)

// verdictCacheRepo stores classifier verdicts in Redis behind a bloom
// prefilter, so the common miss path costs one Lua call instead of a GET.
type verdictCacheRepo struct {
	cache pkgredis.Cache
	bloom *bloom.Filter
	ttl   time.Duration
	log   *log.Helper
}

// NewVerdictCacheRepo creates a new VerdictCacheRepo.
func NewVerdictCacheRepo(cache pkgredis.Cache, c *conf.Moderation, logger log.Logger) biz.VerdictCacheRepo {
	ttl := defaultVerdictTTL
	if c.Abuse.CacheTTLMinutes > 0 {
		ttl = time.Duration(c.Abuse.CacheTTLMinutes) * time.Minute
	}
	return &verdictCacheRepo{
		cache: cache,
		bloom: bloom.New(cache, verdictBloomKey, verdictBloomBits, verdictBloomHash),
		ttl:   ttl,
		log:   log.NewHelper(logger),
	}
}

// Get looks up a cached verdict. Bloom bit locations are derived from the
// xxhash of the content hash, not its raw hex, so probe data stays 8 bytes.
func (r *verdictCacheRepo) Get(ctx context.Context, contentHash string) (*abuse.Verdict, error) {
	ok, err := r.bloom.Exists(ctx, hash.FastHash(contentHash))
	if err != nil {
		r.log.Warnf("verdict bloom check failed: %v", err)
	} else if !ok {
		return nil, nil
	}

	raw, err := r.cache.GetBytes(ctx, verdictKeyPrefix+contentHash)
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var v abuse.Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *verdictCacheRepo) Put(ctx context.Context, contentHash string, v *abuse.Verdict) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.cache.SetBytes(ctx, verdictKeyPrefix+contentHash, raw, r.ttl); err != nil {
		return err
	}
	if err := r.bloom.Add(ctx, hash.FastHash(contentHash)); err != nil {
		r.log.Warnf("verdict bloom add failed: %v", err)
		return nil
	}
	// Bitset bits cannot be cleared per entry; the whole set expires at
	// twice the entry TTL so bits for long-expired verdicts age out.
	if _, err := r.cache.Expire(ctx, verdictBloomKey, int(2*r.ttl/time.Second)); err != nil {
		r.log.Warnf("verdict bloom expire failed: %v", err)
	}
	return nil
}
