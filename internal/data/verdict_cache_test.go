package data

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	"biolinkbot/internal/conf"
	"biolinkbot/internal/pkg/abuse"
	"biolinkbot/internal/pkg/bloom"
	"biolinkbot/internal/pkg/hash"

	"github.com/go-kratos/kratos/v2/log"
	goredis "github.com/redis/go-redis/v9"
)

// fakeRedis records cache traffic. ScriptRun does not interpret the Lua; it
// records the probed offsets and replies with a canned membership answer.
type fakeRedis struct {
	values  map[string][]byte
	gets    int
	probes  [][]string
	expires map[string]int
	member  int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values:  make(map[string][]byte),
		expires: make(map[string]int),
		member:  1,
	}
}

func (f *fakeRedis) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.values[key] = value
	return nil
}

func (f *fakeRedis) GetBytes(_ context.Context, key string) ([]byte, error) {
	f.gets++
	v, ok := f.values[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (f *fakeRedis) ScriptRun(_ context.Context, _ *goredis.Script, keys []string, args ...any) (any, error) {
	f.probes = append(f.probes, append([]string{keys[0]}, args[0].([]string)...))
	return f.member, nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) (int64, error) {
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeRedis) Expire(_ context.Context, key string, seconds int) (bool, error) {
	f.expires[key] = seconds
	return true, nil
}

func newVerdictRepo(cache *fakeRedis) *verdictCacheRepo {
	c := &conf.Moderation{Abuse: conf.Abuse{CacheTTLMinutes: 60}}
	return NewVerdictCacheRepo(cache, c, log.NewStdLogger(io.Discard)).(*verdictCacheRepo)
}

func TestVerdictCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newFakeRedis()
	repo := newVerdictRepo(cache)

	key := hash.HashTextSha256("you utter nuisance")
	want := &abuse.Verdict{IsAbusive: true, Confidence: 0.93, Reason: "api"}
	if err := repo.Put(ctx, key, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || *got != *want {
		t.Errorf("Get = %+v; want %+v", got, want)
	}

	// Put refreshes the bitset expiry so stale bloom bits age out.
	if secs := cache.expires[verdictBloomKey]; secs != int(2*time.Hour/time.Second) {
		t.Errorf("bloom bitset TTL = %ds; want %ds", secs, int(2*time.Hour/time.Second))
	}
}

func TestVerdictCacheBloomMissSkipsRead(t *testing.T) {
	cache := newFakeRedis()
	cache.member = 0
	repo := newVerdictRepo(cache)

	v, err := repo.Get(context.Background(), hash.HashTextSha256("never classified"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != nil {
		t.Errorf("Get = %+v; want nil", v)
	}
	if cache.gets != 0 {
		t.Errorf("cache read ran %d times despite bloom miss", cache.gets)
	}
}

func TestVerdictCacheProbesByFastHash(t *testing.T) {
	ctx := context.Background()
	cache := newFakeRedis()
	repo := newVerdictRepo(cache)

	key := hash.HashTextSha256("some ordinary sentence")
	if err := repo.Put(ctx, key, &abuse.Verdict{Reason: "api"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A reference filter fed the xxhash of the content key must hit the
	// same bit offsets the repo probed.
	ref := newFakeRedis()
	f := bloom.New(ref, verdictBloomKey, verdictBloomBits, verdictBloomHash)
	if err := f.Add(ctx, hash.FastHash(key)); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if len(cache.probes) != 1 {
		t.Fatalf("probes = %d; want 1", len(cache.probes))
	}
	if !reflect.DeepEqual(cache.probes[0], ref.probes[0]) {
		t.Errorf("probe offsets %v; want %v", cache.probes[0], ref.probes[0])
	}

	if _, err := repo.Get(ctx, key); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(cache.probes[1], cache.probes[0]) {
		t.Errorf("read probed %v; write probed %v", cache.probes[1], cache.probes[0])
	}
}
