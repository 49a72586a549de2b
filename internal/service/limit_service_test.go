package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ehs-data/internal/domain"
	"ehs-data/internal/repository"
	"ehs-data/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLimitsRepo 内存版 ExposureLimitsRepository，记录 DB 命中次数
type fakeLimitsRepo struct {
	limits       map[string]*domain.ExposureLimit // profileKey|analyte
	resolveCalls int
	upsertErr    error
}

func newFakeLimitsRepo() *fakeLimitsRepo {
	return &fakeLimitsRepo{limits: make(map[string]*domain.ExposureLimit)}
}

func (f *fakeLimitsRepo) ResolveLimit(ctx context.Context, orgID, profileKey, analyte string) (*domain.ExposureLimit, error) {
	f.resolveCalls++
	limit, ok := f.limits[profileKey+"|"+analyte]
	if !ok {
		return nil, repository.ErrLimitNotFound
	}
	return limit, nil
}

func (f *fakeLimitsRepo) UpsertLimit(ctx context.Context, orgID string, limit *domain.ExposureLimit) (string, error) {
	if f.upsertErr != nil {
		return "", f.upsertErr
	}
	f.limits[limit.ProfileKey+"|"+limit.Analyte] = limit
	return "limit-1", nil
}

func (f *fakeLimitsRepo) ListLimits(ctx context.Context, orgID string) ([]*domain.ExposureLimit, error) {
	var out []*domain.ExposureLimit
	for _, l := range f.limits {
		out = append(out, l)
	}
	return out, nil
}

func newTestKV(t *testing.T) (store.KV, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return store.NewRedisKV(client), mr
}

func TestLimitService_ResolveCachesAfterFirstHit(t *testing.T) {
	repo := newFakeLimitsRepo()
	repo.limits["osha_construction|asbestos"] = pelLimit(0.1)
	kv, _ := newTestKV(t)
	svc := NewLimitService(repo, kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "asbestos")
	require.NoError(t, err)
	require.NotNil(t, first.PEL)
	assert.Equal(t, 1, repo.resolveCalls)

	// 第二次命中缓存，不再查库
	second, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "asbestos")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.resolveCalls)
	assert.Equal(t, *first.PEL, *second.PEL)
}

func TestLimitService_NotFoundIsNotCached(t *testing.T) {
	repo := newFakeLimitsRepo()
	kv, _ := newTestKV(t)
	svc := NewLimitService(repo, kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "lead")
	require.ErrorIs(t, err, repository.ErrLimitNotFound)

	// 限值配好后立刻可见
	repo.limits["osha_construction|lead"] = &domain.ExposureLimit{
		ProfileKey: "osha_construction", Analyte: "lead", Units: "ug/m3", PEL: floatPtr(50),
	}
	limit, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "lead")
	require.NoError(t, err)
	assert.Equal(t, 50.0, *limit.PEL)
}

func TestLimitService_UpsertInvalidatesCache(t *testing.T) {
	repo := newFakeLimitsRepo()
	repo.limits["osha_construction|asbestos"] = pelLimit(0.1)
	kv, _ := newTestKV(t)
	svc := NewLimitService(repo, kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "asbestos")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.resolveCalls)

	// 改限值 ⇒ 缓存键失效，下次解析回库拿新值
	_, err = svc.UpsertLimit(ctx, "org-1", &domain.ExposureLimit{
		ProfileKey: "osha_construction", Analyte: "asbestos", Units: "f/cc", PEL: floatPtr(0.05),
	})
	require.NoError(t, err)

	limit, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "asbestos")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.resolveCalls)
	assert.Equal(t, 0.05, *limit.PEL)
}

func TestLimitService_CorruptCacheFallsThroughToDB(t *testing.T) {
	repo := newFakeLimitsRepo()
	repo.limits["osha_construction|asbestos"] = pelLimit(0.1)
	kv, mr := newTestKV(t)
	svc := NewLimitService(repo, kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	mr.Set("ehs:limit:org-1:osha_construction:asbestos", "{not json")

	limit, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "asbestos")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.resolveCalls)
	assert.Equal(t, 0.1, *limit.PEL)
}

func TestLimitService_RedisDownDegradesToDB(t *testing.T) {
	repo := newFakeLimitsRepo()
	repo.limits["osha_construction|asbestos"] = pelLimit(0.1)
	kv, mr := newTestKV(t)
	svc := NewLimitService(repo, kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	mr.Close()

	// Redis 挂了只是降级直连，不是故障
	limit, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "asbestos")
	require.NoError(t, err)
	assert.Equal(t, 0.1, *limit.PEL)
	assert.Equal(t, 1, repo.resolveCalls)
}

func TestLimitService_NilKVDisablesCache(t *testing.T) {
	repo := newFakeLimitsRepo()
	repo.limits["osha_construction|asbestos"] = pelLimit(0.1)
	svc := NewLimitService(repo, nil, time.Minute, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.ResolveLimit(ctx, "org-1", "osha_construction", "asbestos")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.resolveCalls)
}

func TestLimitService_UpsertErrorPropagates(t *testing.T) {
	repo := newFakeLimitsRepo()
	repo.upsertErr = errors.New("constraint violation")
	svc := NewLimitService(repo, nil, 0, zap.NewNop())

	_, err := svc.UpsertLimit(context.Background(), "org-1", pelLimit(0.1))
	assert.Error(t, err)
}
