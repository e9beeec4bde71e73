package report

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueryCache(client, 30*time.Second), mr
}

func countingLoad(calls *int32, reports ...Report) func(context.Context) ([]Report, error) {
	return func(context.Context) ([]Report, error) {
		atomic.AddInt32(calls, 1)
		return reports, nil
	}
}

func TestQueryCacheWithoutRedisLoadsEachTime(t *testing.T) {
	ctx := context.Background()
	c := NewQueryCache(nil, 0)

	var calls int32
	load := countingLoad(&calls, Report{Title: "a"})

	for i := 0; i < 3; i++ {
		got, err := c.Reports(ctx, CacheKeyAll, load)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, titles(got))
	}
	assert.Equal(t, int32(3), calls)

	c.Invalidate(ctx, CacheKeyAll)
}

func TestQueryCachePassesLoadError(t *testing.T) {
	c := NewQueryCache(nil, 0)
	boom := errors.New("boom")

	_, err := c.Reports(context.Background(), CacheKeyAll, func(context.Context) ([]Report, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestQueryCacheStoresMissAndServesHit(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	var calls int32
	load := countingLoad(&calls, Report{Title: "a"}, Report{Title: "b"})

	got, err := c.Reports(ctx, CacheKeyAll, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(got))
	assert.True(t, mr.Exists(CacheKeyAll))
	assert.Equal(t, 30*time.Second, mr.TTL(CacheKeyAll))

	got, err = c.Reports(ctx, CacheKeyAll, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(got))
	assert.Equal(t, int32(1), calls)
}

func TestQueryCacheServesExistingEntry(t *testing.T) {
	c, mr := newRedisCache(t)
	data, err := json.Marshal([]Report{{Title: "cached"}})
	require.NoError(t, err)
	require.NoError(t, mr.Set(CacheKeyAll, string(data)))

	var calls int32
	got, err := c.Reports(context.Background(), CacheKeyAll, countingLoad(&calls, Report{Title: "fresh"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"cached"}, titles(got))
	assert.Zero(t, calls)
}

func TestQueryCacheReplacesUnreadableEntry(t *testing.T) {
	c, mr := newRedisCache(t)
	require.NoError(t, mr.Set(CacheKeyAll, "{not json"))

	var calls int32
	got, err := c.Reports(context.Background(), CacheKeyAll, countingLoad(&calls, Report{Title: "fresh"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, titles(got))
	assert.Equal(t, int32(1), calls)

	stored, err := mr.Get(CacheKeyAll)
	require.NoError(t, err)
	var reports []Report
	require.NoError(t, json.Unmarshal([]byte(stored), &reports))
	assert.Equal(t, []string{"fresh"}, titles(reports))
}

func TestQueryCacheInvalidateDeletesEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	var calls int32
	_, err := c.Reports(ctx, CacheKeyAll, countingLoad(&calls, Report{Title: "a"}))
	require.NoError(t, err)
	require.True(t, mr.Exists(CacheKeyAll))

	c.Invalidate(ctx, CacheKeyAll)
	assert.False(t, mr.Exists(CacheKeyAll))

	got, err := c.Reports(ctx, CacheKeyAll, countingLoad(&calls, Report{Title: "b"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(got))
	assert.Equal(t, int32(2), calls)
}

func TestQueryCacheDropsLoadStartedBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan []Report, 1)
	go func() {
		got, _ := c.Reports(ctx, CacheKeyAll, func(context.Context) ([]Report, error) {
			close(started)
			<-release
			return []Report{{Title: "stale"}}, nil
		})
		done <- got
	}()

	<-started
	c.Invalidate(ctx, CacheKeyAll)
	close(release)
	assert.Equal(t, []string{"stale"}, titles(<-done))
	assert.False(t, mr.Exists(CacheKeyAll))

	var calls int32
	got, err := c.Reports(ctx, CacheKeyAll, countingLoad(&calls, Report{Title: "fresh"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, titles(got))
	assert.Equal(t, int32(1), calls)
}

func TestQueryCacheCollapsesConcurrentLoads(t *testing.T) {
	c, _ := newRedisCache(t)

	var calls int32
	release := make(chan struct{})
	load := func(context.Context) ([]Report, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []Report{{Title: "a"}}, nil
	}

	var wg sync.WaitGroup
	results := make([][]Report, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Reports(context.Background(), CacheKeyAll, load)
		}(i)
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, got := range results {
		assert.Equal(t, []string{"a"}, titles(got))
	}
}

func TestQueryCacheSharedLoadSurvivesCancelledCaller(t *testing.T) {
	c := NewQueryCache(nil, 0)

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	load := func(ctx context.Context) ([]Report, error) {
		started <- struct{}{}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []Report{{Title: "a"}}, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Reports(ctxA, CacheKeyAll, load)
		errA <- err
	}()
	<-started

	type result struct {
		reports []Report
		err     error
	}
	resB := make(chan result, 1)
	go func() {
		got, err := c.Reports(context.Background(), CacheKeyAll, load)
		resB <- result{got, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, []string{"a"}, titles(b.reports))
}

// pausingRepo holds its first List until resume is closed, after reading rows
type pausingRepo struct {
	*fakeRepo
	paused atomic.Bool
	listed chan struct{}
	resume chan struct{}
}

func (p *pausingRepo) List(ctx context.Context) ([]Row, error) {
	rows, err := p.fakeRepo.List(ctx)
	if p.paused.CompareAndSwap(false, true) {
		close(p.listed)
		<-p.resume
	}
	return rows, err
}

func TestFetchAllAfterCreateIgnoresInFlightLoad(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)
	repo := &pausingRepo{fakeRepo: newFakeRepo(), listed: make(chan struct{}), resume: make(chan struct{})}
	svc := NewService(repo, c, &fakeUploader{}, &recordingPublisher{}, testMaxPhoto)

	stale := make(chan []Report, 1)
	go func() {
		got, _ := svc.FetchAll(ctx)
		stale <- got
	}()
	<-repo.listed

	created, err := svc.Create(ctx, uuid.New(), validInput())
	require.NoError(t, err)
	close(repo.resume)
	assert.Empty(t, <-stale)

	all, err := svc.FetchAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	assert.Equal(t, created.ID, all[0].ID)
}
