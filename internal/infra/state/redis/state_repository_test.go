package redisstate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisstate "pixel-board/internal/infra/state/redis"
	"pixel-board/internal/repository"
)

func newRepo(t *testing.T) (*redisstate.RedisStateRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisstate.NewRedisStateRepository(client, "test:"), mr
}

func TestGridRecord(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	_, err := repo.LoadGrid(ctx, 7)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	data := []byte(`["#ff0000","","",""]`)
	require.NoError(t, repo.SaveGrid(ctx, 7, data))
	assert.True(t, mr.Exists("test:board:7:dotGrid"))

	got, err := repo.LoadGrid(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, repo.DeleteGrid(ctx, 7))
	_, err = repo.LoadGrid(ctx, 7)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	require.NoError(t, repo.DeleteGrid(ctx, 7), "deleting a missing grid is not an error")
}

func TestWorkingGrid(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	_, err := repo.LoadWorkingGrid(ctx, 7)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	saved := []byte(`["#ff0000","","",""]`)
	working := []byte(`["#ff0000","#00ff00","",""]`)
	require.NoError(t, repo.SaveGrid(ctx, 7, saved))
	require.NoError(t, repo.SaveWorkingGrid(ctx, 7, working))
	assert.True(t, mr.Exists("test:board:7:workingGrid"))

	got, err := repo.LoadWorkingGrid(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, working, got)
	got, err = repo.LoadGrid(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, saved, got, "the working copy never overwrites the saved record")

	require.NoError(t, repo.DeleteGrid(ctx, 7))
	_, err = repo.LoadWorkingGrid(ctx, 7)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.Empty(t, mr.Keys())
}

func TestVersions(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	v, err := repo.GetCurrentVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)

	for want := uint(1); want <= 3; want++ {
		v, err = repo.IncrementVersion(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
	v, err = repo.GetCurrentVersion(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(3), v)
}

func TestCheckRateLimit(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		over, err := repo.CheckRateLimit(ctx, "rl:ip", 3, time.Second)
		require.NoError(t, err)
		assert.False(t, over, "request %d", i+1)
	}
	over, err := repo.CheckRateLimit(ctx, "rl:ip", 3, time.Second)
	require.NoError(t, err)
	assert.True(t, over)

	mr.FastForward(2 * time.Second)
	over, err = repo.CheckRateLimit(ctx, "rl:ip", 3, time.Second)
	require.NoError(t, err)
	assert.False(t, over)
}

func TestLastSnapshotTime(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	ts, err := repo.GetLastSnapshotTime(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	now := time.Now()
	require.NoError(t, repo.SetLastSnapshotTime(ctx, 2, now, time.Hour))
	ts, err = repo.GetLastSnapshotTime(ctx, 2)
	require.NoError(t, err)
	assert.True(t, now.Equal(ts))
	assert.Equal(t, time.Hour, mr.TTL("test:board:2:last_snapshot"))
}

func TestCleanupBoardState(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveGrid(ctx, 4, []byte("[]")))
	require.NoError(t, repo.SaveWorkingGrid(ctx, 4, []byte("[]")))
	_, err := repo.IncrementVersion(ctx, 4)
	require.NoError(t, err)
	require.NoError(t, repo.SetLastSnapshotTime(ctx, 4, time.Now(), 0))

	require.NoError(t, repo.CleanupBoardState(ctx, 4))
	assert.Empty(t, mr.Keys())
}

func TestDefaultPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	repo := redisstate.NewRedisStateRepository(client, "")
	require.NoError(t, repo.SaveGrid(context.Background(), 1, []byte("[]")))
	assert.True(t, mr.Exists(redisstate.DefaultKeyPrefix+"board:1:dotGrid"))
}
