package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"progress-server-go/models"
)

func newTestService(t *testing.T, ttl time.Duration, max int64) (*RedisService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := InitializeRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisService(client, ttl, max, zap.NewNop()), mr
}

func report(id string, at time.Time) *models.Report {
	return &models.Report{
		ID:          id,
		Name:        "Asha",
		RollNo:      "R-" + id,
		Category:    "High Improvement",
		Color:       "#abe5a7",
		Reasons:     []string{"Strong upward trend in weekly test scores"},
		Scores:      [5]int{40, 45, 55, 70, 85},
		GeneratedAt: at,
	}
}

func TestSaveAndGet(t *testing.T) {
	s, _ := newTestService(t, time.Hour, 10)
	ctx := context.Background()
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, report("a", at)))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "R-a", got.RollNo)
	assert.Equal(t, [5]int{40, 45, 55, 70, 85}, got.Scores)
	assert.True(t, at.Equal(got.GeneratedAt))

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrReportNotFound)

	assert.Error(t, s.Save(ctx, &models.Report{}))
}

func TestRecentOrderAndTrim(t *testing.T) {
	s, _ := newTestService(t, 0, 3)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, report(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"r4", "r3", "r2"}, ids)

	got, err = s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r4", got[0].ID)

	got, err = s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestTrimDeletesEvictedReports(t *testing.T) {
	s, mr := newTestService(t, 0, 2)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, report(fmt.Sprintf("r%d", i), base.Add(time.Duration(i)*time.Minute))))
	}

	assert.Equal(t, []string{"report:r3", "report:r4", "reports"}, mr.Keys())
	members, err := mr.ZMembers(reportsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r4"}, members)

	for _, id := range []string{"r0", "r1", "r2"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrReportNotFound, id)
	}
	got, err := s.Get(ctx, "r4")
	require.NoError(t, err)
	assert.Equal(t, "R-r4", got.RollNo)
}

func TestRecentDropsExpired(t *testing.T) {
	s, mr := newTestService(t, time.Minute, 10)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, report("old", base)))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, s.Save(ctx, report("new", base.Add(time.Hour))))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)

	members, err := mr.ZMembers(reportsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, members)
}

func TestInitializeRedisClientUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := InitializeRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
