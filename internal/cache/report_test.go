package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*ReportCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	return NewReportCache(client, time.Minute), mr
}

func TestReportCache_Miss(t *testing.T) {
	c, _ := setupCache(t)

	report, err := c.Get(context.Background(), "report:active")
	require.NoError(t, err)
	assert.Nil(t, report)
}

func TestReportCache_RoundTripKeepsIntegers(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	in := &domain.Report{
		Name:    domain.ReportMonthlyRevenue,
		Columns: []string{"month", "revenue_cents"},
		Rows:    []map[string]any{{"month": "2024-01", "revenue_cents": int64(1234567890123)}},
	}
	require.NoError(t, c.Set(ctx, "report:monthly", in))
	assert.True(t, mr.Exists("equiprent:report:monthly"))
	assert.Equal(t, time.Minute, mr.TTL("equiprent:report:monthly"))

	out, err := c.Get(ctx, "report:monthly")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, json.Number("1234567890123"), out.Rows[0]["revenue_cents"])
	assert.Equal(t, "2024-01", out.Rows[0]["month"])
}

func TestReportCache_Expires(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "report:active", &domain.Report{Name: domain.ReportActiveRentals}))
	mr.FastForward(2 * time.Minute)

	out, err := c.Get(ctx, "report:active")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestReportCache_CorruptEntry(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set("equiprent:report:active", "{not json"))

	_, err := c.Get(context.Background(), "report:active")
	require.Error(t, err)
}

func TestReportCache_ServerDown(t *testing.T) {
	c, mr := setupCache(t)
	mr.Close()

	_, err := c.Get(context.Background(), "report:active")
	require.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewRedisClientDisabled(t *testing.T) {
	assert.Nil(t, NewRedisClient(config.RedisConfig{}))
}
