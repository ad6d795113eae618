package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  http_port: 8080
database:
  host: db
  user: equiprent
  database: equiprent
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, time.Minute, cfg.Reports.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "0 0 * * * *", cfg.Scheduler.MarkOverdueRentals)
	assert.Equal(t, "0 30 2 * * *", cfg.Scheduler.ReconcileEquipment)
	assert.Equal(t, "0 0 9 * * *", cfg.Scheduler.SendOverdueReminders)
	assert.Equal(t, float64(50), cfg.API.RateLimitRPS)
	assert.Equal(t, []string{"*"}, cfg.API.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "postgres://equiprent:@db:5432/equiprent?sslmode=disable", cfg.GetDatabaseConnectionString())
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", cfg.Database.Host)
	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.CORSOrigins)
}

func TestParseRejectsBadEnvInt(t *testing.T) {
	t.Setenv("DB_PORT", "five")
	_, err := Parse([]byte(minimalYAML))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing port", "database: {host: db, user: u, database: d}", "invalid http port"},
		{"missing db host", "server: {http_port: 8080}\ndatabase: {user: u, database: d}", "database host is required"},
		{"same ports", "server: {http_port: 8080, grpc_port: 8080}\ndatabase: {host: db, user: u, database: d}", "must differ"},
		{"sendgrid without sender", minimalYAML + "email: {sendgrid_api_key: k}\n", "from_address"},
		{"negative rate", minimalYAML + "api: {rate_limit_rps: -1}\n", "rate limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"reports: {cache_ttl: 5m}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Reports.CacheTTL)
	assert.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
