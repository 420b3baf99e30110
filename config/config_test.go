package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progress-server-go/scorer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.False(t, c.Archive.Enabled)

	p, err := c.Policy()
	require.NoError(t, err)
	assert.Equal(t, scorer.PolicySlope, p.Name)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  mode: debug
  shutdown_timeout: 2s
log:
  level: debug
scoring:
  policy: growth
archive:
  enabled: true
  addr: "redis:6379"
  ttl: 1h
  max_entries: 10
`)
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, "debug", c.Server.Mode)
	assert.Equal(t, 2*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, "debug", c.Log.Level)
	assert.True(t, c.Archive.Enabled)
	assert.Equal(t, time.Hour, c.Archive.TTL)
	assert.Equal(t, int64(10), c.Archive.MaxEntries)

	p, err := c.Policy()
	require.NoError(t, err)
	assert.Equal(t, scorer.PolicyGrowth, p.Name)
}

func TestLoadInlineTable(t *testing.T) {
	path := writeConfig(t, `
scoring:
  table:
    name: strict
    signal: slope
    metric_label: Weekly Gain
    bands:
      - category: High Improvement
        color: "#00ff00"
        min: 5
        exclusive: true
      - category: Low Improvement
        color: "#ff0000"
    indicators:
      - indicator: attendance_pct
        min: 90
        met: Great attendance
        unmet: Attend more classes
`)
	c, err := Load(path)
	require.NoError(t, err)

	p, err := c.Policy()
	require.NoError(t, err)
	assert.Equal(t, "strict", p.Name)
	require.Len(t, p.Bands, 2)
	require.NotNil(t, p.Bands[0].Min)
	assert.Equal(t, 5.0, *p.Bands[0].Min)
	assert.True(t, p.Bands[0].Exclusive)
	assert.Nil(t, p.Bands[1].Min)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []string{
		"scoring:\n  policy: median\n",
		"server:\n  mode: fast\n",
		"chart:\n  samples: 1\n",
		"scoring:\n  table:\n    signal: slope\n    bands: []\n",
		"server: [",
	}
	for _, body := range tests {
		_, err := Load(writeConfig(t, body))
		assert.Error(t, err, body)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAddr:          ":7000",
		EnvLogLevel:      "warn",
		EnvPolicy:        "growth",
		EnvRedisAddr:     "cache:6379",
		EnvRedisPassword: "s3cret",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c := Default()
	require.NoError(t, c.applyEnv(lookup))
	assert.Equal(t, ":7000", c.Server.Addr)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "growth", c.Scoring.Policy)
	assert.False(t, c.Archive.Enabled, "a redis address alone must not enable the archive")
	assert.Equal(t, "cache:6379", c.Archive.Addr)
	assert.Equal(t, "s3cret", c.Archive.Password)

	env[EnvArchive] = "true"
	require.NoError(t, c.applyEnv(lookup))
	assert.True(t, c.Archive.Enabled)

	env[EnvArchive] = "false"
	require.NoError(t, c.applyEnv(lookup))
	assert.False(t, c.Archive.Enabled)

	env[EnvArchive] = "maybe"
	assert.Error(t, c.applyEnv(lookup))
}
