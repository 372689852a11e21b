package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	raw := `{
		"app": {
			"token_sign_key": "secret",
			"token_issuer": "chantier-sync",
			"token_duration": "24h",
			"client_kind": "desktop"
		},
		"storage": {
			"db": {"dsn": "postgres://localhost:5432/chantier"},
			"local": {"path": "replica.db"}
		},
		"server": {"http_address": "0.0.0.0:8080", "request_timeout": "30s"},
		"adapter": {"http_address": "http://sync.example.com", "request_timeout": "15s"},
		"sync": {
			"interval": "5m",
			"retention": "720h",
			"retry": {"base_delay": "2s", "max_delay": "2m", "max_attempts": 6, "jitter_percent": 30}
		},
		"workers": {"replay_retention": "2160h", "prune_interval": "1h"}
	}`

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.App.TokenSignKey)
	assert.Equal(t, "chantier-sync", cfg.App.TokenIssuer)
	assert.Equal(t, 24*time.Hour, cfg.App.TokenDuration)
	assert.Equal(t, "desktop", cfg.App.ClientKind)
	assert.Equal(t, "postgres://localhost:5432/chantier", cfg.Storage.DB.DSN)
	assert.Equal(t, "replica.db", cfg.Storage.Local.Path)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "http://sync.example.com", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 720*time.Hour, cfg.Sync.Retention)
	assert.Equal(t, 2*time.Second, cfg.Sync.Retry.BaseDelay)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Retry.MaxDelay)
	assert.Equal(t, uint64(6), cfg.Sync.Retry.MaxAttempts)
	assert.Equal(t, uint64(30), cfg.Sync.Retry.JitterPercent)
	assert.Equal(t, 90*24*time.Hour, cfg.Workers.ReplayRetention)
	assert.Equal(t, time.Hour, cfg.Workers.PruneInterval)
}

func TestParseJSON_FileMissing(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
	}{
		{name: "String", in: `"90s"`, want: 90 * time.Second},
		{name: "Number", in: `1000000000`, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			require.NoError(t, d.UnmarshalJSON([]byte(tt.in)))
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestNetAddress_Set(t *testing.T) {
	var a NetAddress

	require.NoError(t, a.Set("localhost:8080"))
	assert.Equal(t, "localhost:8080", a.String())

	assert.Error(t, a.Set("no-port"))
	assert.Error(t, a.Set("localhost:0"))
	assert.Error(t, a.Set("not-an-ip:80"))
}
