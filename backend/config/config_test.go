package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "pollhub.db", cfg.Store.SQLite.Path)
	assert.Equal(t, 3306, cfg.Store.MySQL.Port)
	assert.Equal(t, "pollhub", cfg.Store.Redis.Prefix)
	assert.Equal(t, 16, cfg.Store.Redis.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.Registry.OnlineWindow)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 8080
store:
  driver: memory
registry:
  online_window: 2m
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Registry.OnlineWindow)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// keys missing from the file keep their defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("POLLHUB_SERVER_PORT", "9999")
	t.Setenv("POLLHUB_STORE_DRIVER", "REDIS")
	t.Setenv("POLLHUB_STORE_REDIS_ADDR", "redis:6379")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("POLLHUB_STORE_DRIVER", "cassandra")
	_, err = Load("")
	assert.Error(t, err)
}

func TestWatchRequiresPath(t *testing.T) {
	assert.Error(t, Watch("", func(*Config) {}, nil))
}

func TestWatchReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\nlog:\n  level: info\n"), 0o644))

	changes := make(chan *Config, 16)
	errs := make(chan error, 16)
	require.NoError(t, Watch(path,
		func(cfg *Config) {
			select {
			case changes <- cfg:
			default:
			}
		},
		func(err error) {
			select {
			case errs <- err:
			default:
			}
		}))

	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: memory\nlog:\n  level: debug\n"), 0o644))
	timeout := time.After(5 * time.Second)
	// a truncate can fire before the write lands, so skip configs that are not the new one
	for reloaded := false; !reloaded; {
		select {
		case cfg := <-changes:
			reloaded = cfg.Log.Level == "debug"
		case err := <-errs:
			t.Fatalf("unexpected reload error: %v", err)
		case <-timeout:
			t.Fatal("config change not delivered")
		}
	}

	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed\n"), 0o644))
	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("invalid config not reported")
	}
}
