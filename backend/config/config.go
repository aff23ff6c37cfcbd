package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Server struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type SQLite struct {
	Path string
}

type MySQL struct {
	Host string
	Port int
	User string
	Pass string
	Name string
}

type Redis struct {
	Addr       string
	Password   string
	DB         int
	Prefix     string
	MaxRetries int
}

type Store struct {
	Driver string
	SQLite SQLite
	MySQL  MySQL
	Redis  Redis
}

type Log struct {
	Level  string
	Format string
	Path   string
}

type Config struct {
	Server   Server
	Store    Store
	Registry struct {
		OnlineWindow time.Duration
	}
	Log Log
}

const envPrefix = "POLLHUB"

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite.path", "pollhub.db")
	v.SetDefault("store.mysql.host", "127.0.0.1")
	v.SetDefault("store.mysql.port", 3306)
	v.SetDefault("store.mysql.user", "root")
	v.SetDefault("store.mysql.pass", "")
	v.SetDefault("store.mysql.name", "pollhub")
	v.SetDefault("store.redis.addr", "127.0.0.1:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "pollhub")
	v.SetDefault("store.redis.max_retries", 16)
	v.SetDefault("registry.online_window", "60s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.path", "")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
	}
	return v
}

// Load reads the YAML file at path (if any), POLLHUB_* env vars and defaults.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: Server{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Store: Store{
			Driver: strings.ToLower(v.GetString("store.driver")),
			SQLite: SQLite{Path: v.GetString("store.sqlite.path")},
			MySQL: MySQL{
				Host: v.GetString("store.mysql.host"),
				Port: v.GetInt("store.mysql.port"),
				User: v.GetString("store.mysql.user"),
				Pass: v.GetString("store.mysql.pass"),
				Name: v.GetString("store.mysql.name"),
			},
			Redis: Redis{
				Addr:       v.GetString("store.redis.addr"),
				Password:   v.GetString("store.redis.password"),
				DB:         v.GetInt("store.redis.db"),
				Prefix:     v.GetString("store.redis.prefix"),
				MaxRetries: v.GetInt("store.redis.max_retries"),
			},
		},
		Log: Log{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Path:   v.GetString("log.path"),
		},
	}
	cfg.Registry.OnlineWindow = v.GetDuration("registry.online_window")
	if cfg.Registry.OnlineWindow <= 0 {
		cfg.Registry.OnlineWindow = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	switch cfg.Store.Driver {
	case "sqlite", "mysql", "redis", "memory":
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return cfg, nil
}

// Watch calls onChange with the new config each time the file at path changes.
// Unreadable or invalid content is skipped and reported to onErr when non-nil.
func Watch(path string, onChange func(*Config), onErr func(error)) error {
	if path == "" {
		return fmt.Errorf("watch config: empty path")
	}
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		report := func(err error) {
			if onErr != nil {
				onErr(err)
			}
		}
		// viper keeps the previous values when the new content fails to parse
		if err := v.ReadInConfig(); err != nil {
			report(fmt.Errorf("reload config: %w", err))
			return
		}
		cfg, err := fromViper(v)
		if err != nil {
			report(err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}
