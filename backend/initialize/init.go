package initialize

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"pollhub/backend/app/controllers"
	"pollhub/backend/app/db"
	"pollhub/backend/app/middleware"
	"pollhub/backend/app/repo"
	"pollhub/backend/app/services"
	"pollhub/backend/config"
	"pollhub/backend/global"
	"pollhub/backend/router"

	"github.com/redis/go-redis/v9"
)

type App struct {
	Cfg      config.Config
	Clients  repo.ClientRepository
	Registry *services.RegistryService
	Router   http.Handler
	Agent    *controllers.AgentController
	Admin    *controllers.AdminController
	HTTP     *controllers.HTTPController

	closers []func() error
}

// Close closes the store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStore picks the ClientRepository for store.driver and migrates its schema.
func OpenStore(ctx context.Context, cfg config.Store) (repo.ClientRepository, []func() error, error) {
	var (
		clients repo.ClientRepository
		closers []func() error
	)
	switch cfg.Driver {
	case "memory":
		clients = repo.NewMemoryClientRepository()
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		global.Rdb = rdb
		closers = append(closers, rdb.Close)
		clients = repo.NewRedisClientRepository(rdb, cfg.Redis.Prefix, cfg.Redis.MaxRetries)
	case "sqlite", "mysql":
		gdb, err := db.Connect(db.Config{
			Driver:   cfg.Driver,
			Path:     cfg.SQLite.Path,
			Host:     cfg.MySQL.Host,
			Port:     cfg.MySQL.Port,
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Pass,
			DBName:   cfg.MySQL.Name,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		global.Mdb = gdb
		if sqlDB, err := gdb.DB(); err == nil {
			closers = append(closers, sqlDB.Close)
		}
		clients = repo.NewGormClientRepository(gdb)
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	if err := clients.Migrate(ctx); err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return clients, closers, nil
}

// Build wires store, service, controllers and router from a loaded config.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	global.Config = *cfg

	clients, closers, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	global.Logger.Info().Str("driver", cfg.Store.Driver).Msg("store ready")

	registry := services.NewRegistryService(clients, services.WithOnlineWindow(cfg.Registry.OnlineWindow))
	return NewApp(*cfg, clients, registry, closers), nil
}

// NewApp builds controllers and router around an existing registry.
func NewApp(cfg config.Config, clients repo.ClientRepository, registry *services.RegistryService, closers []func() error) *App {
	httpCtrl := controllers.NewHTTPController()
	agentCtrl := controllers.NewAgentController(registry)
	adminCtrl := controllers.NewAdminController(registry)

	h := router.NewRouter(httpCtrl, agentCtrl, adminCtrl)
	// Recover sits inside Logging so a panicking request still logs its 500
	h = middleware.Logging(middleware.Recover(h))
	h = middleware.RequestID(h)

	return &App{
		Cfg:      cfg,
		Clients:  clients,
		Registry: registry,
		Router:   h,
		Agent:    agentCtrl,
		Admin:    adminCtrl,
		HTTP:     httpCtrl,
		closers:  closers,
	}
}
