package app

import (
	"context"
	"fmt"
	"net/http"

	"policy-records-go/internal/config"
	"policy-records-go/internal/db"
	"policy-records-go/internal/domain/records"
	"policy-records-go/internal/domain/referral"
	"policy-records-go/internal/domain/session"
	"policy-records-go/internal/domain/subscription"
	userdomain "policy-records-go/internal/domain/user"
	"policy-records-go/internal/kv"
	"policy-records-go/internal/repository/inmemory"
	"policy-records-go/internal/repository/kvstore"
	"policy-records-go/internal/repository/postgres"
	"policy-records-go/internal/repository/sqlite"
	"policy-records-go/internal/seed"
	"policy-records-go/internal/transport/httpserver"
	"policy-records-go/internal/transport/httpserver/handler"
	authmw "policy-records-go/internal/transport/httpserver/middleware"
	"policy-records-go/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	store      kv.Store
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: opening storage", "driver", cfg.Storage.Driver)
	store, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}

	handlers, auth, err := NewHandlers(context.Background(), cfg, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, auth)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		store:      store,
	}, nil
}

// OpenStore returns the kv.Store selected by STORAGE_DRIVER.
func OpenStore(cfg config.Config, log logger.Logger) (kv.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return inmemory.NewKVStore(cfg.Storage.MaxValueBytes), nil
	case config.StorageSQLite:
		return sqlite.Open(cfg.Storage.SQLitePath, cfg.Storage.MaxValueBytes)
	case config.StoragePostgres:
		gormDB, err := db.NewPostgres(cfg.DB, log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(gormDB); err != nil {
			if sqlDB, dbErr := gormDB.DB(); dbErr == nil {
				_ = sqlDB.Close()
			}
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewStore(gormDB, cfg.Storage.MaxValueBytes), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewHandlers builds the services over store and seeds fixture data.
func NewHandlers(ctx context.Context, cfg config.Config, store kv.Store, log logger.Logger) (*handler.Handlers, *authmw.SessionAuth, error) {
	var passwords userdomain.PasswordHasher = userdomain.PlaintextPasswords{}
	if cfg.Auth.PasswordMode == config.PasswordModeBcrypt {
		passwords = userdomain.BcryptPasswords{}
	}

	users := userdomain.NewServiceWithConfig(kvstore.NewUserRepository(store), userdomain.Config{
		Passwords: passwords,
		Cache:     inmemory.NewUserCache(),
		CacheTTL:  cfg.Auth.UserCacheTTL,
	})
	recordsService := records.NewService(kvstore.NewRecordsRepository(store))
	referrals := referral.NewServiceWithConfig(kvstore.NewReferralRepository(store), users, referral.Config{
		Level1Rate:     cfg.Referral.Level1Rate,
		Level2Rate:     cfg.Referral.Level2Rate,
		SignupDiscount: cfg.Referral.SignupDiscount,
		ReplayGuard:    cfg.Referral.ReplayGuard,
	})
	subscriptions := subscription.NewService(users, referrals)

	if cfg.Seed.DemoUser {
		if err := seed.Run(ctx, users, log); err != nil {
			return nil, nil, fmt.Errorf("seed demo user: %w", err)
		}
	}

	sessions := session.NewManager(kvstore.NewSessionStore(store))
	auth := authmw.NewSessionAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, sessions, users, log)

	handlers := handler.New(users, recordsService, referrals, subscriptions, auth, handler.Options{
		PublicURL:            cfg.PublicURL,
		RecordsDeleteEnabled: cfg.Records.DeleteEnabled,
	}, log)
	return handlers, auth, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) StorageDriver() string {
	return a.cfg.Storage.Driver
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
