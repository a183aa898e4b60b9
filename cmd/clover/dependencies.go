package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/startup"
)

// dependency adapts start and stop funcs to startup.StartupDependency
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

var _ startup.StartupDependency = (*dependency)(nil)

func (d *dependency) GetName() string { return d.name }

func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error {
	return d.start(ctx)
}

func (d *dependency) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	return d.stop(ctx)
}

func (a *app) databaseDependency(cfg *config.Config) *dependency {
	return &dependency{
		name: "database",
		start: func(ctx context.Context) error {
			db, err := sqlx.ConnectContext(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN())
			if err != nil {
				return err
			}
			db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)
			a.sqlDB = db
			a.db = database.NewDatabaseInstance(db, a.logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	}
}

func (a *app) migrationDependency(cfg *config.Config) *dependency {
	return &dependency{
		name:      "migrations",
		dependsOn: []string{"database"},
		start: func(ctx context.Context) error {
			ms := database.NewMigrationService(a.logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             cfg.DatabaseMigrationVersion,
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return ms.MigratePostgres(a.sqlDB)
		},
	}
}

func (a *app) redisDependency(cfg *config.Config) *dependency {
	return &dependency{
		name: "redis",
		start: func(ctx context.Context) error {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr(),
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err := rdb.Ping(ctx).Err(); err != nil {
				_ = rdb.Close()
				return err
			}
			a.redis = rdb
			return nil
		},
		stop: func(ctx context.Context) error {
			if a.redis == nil {
				return nil
			}
			return a.redis.Close()
		},
	}
}

func (a *app) graphDependency(cfg *config.Config) *dependency {
	return &dependency{
		name: "graph",
		start: func(ctx context.Context) error {
			client, err := graph.NewClient(graph.Config{
				Host:     cfg.GraphDBHost,
				Port:     cfg.GraphDBPort,
				Username: cfg.GraphDBUser,
				Password: cfg.GraphDBPassword,
			}, a.logger)
			if err != nil {
				return err
			}
			if err := client.VerifyConnectivity(ctx); err != nil {
				_ = client.Close(ctx)
				return err
			}
			a.graph = client
			return nil
		},
		stop: func(ctx context.Context) error {
			if a.graph == nil {
				return nil
			}
			return a.graph.Close(ctx)
		},
	}
}

func (a *app) httpDependency(cfg *config.Config, dependsOn []string) *dependency {
	return &dependency{
		name:      "http",
		dependsOn: dependsOn,
		start: func(ctx context.Context) error {
			a.wire(cfg)

			a.server = &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Port),
				Handler:           a.echo,
				ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
				WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
				IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
				ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
				MaxHeaderBytes:    cfg.MaxHeaderBytes,
			}

			go func() {
				a.logger.Infof("HTTP server listening on %s", a.server.Addr)
				if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.WithError(err).Error("HTTP server stopped")
					a.fatal <- err
				}
			}()
			a.health.SetReady(true)
			return nil
		},
		stop: func(ctx context.Context) error {
			a.health.SetReady(false)
			return a.server.Shutdown(ctx)
		},
	}
}
