package main

import (
	"context"
	"fmt"
	"log"

	"github.com/yukikurage/task-manager-api/internal/config"
	"github.com/yukikurage/task-manager-api/internal/database"
	"github.com/yukikurage/task-manager-api/internal/repository"
)

// stores holds the repositories for the configured backend and a function
// that releases the underlying connection.
type stores struct {
	users repository.UserRepository
	tasks repository.TaskRepository
	close func()
}

// openStores connects to the configured database and brings its schema up
// to date.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.DBDriver == config.DriverMongo {
		client, db, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &stores{
			users: repository.NewMongoUserRepository(db),
			tasks: repository.NewMongoTaskRepository(db),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Printf("failed to disconnect from mongodb: %v", err)
				}
			},
		}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if err := database.AddIndexes(db); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &stores{
		users: repository.NewUserRepository(db),
		tasks: repository.NewTaskRepository(db),
		close: func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("failed to close database: %v", err)
			}
		},
	}, nil
}
