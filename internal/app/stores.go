// Package app opens the backing stores selected by configuration.
package app

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"foodorder/internal/config"
	"foodorder/internal/db"
	"foodorder/internal/repository"
)

// Stores holds the repositories for the configured DB_DRIVER.
type Stores struct {
	Users  repository.UserRepository
	Foods  repository.FoodRepository
	Orders repository.OrderRepository

	close func(context.Context) error
}

// Close releases the underlying connection.
func (s *Stores) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStores connects to mongo, mysql or sqlite and returns matching repositories.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.DBDriver {
	case "mongo", "mongodb":
		client, database, err := db.OpenMongo(ctx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		return mongoStores(client, database), nil
	case "mysql":
		conn, err := db.OpenGorm(ctx, "mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		return gormStores(conn), nil
	case "sqlite":
		conn, err := db.OpenGorm(ctx, "sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return gormStores(conn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

func mongoStores(client *mongo.Client, database *mongo.Database) *Stores {
	return &Stores{
		Users:  repository.NewMongoUserRepository(database),
		Foods:  repository.NewMongoFoodRepository(database),
		Orders: repository.NewMongoOrderRepository(database),
		close:  client.Disconnect,
	}
}

func gormStores(conn *gorm.DB) *Stores {
	return &Stores{
		Users:  repository.NewUserRepository(conn),
		Foods:  repository.NewFoodRepository(conn),
		Orders: repository.NewOrderRepository(conn),
		close: func(context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}
