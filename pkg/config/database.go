package config

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/anonto42/preschool-social/backend/pkg/logger"
)

// DB holds the store connections
type DB struct {
	SQL   *gorm.DB
	Mongo *mongo.Client
	Redis *redis.Client
}

// InitDB opens every store the configuration asks for. Postgres is used when a DSN is set,
// otherwise SQLite. Mongo and Redis are optional.
func InitDB(cfg *Config) (*DB, error) {
	sqlDB, err := initSQL(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the SQL store: %w", err)
	}
	db := &DB{SQL: sqlDB}

	if cfg.ContentStore == ContentStoreMongo {
		if cfg.MongoURI == "" {
			db.CloseDB()
			return nil, fmt.Errorf("CONTENT_STORE=mongo requires MONGO_URI")
		}
		db.Mongo, err = initMongo(cfg.MongoURI)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
	}

	if cfg.RedisAddr != "" {
		db.Redis, err = initRedis(cfg)
		if err != nil {
			db.CloseDB()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}
	return db, nil
}

func initSQL(cfg *Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	if cfg.IsProduction() {
		gcfg.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	var (
		db  *gorm.DB
		err error
	)
	if cfg.PostgresConnStr != "" {
		db, err = gorm.Open(postgres.Open(cfg.PostgresConnStr), gcfg)
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("connected to SQL store", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}

func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	logger.Info("connected to MongoDB")
	return client, nil
}

func initRedis(cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
	return client, nil
}

// CloseDB closes the store connections
func (db *DB) CloseDB() {
	if db.SQL != nil {
		sqlDB, err := db.SQL.DB()
		if err != nil {
			logger.Warn("error getting SQL DB from GORM", zap.Error(err))
		} else if err := sqlDB.Close(); err != nil {
			logger.Warn("error closing SQL connection", zap.Error(err))
		} else {
			logger.Info("SQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			logger.Warn("error closing MongoDB connection", zap.Error(err))
		} else {
			logger.Info("MongoDB connection closed")
		}
	}

	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			logger.Warn("error closing Redis connection", zap.Error(err))
		}
	}
}
