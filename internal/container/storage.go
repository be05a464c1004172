package container

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/qikurl/internal/shortener"
	"github.com/serroba/qikurl/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// RedisClient closes the shared Redis client on injector shutdown.
type RedisClient struct {
	*redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Close()
}

// PostgresPool closes the pool on injector shutdown.
type PostgresPool struct {
	*pgxpool.Pool
}

func (p *PostgresPool) Shutdown() error {
	p.Close()

	return nil
}

// MongoClient disconnects on injector shutdown.
type MongoClient struct {
	*mongo.Client
}

func (c *MongoClient) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	return c.Disconnect(ctx)
}

func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)

		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})

		return &RedisClient{Client: client}, nil
	})
}

func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*PostgresPool, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if err := store.MigratePostgres(opts.DatabaseURL); err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}

		logger.Info("connected to postgres")

		return &PostgresPool{Pool: pool}, nil
	})
}

func MongoPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*MongoClient, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.MongoURI))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}

		logger.Info("connected to mongo", zap.String("database", opts.MongoDatabase))

		return &MongoClient{Client: client}, nil
	})
}

// RepositoryPackage provides the durable store selected by Options.StoreBackend.
// Connections are only opened for the selected backend.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Repository, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.StoreBackend {
		case BackendMemory:
			return store.NewMemoryStore(), nil
		case BackendPostgres:
			pool, err := do.Invoke[*PostgresPool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool.Pool), nil
		case BackendMongo:
			client, err := do.Invoke[*MongoClient](i)
			if err != nil {
				return nil, err
			}

			return store.NewMongoStore(client.Client, opts.MongoDatabase), nil
		default:
			return nil, fmt.Errorf("unknown store backend %q", opts.StoreBackend)
		}
	})
}

// CachePackage provides the cache selected by Options.CacheBackend.
func CachePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.CacheBackend {
		case BackendMemory:
			return store.NewMemoryCache(nil), nil
		case BackendRedis:
			client := do.MustInvoke[*RedisClient](i)

			return store.NewRedisCache(client.Client), nil
		case BackendNone:
			return store.NoopCache{}, nil
		default:
			return nil, fmt.Errorf("unknown cache backend %q", opts.CacheBackend)
		}
	})
}
