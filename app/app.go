package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"lifeloop/config"
	"lifeloop/handler"
	"lifeloop/period"
	"lifeloop/repository"
	"lifeloop/services"
	"lifeloop/usecase"
	"lifeloop/utils"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// App holds the wired engine: stores, coordination and the three services.
type App struct {
	Config     *config.Config
	Items      usecase.ItemStore
	Completion *usecase.CompletionService
	Reset      *usecase.ResetService
	Analytics  *usecase.AnalyticsService

	mongo  *mongo.Client
	redis  *redis.Client
	checks map[string]handler.HealthCheck
}

type Option func(*options)

type options struct {
	clock utils.Clock
}

// WithClock replaces the wall clock, e.g. with utils.FixedTime in tests.
func WithClock(clock utils.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// New connects to the configured backends and builds the services.
// STORE_DRIVER=memory keeps everything in process, with no Mongo needed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{clock: utils.RealTime{}}
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	a := &App{Config: cfg, checks: make(map[string]handler.HealthCheck)}

	var (
		items  usecase.ItemStore
		docs   usecase.AnalyticsStore
		events usecase.EventLog
	)
	switch cfg.Database.Driver {
	case "memory":
		log.Println("Using in-memory stores")
		items = repository.NewMemoryItemsRepo()
		docs = repository.NewMemoryAnalyticsRepo()
		events = repository.NewMemoryEventLog()
	default:
		client, err := utils.ConnectMongo(ctx, cfg.MongoOptions())
		if err != nil {
			return nil, err
		}
		a.mongo = client

		db := cfg.Database
		if err := repository.SetupIndexes(client.Database(db.DatabaseName), repository.Collections{
			Items:     db.ItemsCollection,
			Analytics: db.AnalyticsCollection,
			Events:    db.EventsCollection,
		}); err != nil {
			a.Close()
			return nil, fmt.Errorf("setup indexes: %w", err)
		}

		items = repository.GetItemsRepo(client, db.DatabaseName, db.ItemsCollection)
		docs = repository.GetAnalyticsRepo(client, db.DatabaseName, db.AnalyticsCollection)
		events = repository.GetEventsRepo(client, db.DatabaseName, db.EventsCollection)
		a.checks["mongo"] = func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		}
	}

	var (
		locker usecase.Locker = services.NewKeyedMutex()
		cache  usecase.DocumentCache
	)
	if cfg.RedisURL != "" {
		client, err := services.NewRedisClient(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = client
		locker = services.NewRedisLocker(client, cfg.Sweep.LockTTL)
		if cfg.AnalyticsCacheTTL > 0 {
			cache = services.NewAnalyticsCache(client, cfg.AnalyticsCacheTTL)
		}
		a.checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		log.Println("Using Redis locks")
	}

	periods := period.NewClassifier(loc)
	batch := usecase.BatchOptions{Workers: cfg.Sweep.Workers, ItemTimeout: cfg.Sweep.ItemTimeout}

	a.Items = items
	a.Analytics = usecase.NewAnalyticsService(docs, events, locker, cache, o.clock, periods, batch)
	a.Completion = usecase.NewCompletionService(items, locker, a.Analytics, o.clock, periods)
	a.Reset = usecase.NewResetService(items, locker, a.Analytics, o.clock, periods, batch)
	return a, nil
}

// Close disconnects from Mongo and Redis.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("Error closing Redis: %v", err)
		}
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}
}
