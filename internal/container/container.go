package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/mongo"

	database "github.com/FACorreiaa/flaia-functions/app/db"
	"github.com/FACorreiaa/flaia-functions/config"
	"github.com/FACorreiaa/flaia-functions/internal/api/food"
	generativeAI "github.com/FACorreiaa/flaia-functions/internal/api/generative_ai"
	"github.com/FACorreiaa/flaia-functions/internal/api/itinerary"
	"github.com/FACorreiaa/flaia-functions/internal/api/notifications"
	"github.com/FACorreiaa/flaia-functions/internal/api/promo"
	promptLog "github.com/FACorreiaa/flaia-functions/internal/api/prompt_log"
	"github.com/FACorreiaa/flaia-functions/internal/api/user"
	"github.com/FACorreiaa/flaia-functions/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config              *config.Config
	Logger              *slog.Logger
	Pool                *pgxpool.Pool
	PromptLogger        *promptLog.BestEffortLogger
	MongoClient         *mongo.Client
	Pusher              *notifications.MQTTPusher
	Dispatcher          *notifications.Dispatcher
	ItineraryHandler    *itinerary.Handler
	FoodHandler         *food.Handler
	PromoHandler        *promo.Handler
	UserHandler         *user.HandlerImpl
	NotificationHandler *notifications.Handler
}

// NewContainer runs migrations, opens the stores and builds every handler.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}
	if !database.WaitForDB(ctx, pool, logger) {
		pool.Close()
		return nil, fmt.Errorf("database not ready")
	}

	store, mongoClient, err := newPromptLogStore(ctx, cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	promptLogger := promptLog.NewBestEffortLogger(store, cfg.PromptLog.WaitBudget, cfg.PromptLog.WriteTimeout, logger)

	aiClient, err := generativeAI.NewAIClient(ctx, cfg.AI.APIKey)
	if err != nil {
		logger.Error("Failed to create generative AI client", slog.Any("error", err))
		disconnectMongo(mongoClient, logger)
		pool.Close()
		return nil, err
	}
	invoker := generativeAI.NewInvoker(aiClient, generativeAI.NewModelConfig(cfg.AI), logger)

	// itinerary
	trips := cache.New(cfg.App.TripCacheTTL, 2*cfg.App.TripCacheTTL)
	itineraryRepo := itinerary.NewRepositoryImpl(pool, logger)
	itineraryService := itinerary.NewServiceImpl(invoker, promptLogger, itineraryRepo, trips, cfg.App.ShareBaseURL, logger)
	itineraryHandler := itinerary.NewHandler(itineraryService, logger)

	// food
	foodRepo := food.NewRepositoryImpl(pool, logger)
	foodService := food.NewServiceImpl(invoker, promptLogger, foodRepo, food.NewDiskImageStore(cfg.App.ImageRoot), logger)
	foodHandler := food.NewHandler(foodService, logger)

	// promo
	promoRepo := promo.NewRepositoryImpl(pool, logger)
	revenueCat := promo.NewRevenueCatClient(cfg.RevenueCat, logger)
	promoService := promo.NewServiceImpl(promoRepo, revenueCat, cfg.Promo, logger)
	promoHandler := promo.NewHandler(promoService, logger)

	// users
	userRepo := user.NewPostgresUserRepo(pool, logger)
	userService := user.NewUserService(userRepo, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	// notifications
	notificationRepo := notifications.NewRepositoryImpl(pool, logger)
	pusher := notifications.NewMQTTPusher(cfg.Notifications.MQTT, logger)
	notificationService := notifications.NewServiceImpl(userRepo, notificationRepo, pusher, cfg.Notifications, logger)
	dispatcher := notifications.NewDispatcher(notificationRepo, cfg.Notifications, cfg.JWT, logger)
	notificationHandler := notifications.NewHandler(notificationService, logger)

	return &Container{
		Config:              cfg,
		Logger:              logger,
		Pool:                pool,
		PromptLogger:        promptLogger,
		MongoClient:         mongoClient,
		Pusher:              pusher,
		Dispatcher:          dispatcher,
		ItineraryHandler:    itineraryHandler,
		FoodHandler:         foodHandler,
		PromoHandler:        promoHandler,
		UserHandler:         userHandler,
		NotificationHandler: notificationHandler,
	}, nil
}

// newPromptLogStore returns the mongo client backing the store, if any, so
// the container can disconnect it.
func newPromptLogStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger *slog.Logger) (promptLog.Store, *mongo.Client, error) {
	switch cfg.PromptLog.Store {
	case "", "postgres":
		return promptLog.NewPostgresStore(pool, logger), nil, nil
	case "mongo":
		db, err := promptLog.ConnectMongo(ctx, cfg.Repositories.Mongo.URI, cfg.Repositories.Mongo.Database)
		if err != nil {
			logger.Error("Failed to connect prompt log store", slog.Any("error", err))
			return nil, nil, err
		}
		logger.Info("Prompt logs stored in mongo", slog.String("database", cfg.Repositories.Mongo.Database))
		return promptLog.NewMongoStore(db, logger), db.Client(), nil
	default:
		return nil, nil, fmt.Errorf("unknown prompt log store %q", cfg.PromptLog.Store)
	}
}

func disconnectMongo(client *mongo.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("Failed to disconnect mongo client", slog.Any("error", err))
	}
}

// RouterConfig exposes the handlers to the router.
func (c *Container) RouterConfig() *router.Config {
	return &router.Config{
		App:                 c.Config,
		Logger:              c.Logger,
		DB:                  c.Pool,
		ItineraryHandler:    c.ItineraryHandler,
		FoodHandler:         c.FoodHandler,
		PromoHandler:        c.PromoHandler,
		UserHandler:         c.UserHandler,
		NotificationHandler: c.NotificationHandler,
	}
}

// Close waits for in-flight prompt log writes, then releases connections.
func (c *Container) Close() {
	if c.PromptLogger != nil {
		c.PromptLogger.Wait()
	}
	disconnectMongo(c.MongoClient, c.Logger)
	if c.Pusher != nil {
		c.Pusher.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
