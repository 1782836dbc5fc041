package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/appschool/internal/app/auth"
	appControllers "github.com/yigit/appschool/internal/app/controllers"
	appMigrations "github.com/yigit/appschool/internal/app/migrations"
	appRepos "github.com/yigit/appschool/internal/app/repositories"
	"github.com/yigit/appschool/internal/app/repositories/memory"
	appRoutes "github.com/yigit/appschool/internal/app/routes"
	appServices "github.com/yigit/appschool/internal/app/services"
	"github.com/yigit/appschool/internal/config"
	"github.com/yigit/appschool/internal/db"
	appMiddleware "github.com/yigit/appschool/internal/middleware"
	pkgAuth "github.com/yigit/appschool/internal/pkg/auth"
	"github.com/yigit/appschool/internal/pkg/cache"
	"github.com/yigit/appschool/internal/pkg/events"
	"github.com/yigit/appschool/internal/pkg/logger"
	"github.com/yigit/appschool/internal/pkg/websocket"
	"github.com/yigit/appschool/internal/seed"
)

// Storage is the selected persistence backend
type Storage struct {
	Repos    *appRepos.Repositories
	Postgres *db.PostgresDB // nil for the memory driver
}

// Close releases the database pool, if any
func (s *Storage) Close() {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService            *appServices.AuthService
	NotificationService    *appServices.NotificationService
	UserService            *appServices.UserService
	AuthController         *appControllers.AuthController
	NotificationController *appControllers.NotificationController
	UserController         *appControllers.UserController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	AuthzService           *appAuth.AuthorizationService
	JWTService             *pkgAuth.JWTService
	Hub                    *websocket.Hub
	Sweeper                *appServices.ExpirySweeper
	Publisher              events.Publisher
	RedisClient            *redis.Client // nil when the feed cache is disabled
	Logger                 zerolog.Logger
}

// Close releases the broker and cache connections
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Failed to close event publisher")
		}
	}
	if d.RedisClient != nil {
		if err := d.RedisClient.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("Failed to close redis client")
		}
	}
}

// LoadConfigAndSetupLogger loads .env, the configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	// .env is optional outside local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Msg("Failed to load .env file")
	}

	configPath := filepath.Join("configs", "config.yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		configPath = path
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured store, runs migrations and seeds demo data.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	storage := &Storage{}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		lgr.Warn().Msg("Using in-memory storage, data is lost on restart")
		storage.Repos = memory.NewRepositories(memory.NewDB())

	default:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		if err := runMigrations(ctx, database, cfg.Database.MigrationsDir, lgr); err != nil {
			database.Close()
			return nil, err
		}

		storage.Postgres = database
		storage.Repos = appRepos.NewRepositories(database)
	}

	if cfg.Storage.Seed {
		if err := seed.CreateDefaultData(ctx, storage.Repos, lgr); err != nil {
			// Log the error but don't fail the startup
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return storage, nil
}

func runMigrations(ctx context.Context, database *db.PostgresDB, migrationsDir string, lgr zerolog.Logger) error {
	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")

	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// BuildDependencies initializes the optional infrastructure, services and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, repos *appRepos.Repositories, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	var feedCache appServices.FeedCache
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			lgr.Error().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
			return nil, err
		}
		deps.RedisClient = client
		feedCache = cache.New(client, "appschool:")
		lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Student feed cache enabled")
	}

	if cfg.RabbitMQ.Enabled {
		publisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to rabbitmq")
			deps.Close()
			return nil, err
		}
		deps.Publisher = publisher
		lgr.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("Notification events enabled")
	} else {
		deps.Publisher = events.NoopPublisher{}
	}

	deps.Hub = websocket.NewHub(logger.Component("hub"))

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.JWT.AccessTokenExpiration,
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthzService = appAuth.NewAuthorizationService(
		repos.NotificationRepository,
		cfg.Notifications.HideForeignExistence,
	)

	deps.AuthService = appServices.NewAuthService(repos.UserRepository, deps.JWTService, logger.Component("auth"))
	deps.UserService = appServices.NewUserService(repos.UserRepository, logger.Component("users"))

	deps.NotificationService = appServices.NewNotificationService(
		repos.NotificationRepository,
		repos.UserRepository,
		deps.AuthzService,
		feedCache,
		deps.Publisher,
		deps.Hub,
		cfg.Notifications.FeedCacheTTL,
		logger.Component("notifications"),
	)

	sweeper, err := appServices.NewExpirySweeper(deps.NotificationService, cfg.Notifications.SweepInterval, logger.Component("sweeper"))
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Sweeper = sweeper

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.NotificationController = appControllers.NewNotificationController(
		deps.NotificationService,
		deps.AuthzService,
		websocket.NewHandler(deps.Hub, cfg.Server.AllowedOrigins, logger.Component("ws")),
		lgr,
	)
	deps.UserController = appControllers.NewUserController(deps.UserService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.Recovery(lgr), appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.NotificationController,
		deps.UserController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success", "time": time.Now().Unix()})
	})

	return router
}
