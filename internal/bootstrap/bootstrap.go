package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/electives/internal/app/controllers"
	appMigrations "github.com/yigit/electives/internal/app/migrations"
	appRepos "github.com/yigit/electives/internal/app/repositories"
	appRoutes "github.com/yigit/electives/internal/app/routes"
	appServices "github.com/yigit/electives/internal/app/services"
	"github.com/yigit/electives/internal/config"
	"github.com/yigit/electives/internal/db"
	appMiddleware "github.com/yigit/electives/internal/middleware"
	pkgAuth "github.com/yigit/electives/internal/pkg/auth"
	"github.com/yigit/electives/internal/pkg/helpers"
	"github.com/yigit/electives/internal/pkg/logger"
	"github.com/yigit/electives/internal/pkg/tracing"
	"github.com/yigit/electives/internal/pkg/websocket"
	"github.com/yigit/electives/internal/seed"
)

// ServiceName identifies the process in logs and traces
const ServiceName = "electives"

// Version is overridden at build time with -ldflags
var Version = "dev"

// DefaultConfigPath is used when no config path is given
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store                appRepos.AllocationStore
	Services             *appServices.Services
	JWTService           *pkgAuth.JWTService
	AuthMiddleware       *appMiddleware.AuthMiddleware
	AllocationController *appControllers.AllocationController
	SubjectController    *appControllers.SubjectController
	AdminController      *appControllers.AdminController
	OccupancyHub         *websocket.Hub
	OccupancyFeed        *websocket.Handler
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
// An empty configPath selects DefaultConfigPath.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupTracing installs the trace exporter when tracing is enabled. The
// returned function flushes it and is never nil.
func SetupTracing(cfg *config.Config, lgr zerolog.Logger) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Tracing.Enabled {
		return noop, nil
	}
	shutdown, err := tracing.Init(ServiceName, Version, cfg.Tracing.Output)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize tracing")
		return noop, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	lgr.Info().Str("output", cfg.Tracing.Output).Msg("Tracing enabled")
	return shutdown, nil
}

// OpenStore connects to the configured database and applies migrations.
func OpenStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.AllocationStore, error) {
	lockTimeout := helpers.ParseDuration(cfg.Database.LockTimeout, 3*time.Second)
	txTimeout := helpers.ParseDuration(cfg.Database.TxTimeout, 10*time.Second)

	switch strings.ToLower(cfg.Database.Driver) {
	case config.DriverSQLite:
		lgr.Info().Str("path", cfg.Database.SQLitePath).Msg("Opening SQLite database...")
		sqlite, err := db.NewSQLiteDB(cfg.Database.SQLitePath, lockTimeout)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to open SQLite database")
			return nil, err
		}
		if err := appMigrations.NewSQLiteMigrator(sqlite.DB, lgr).Up(ctx); err != nil {
			sqlite.Close()
			lgr.Error().Err(err).Msg("Database migration error")
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")
		return appRepos.NewSQLiteStore(sqlite, txTimeout), nil

	default:
		lgr.Info().Msg("Establishing database connection...")
		pg, err := db.NewPostgresDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")
		if err := appMigrations.NewPostgresMigrator(pg.Pool, lgr).Up(ctx); err != nil {
			pg.Close()
			lgr.Error().Err(err).Msg("Database migration error")
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")
		return appRepos.NewPostgresStore(pg, lockTimeout, txTimeout), nil
	}
}

// SetupDatabase opens the store and, when enabled, creates default data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (appRepos.AllocationStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := OpenStore(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}

	if cfg.Seed.Enabled {
		if _, err := seed.CreateDefaultData(ctx, store, lgr); err != nil {
			// Log the error but don't fail the startup
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return store, nil
}

// NewJWTService builds the token service from configuration
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
}

// BuildDependencies initializes application services, middleware and controllers.
// The occupancy hub is created but not started; the caller runs it.
func BuildDependencies(cfg *config.Config, store appRepos.AllocationStore, lgr zerolog.Logger, opts ...appServices.AllocationOption) *Dependencies {
	deps := &Dependencies{Store: store, Logger: lgr}

	deps.OccupancyHub = websocket.NewHub(cfg.Server.FeedBuffer, logger.Component("occupancy_feed"))
	opts = append([]appServices.AllocationOption{appServices.WithPublisher(deps.OccupancyHub)}, opts...)

	deps.Services = appServices.NewServices(store, opts...)
	deps.JWTService = NewJWTService(cfg)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Services.SettingsService)

	deps.AllocationController = appControllers.NewAllocationController(deps.Services.AllocationService)
	deps.SubjectController = appControllers.NewSubjectController(deps.Services.SubjectService, deps.Services.AllocationService)
	deps.AdminController = appControllers.NewAdminController(
		deps.Services.AllocationService,
		deps.Services.SubjectService,
		deps.Services.SettingsService,
	)
	deps.OccupancyFeed = websocket.NewHandler(deps.OccupancyHub, deps.Services.SubjectService, logger.Component("occupancy_feed"))

	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	switch strings.ToLower(cfg.Server.Mode) {
	case "production":
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	appMiddleware.RegisterValidators()

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(),
		appMiddleware.RequestTimeout(helpers.ParseDuration(cfg.Server.RequestTimeout, 10*time.Second)),
	)

	appRoutes.SetupRouter(router,
		deps.AllocationController,
		deps.SubjectController,
		deps.AdminController,
		deps.OccupancyFeed,
		deps.AuthMiddleware,
	)

	return router
}
