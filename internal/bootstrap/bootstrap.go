package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/peerfeedback/internal/app/controllers"
	appMigrations "github.com/yigit/peerfeedback/internal/app/migrations"
	appRepos "github.com/yigit/peerfeedback/internal/app/repositories"
	"github.com/yigit/peerfeedback/internal/app/repositories/memory"
	appRoutes "github.com/yigit/peerfeedback/internal/app/routes"
	appServices "github.com/yigit/peerfeedback/internal/app/services"
	"github.com/yigit/peerfeedback/internal/config"
	"github.com/yigit/peerfeedback/internal/db"
	appMiddleware "github.com/yigit/peerfeedback/internal/middleware"
	pkgAuth "github.com/yigit/peerfeedback/internal/pkg/auth"
	"github.com/yigit/peerfeedback/internal/pkg/helpers"
	"github.com/yigit/peerfeedback/internal/pkg/keycrypt"
	"github.com/yigit/peerfeedback/internal/pkg/logger"
)

// Stores groups the persistence ports, backed either by postgres or by the memory store
type Stores struct {
	Instructors appServices.InstructorStore
	Courses     appServices.CourseStore
	Accounts    appServices.AccountStore
	Respondents appServices.RespondentStore
	Comments    appServices.CommentStore
	Tx          appServices.Transactor
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	CourseService          *appServices.CourseService
	AccountService         *appServices.AccountService
	FeedbackSessionService *appServices.FeedbackSessionService
	FeedbackCommentService *appServices.FeedbackCommentService
	InstructorService      appServices.InstructorService
	InstructorController   *appControllers.InstructorController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	JWTService             *pkgAuth.JWTService
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
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

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)
	if err := migrator.Migrate(ctx, appMigrations.Files(), "sql"); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// SetupStores picks the persistence backend. database is nil for the memory driver.
func SetupStores(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) *Stores {
	if cfg.UsesMemoryStore() || database == nil {
		lgr.Warn().Msg("Using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &Stores{
			Instructors: store,
			Courses:     store,
			Accounts:    store,
			Respondents: store,
			Comments:    store,
			Tx:          store,
		}
	}

	repos := appRepos.NewRepositories(database)
	return &Stores{
		Instructors: repos.InstructorRepository,
		Courses:     repos.CourseRepository,
		Accounts:    repos.AccountRepository,
		Respondents: repos.FeedbackSessionRepository,
		Comments:    repos.FeedbackCommentRepository,
		Tx:          database,
	}
}

// BuildDependencies initializes application services and controllers.
func BuildDependencies(cfg *config.Config, stores *Stores, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	cipher, err := keycrypt.New(cfg.Security.RegistrationKeySecret)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize registration key cipher")
		return nil, fmt.Errorf("failed to initialize registration key cipher: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.CourseService = appServices.NewCourseService(stores.Courses)
	deps.AccountService = appServices.NewAccountService(stores.Accounts)
	deps.FeedbackSessionService = appServices.NewFeedbackSessionService(stores.Respondents, lgr)
	deps.FeedbackCommentService = appServices.NewFeedbackCommentService(stores.Comments, lgr)
	deps.InstructorService = appServices.NewInstructorService(appServices.InstructorServiceDeps{
		Store:      stores.Instructors,
		Tx:         stores.Tx,
		Courses:    deps.CourseService,
		Accounts:   deps.AccountService,
		Sessions:   deps.FeedbackSessionService,
		Comments:   deps.FeedbackCommentService,
		KeyCipher:  cipher,
		MaxResults: cfg.Search.MaxResults,
		Logger:     lgr,
	})

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.InstructorService)
	deps.InstructorController = appControllers.NewInstructorController(deps.InstructorService)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())

	appRoutes.SetupRouter(router, deps.InstructorController, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
