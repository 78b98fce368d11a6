package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/vendor-portal/internal"
	"github.com/frahmantamala/vendor-portal/internal/auth"
	authPostgres "github.com/frahmantamala/vendor-portal/internal/auth/postgres"
	"github.com/frahmantamala/vendor-portal/internal/core/events"
	"github.com/frahmantamala/vendor-portal/internal/employee"
	employeePostgres "github.com/frahmantamala/vendor-portal/internal/employee/postgres"
	"github.com/frahmantamala/vendor-portal/internal/patient"
	patientPostgres "github.com/frahmantamala/vendor-portal/internal/patient/postgres"
	"github.com/frahmantamala/vendor-portal/internal/permission"
	permissionPostgres "github.com/frahmantamala/vendor-portal/internal/permission/postgres"
	"github.com/frahmantamala/vendor-portal/internal/storage"
	"github.com/frahmantamala/vendor-portal/internal/transport"
	"github.com/frahmantamala/vendor-portal/internal/transport/rest"
	"github.com/frahmantamala/vendor-portal/internal/transport/swagger"
	"github.com/frahmantamala/vendor-portal/internal/trial"
	trialPostgres "github.com/frahmantamala/vendor-portal/internal/trial/postgres"
	"github.com/frahmantamala/vendor-portal/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	EventBus *events.EventBus
	Store    storage.ObjectStore
	OpenAPI  []byte
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	base := transport.NewBaseHandler(deps.Logger)

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)
	authService := auth.NewService(authPostgres.NewAuthRepository(deps.Gorm), tokens, deps.EventBus, cfg.Security.BCryptCost, deps.Logger)
	permissionRepo := permissionPostgres.NewPermissionRepository(deps.Gorm)
	resolver := permission.NewResolver(permissionRepo, deps.Logger)
	employeeService := employee.NewService(employeePostgres.NewEmployeeRepository(deps.Gorm), cfg.Security.BCryptCost, deps.Logger)
	patientService := patient.NewService(patientPostgres.NewPatientRepository(deps.Gorm), cfg.Security.BCryptCost, deps.Logger)
	trialService := trial.NewService(trialPostgres.NewTrialRepository(deps.Gorm), deps.Store, deps.EventBus, cfg.Storage, deps.Logger)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, rest.Handlers{
		Auth:       auth.NewHandler(base, authService),
		Permission: permission.NewHandler(base, resolver),
		Employee:   employee.NewHandler(base, employeeService),
		Patient:    patient.NewHandler(base, patientService),
		Trial:      trial.NewHandler(base, trialService),
		AdminTrial: trial.NewAdminHandler(base, trialService),
		Roles:      permissionRepo,
	}, rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		AdminAccess:    cfg.Trials.AdminAccess,
		OpenAPI:        deps.OpenAPI,
	}, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	ctx := context.Background()

	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	store, err := initStore(ctx, config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object store: %w", err)
	}

	var openAPI []byte
	if config.Server.OpenAPIPath != "" {
		raw, doc, err := swagger.Load(ctx, config.Server.OpenAPIPath)
		if err != nil {
			log.Warn("openapi document unavailable, docs routes disabled", "path", config.Server.OpenAPIPath, "error", err)
		} else {
			openAPI = raw
			log.Info("openapi document loaded", "title", doc.Info.Title, "paths", doc.Paths.Len())
		}
	}

	bus := events.NewEventBus(log)
	bus.Subscribe(events.AllEvents, events.AuditLogHandler(log))

	return &Dependencies{
		Config:   config,
		Logger:   log,
		DB:       db,
		Gorm:     gormDB,
		Router:   chi.NewRouter(),
		EventBus: bus,
		Store:    store,
		OpenAPI:  openAPI,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm wraps the pool opened by initDB so both share connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
}

// initStore uses S3 unless the memory driver was chosen in config.
func initStore(ctx context.Context, cfg *internal.Config, log *slog.Logger) (storage.ObjectStore, error) {
	if cfg.Storage.UseMemory() {
		log.Warn("storage driver is memory, trial documents are lost on restart")
		baseURL := cfg.Server.BaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d/objects", cfg.Server.Port)
		}
		return storage.NewMemoryStore(baseURL), nil
	}
	return storage.NewS3Store(ctx, cfg.Storage, log)
}
