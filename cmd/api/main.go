package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/financebro/api/config"
	catalogrepo "github.com/financebro/api/internal/repositories/catalog"
	executionrepo "github.com/financebro/api/internal/repositories/execution"
	productrepo "github.com/financebro/api/internal/repositories/product"
	"github.com/financebro/api/pkg/database"
	"github.com/financebro/api/pkg/ingestion"
	"github.com/financebro/api/pkg/kafka"
	"github.com/financebro/api/pkg/middleware"
	"github.com/financebro/api/pkg/models"
	catalogroutes "github.com/financebro/api/pkg/routes/catalog"
	"github.com/financebro/api/pkg/routes/health"
	ingestroutes "github.com/financebro/api/pkg/routes/ingest"
	productroutes "github.com/financebro/api/pkg/routes/product"
	"github.com/financebro/api/pkg/startup"
	"github.com/financebro/api/pkg/tracing"
)

func main() {
	_ = godotenv.Load() // load .env if present; not fatal if missing

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg)

	if cfg.TracingEnabled {
		var exporter sdktrace.SpanExporter
		if cfg.TracingOTLPEndpoint != "" {
			var err error
			exporter, err = tracing.NewExporter(context.Background(), tracing.ExporterConfig{
				Endpoint: cfg.TracingOTLPEndpoint,
				Protocol: cfg.TracingOTLPProtocol,
				Insecure: cfg.TracingOTLPInsecure,
			})
			if err != nil {
				log.Fatalf("failed to create trace exporter: %v", err)
			}
		}

		shutdown := tracing.Init(cfg.AppName, exporter)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("failed to shut down tracing")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db database.DB
	var sqlxDB *sqlx.DB

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	var checker *health.Checker
	var consumer *kafka.Consumer

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(&dependency{
		name: "database",
		start: func(ctx context.Context) error {
			dsn := fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
				cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
			)

			conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
			if err != nil {
				return err
			}

			conn.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
			conn.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
			conn.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

			sqlxDB = conn
			db = database.NewDatabaseInstance(conn, logger)
			return nil
		},
		stop: func(ctx context.Context) error {
			if db != nil {
				return db.Close()
			}
			return nil
		},
	})

	boot.AddDependency(&dependency{
		name:      "migrations",
		dependsOn: []string{"database"},
		start: func(ctx context.Context) error {
			driver, err := postgres.WithInstance(sqlxDB.DB, &postgres.Config{})
			if err != nil {
				return err
			}

			ms := database.NewMigrationService(logger, &database.MigrationConfig{
				MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
				Version:             uint(cfg.DatabaseMigrationVersion),
				Force:               cfg.DatabaseMigrationForce,
				AutoRollback:        cfg.DatabaseMigrationAutoRollback,
			})
			return ms.Migrate(cfg.DatabaseName, driver)
		},
		stop: func(ctx context.Context) error { return nil },
	})

	boot.AddDependency(&dependency{
		name:      "http",
		dependsOn: []string{"database", "migrations"},
		start: func(ctx context.Context) error {
			catalogs := catalogrepo.NewRepository(db, logger)
			products := productrepo.NewRepository(db, logger)
			executions := executionrepo.NewRepository(db, logger)
			ingestSvc := ingestion.NewService(db, catalogs, products, logger)

			scraping := e.Group("/api/scraping", middleware.APIKey(logger, cfg.ScraperAPIKey))
			ingestroutes.Register(scraping, ingestroutes.NewHandler(ingestSvc, executions, logger))

			productroutes.Register(e.Group("/api/productos"), productroutes.NewHandler(products))
			catalogroutes.Register(e.Group("/api/catalogos"), catalogroutes.NewHandler(catalogs))

			checker = health.NewChecker(db, cfg.AppVersion)
			checker.RegisterRoutes(e)

			if cfg.KafkaConsumerEnabled {
				consumer = kafka.NewConsumer(cfg, logger, func(ctx context.Context, rec models.IngestRecord) error {
					_, err := ingestSvc.Ingest(ctx, rec)
					return err
				})
				if err := consumer.Start(ctx); err != nil {
					return err
				}
			}

			go func() {
				addr := fmt.Sprintf(":%d", cfg.Port)
				if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
					logger.WithError(err).Error("http server stopped")
				}
			}()

			checker.SetReady(true)
			return nil
		},
		stop: func(ctx context.Context) error {
			if checker != nil {
				checker.SetReady(false)
			}
			if consumer != nil {
				if err := consumer.Stop(); err != nil {
					logger.WithError(err).Error("failed to stop kafka consumer")
				}
			}
			return e.Shutdown(ctx)
		},
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}

	logger.WithField("port", cfg.Port).Infof("%s listening on port %d", cfg.AppName, cfg.Port)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown failed")
	}

	logger.Info("graceful shutdown complete")
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapLogger *zap.Logger
	var err error

	if cfg.PrettyLogs {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

// dependency adapts closures to the startup interface.
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string                 { return d.name }
func (d *dependency) DependsOn() []string             { return d.dependsOn }
func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }
func (d *dependency) Stop(ctx context.Context) error  { return d.stop(ctx) }
