package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/creatorshield/scanpipe/internal/application"
	appscans "github.com/creatorshield/scanpipe/internal/application/scans"
	appsettings "github.com/creatorshield/scanpipe/internal/application/settings"
	"github.com/creatorshield/scanpipe/internal/config"
	"github.com/creatorshield/scanpipe/internal/domain/scanerrors"
	domscans "github.com/creatorshield/scanpipe/internal/domain/scans"
	domsettings "github.com/creatorshield/scanpipe/internal/domain/settings"
	aiopenai "github.com/creatorshield/scanpipe/internal/infra/ai/openai"
	"github.com/creatorshield/scanpipe/internal/infra/analysis"
	mysqldb "github.com/creatorshield/scanpipe/internal/infra/db/mysql"
	postgresdb "github.com/creatorshield/scanpipe/internal/infra/db/postgres"
	sqlitedb "github.com/creatorshield/scanpipe/internal/infra/db/sqlite"
	"github.com/creatorshield/scanpipe/internal/infra/httpserver"
	"github.com/creatorshield/scanpipe/internal/infra/staging"
	minioStore "github.com/creatorshield/scanpipe/internal/infra/storage"
	"github.com/creatorshield/scanpipe/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	db, scanRepo, errorRepo, settingsRepo, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	// evidence store is optional
	var artifacts domscans.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	stager, err := staging.New(cfg.Staging.Dir)
	if err != nil {
		log.Fatalf("staging init error: %v", err)
	}
	// sweep leftovers from a previous crash
	if removed := stager.CleanStale(time.Duration(cfg.Staging.StaleMaxAgeHours) * time.Hour); len(removed) > 0 {
		log.Printf("removed %d stale staged files", len(removed))
	}

	analysisClient := analysis.New(cfg.Analysis.Endpoint, time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second)
	textClient := aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	textClient.EmbeddingModel = cfg.OpenAI.EmbeddingModel

	settingsSvc := appsettings.NewService(settingsRepo)

	scansSvc := &appscans.Service{
		Repo:       scanRepo,
		ErrorLog:   errorRepo,
		Text:       textClient,
		Embed:      textClient,
		Media:      analysisClient,
		Stager:     stager,
		Artifacts:  artifacts,
		Thresholds: settingsSvc,
		Evaluator:  appscans.NewEvaluator(nil),
		Clock:      application.SystemClock{},
	}

	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"analysis": &middleware.ServiceHealthChecker{Service: analysisClient},
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Mount("/", httpserver.NewRouter(scansSvc, settingsSvc, errorRepo, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // scans run synchronously
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, domscans.Repository, scanerrors.Repository, domsettings.Repository, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return db, mysqldb.NewScanRepository(db), mysqldb.NewScanErrorRepository(db), mysqldb.NewSettingsRepository(db), nil
	case "postgres":
		db, err := postgresdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return db, postgresdb.NewScanRepository(db), postgresdb.NewScanErrorRepository(db), postgresdb.NewSettingsRepository(db), nil
	case "sqlite":
		db, err := sqlitedb.Open(ctx, cfg.Database.DataDir)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return db, sqlitedb.NewScanRepository(db), sqlitedb.NewScanErrorRepository(db), sqlitedb.NewSettingsRepository(db), nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown database driver: %q", cfg.Database.Driver)
	}
}
