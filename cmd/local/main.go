package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"path/filepath"

	"review-backend/internal/api"
	"review-backend/internal/core"
	"review-backend/internal/database"
	"review-backend/internal/messaging"
	"review-backend/internal/storage"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Config struct {
	Root            string        `env:"ROOT" envDefault:"./review-backend"`
	Port            int           `env:"PORT" envDefault:"8000"`
	ProcessingDelay time.Duration `env:"PROCESSING_DELAY" envDefault:"1s"`
}

const uploadBucket = "uploads"

func createDatabase(root string) *gorm.DB {
	path := filepath.Join(root, "db", "review-backend.db")
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

// createQueue republishes tasks that had not reached a terminal status before
// the previous shutdown, so accepted work survives a restart.
func createQueue(db *gorm.DB) *messaging.InMemoryQueue {
	var tasks []database.Task
	if err := db.Where("status IN ?", []string{database.TaskAccepted, database.TaskQueued}).Find(&tasks).Error; err != nil {
		log.Fatalf("Failed to fetch tasks from database: %v", err)
	}

	queue := messaging.NewInMemoryQueue()

	for _, task := range tasks {
		var err error
		switch task.Type {
		case database.TaskBatch:
			err = queue.PublishBatchTask(context.Background(), messaging.BatchTaskPayload{TaskId: task.Id})
		default:
			err = queue.PublishSingleTask(context.Background(), messaging.SingleTaskPayload{TaskId: task.Id})
		}
		if err != nil {
			log.Fatalf("Failed to republish task %v: %v", task.Id, err)
		}
	}

	return queue
}

func createServer(db *gorm.DB, storage storage.Provider, queue messaging.Publisher, classifier core.Classifier, port int) *http.Server {
	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},                                       // Allow all origins (TODO: make this an env var)
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, // Allow all HTTP methods
		AllowedHeaders:   []string{"*"},                                       // Allow all headers
		ExposedHeaders:   []string{"*"},                                       // Expose all headers
		AllowCredentials: true,                                                // Allow cookies/auth headers
		MaxAge:           300,                                                 // Cache preflight response for 5 minutes
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics
	r.Use(middleware.Timeout(60 * time.Second)) // Set request timeout

	apiHandler := api.NewBackendService(db, storage, queue, classifier, uploadBucket)

	r.Route("/api/v1", func(r chi.Router) {
		apiHandler.AddRoutes(r)
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := os.MkdirAll(cfg.Root, os.ModePerm); err != nil {
		log.Fatalf("error creating directory for log file: %v", err)
	}

	f, err := os.OpenFile(filepath.Join(cfg.Root, "backend.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer f.Close()

	log.SetOutput(io.MultiWriter(f, os.Stderr))

	slog.Info("starting backend", "root", cfg.Root, "port", cfg.Port)

	db := createDatabase(cfg.Root)

	provider := storage.NewLocalProvider(filepath.Join(cfg.Root, "storage"))

	if err := provider.CreateBucket(context.Background(), uploadBucket); err != nil {
		log.Fatalf("Failed to create upload bucket: %v", err)
	}

	classifier, err := core.NewKeywordClassifier()
	if err != nil {
		log.Fatalf("Failed to create sentiment classifier: %v", err)
	}

	queue := createQueue(db)

	worker := core.NewTaskProcessor(db, provider, queue, classifier, uploadBucket, cfg.ProcessingDelay)

	server := createServer(db, provider, queue, classifier, cfg.Port)

	slog.Info("starting worker")
	go worker.Start()

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		slog.Info("shutting down worker")
		worker.Stop()
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
