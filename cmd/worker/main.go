package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"review-backend/cmd"
	"review-backend/internal/core"
	"review-backend/internal/database"
	"review-backend/internal/messaging"
	"review-backend/internal/storage"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL       string        `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL       string        `env:"RABBITMQ_URL,notEmpty,required"`
	S3EndpointURL     string        `env:"S3_ENDPOINT_URL,notEmpty,required"`
	S3AccessKeyID     string        `env:"AWS_ACCESS_KEY_ID,notEmpty,required"`
	S3SecretAccessKey string        `env:"AWS_SECRET_ACCESS_KEY,notEmpty,required"`
	S3Region          string        `env:"AWS_REGION,notEmpty,required"`
	UploadBucketName  string        `env:"UPLOAD_BUCKET_NAME" envDefault:"uploads"`
	ProcessingDelay   time.Duration `env:"PROCESSING_DELAY" envDefault:"5s"`
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize S3 storage for batch uploads
	provider, err := storage.NewS3Provider(&storage.S3ProviderConfig{
		S3EndpointURL:     cfg.S3EndpointURL,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		S3Region:          cfg.S3Region,
	})
	if err != nil {
		log.Fatalf("Worker: Failed to create S3 client: %v", err)
	}

	if err := provider.CreateBucket(context.Background(), cfg.UploadBucketName); err != nil {
		log.Fatalf("Worker: Failed to create upload bucket: %v", err)
	}

	reciever, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	classifier, err := core.NewKeywordClassifier()
	if err != nil {
		log.Fatalf("Failed to create sentiment classifier: %v", err)
	}

	worker := core.NewTaskProcessor(db, provider, reciever, classifier, cfg.UploadBucketName, cfg.ProcessingDelay)

	go worker.Start()

	log.Println("Worker started. Waiting for tasks. Press Ctrl+C to exit.")

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, stopping worker...")

	worker.Stop()

	log.Println("Worker process stopped.")
}
