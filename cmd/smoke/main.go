package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"review-backend/pkg/client"
)

// Submits a task to a running backend and polls until it settles. Used to
// smoke test a deployment end to end.
func main() {
	baseURL := flag.String("url", "http://localhost:8000/api/v1", "base URL of the backend API")
	userId := flag.String("user", "smoke-test", "user id to submit the task under")
	text := flag.String("text", "Отличный сервис, всем рекомендую!", "review text for a single task")
	file := flag.String("file", "", "reviews file to submit as a batch task instead of -text")
	interval := flag.Duration("interval", time.Second, "polling interval")
	flag.Parse()

	ctx := context.Background()

	c := client.New(*baseURL)

	if err := c.Health(ctx); err != nil {
		log.Fatalf("Backend is not reachable: %v", err)
	}

	poller := client.NewPoller(c, client.PollerConfig{Interval: *interval})

	var outcomes <-chan client.Outcome
	var err error

	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("Error opening file: %v", err)
		}
		defer f.Close()

		fmt.Printf("Submitting batch task for %s...\n", *file)
		outcomes, err = poller.SubmitBatch(ctx, *userId, filepath.Base(*file), f)
		if err != nil {
			log.Fatalf("Error submitting batch task: %v", err)
		}
	} else {
		fmt.Printf("Submitting single task: %q\n", *text)
		outcomes, err = poller.SubmitSingle(ctx, *userId, *text)
		if err != nil {
			log.Fatalf("Error submitting single task: %v", err)
		}
	}

	outcome, ok := <-outcomes
	if !ok {
		log.Fatalf("Polling was cancelled before the task settled")
	}

	if outcome.Err != nil {
		log.Fatalf("Task did not complete: %v", outcome.Err)
	}

	body, err := json.MarshalIndent(outcome.Task, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling task: %v", err)
	}

	if outcome.Task.End != nil {
		elapsed := time.Duration(*outcome.Task.End-outcome.Task.Start) * time.Second
		fmt.Printf("Task settled as %s after %v\n", outcome.State, elapsed)
	} else {
		fmt.Printf("Task settled as %s\n", outcome.State)
	}
	fmt.Println(string(body))
}
