package main

import (
	"context"
	"log"
	"os"

	"customerhub/internal/config"
	"customerhub/internal/seed"
	customersvc "customerhub/internal/service/customer"
	"customerhub/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	// Seeded customers are demo data; no welcome emails.
	n, err := seed.Apply(ctx, customersvc.New(repo, nil, logger))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied, %d customers created", n)
}
