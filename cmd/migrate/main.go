package main

import (
	"context"
	"log"
	"os"

	"customerhub/internal/config"
	"customerhub/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if err := store.Prepare(context.Background(), cfg, logger); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Printf("migrations applied (store=%s)", cfg.StoreDriver)
}
