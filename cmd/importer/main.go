package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"customerhub/internal/config"
	"customerhub/internal/importer"
	customersvc "customerhub/internal/service/customer"
	"customerhub/internal/store"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to customer CSV (firstName,lastName,email,phone[,street,city,state,zipCode,country])")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := log.New(os.Stderr, "[importer] ", log.LstdFlags|log.LUTC)
	ctx := context.Background()

	repo, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, customersvc.New(repo, nil, logger))

	start := time.Now()
	res, err := imp.Run(ctx)
	if err != nil {
		log.Fatalf("import failed after %d customers: %v", res.Imported, err)
	}

	fmt.Printf("Imported %d customers (%d duplicates skipped) in %s\n", res.Imported, res.Skipped, time.Since(start).Truncate(time.Millisecond))
}
