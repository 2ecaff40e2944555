package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-ddd-library/config"
	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/container"
	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/collection"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

func main() {
	reset := flag.Bool("reset", false, "empty every collection before seeding")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	if cfg.StoreDriver == config.StoreMemory {
		log.Fatal("STORE_DRIVER=memory keeps nothing between runs; seed a redis or postgres store")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := container.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer closeStore()
	if rdb := container.GetRedis(); rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	books := collection.NewBookRepository(store)
	users := collection.NewUserRepository(store)
	loans := collection.NewLoanRepository(store)

	if *reset {
		dropper, ok := store.(repository.CollectionDropper)
		if !ok {
			log.Fatalf("%s store cannot drop collections", cfg.StoreDriver)
		}
		for _, key := range repository.AllKeys() {
			if err := dropper.Drop(ctx, key); err != nil {
				log.Fatalf("reset %s: %v", key, err)
			}
		}
		fmt.Println("collections dropped")
	}

	rep, err := application.SeedIfEmpty(ctx, books, users, loans, time.Now(), logger)
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	fmt.Printf("seeded: books=%t users=%t loans=%t (driver=%s)\n", rep.Books, rep.Users, rep.Loans, cfg.StoreDriver)
}
