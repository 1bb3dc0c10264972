package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/mapbuffer/internal/adapters/postgres"
	"github.com/samirrijal/mapbuffer/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}
	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		log.Fatalf("unknown command: %s", direction)
	}

	cfg, err := config.Load("mapbuffer-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	err = db.Migrate(ctx, direction, func(name string) {
		fmt.Printf("OK  %s\n", name)
	})
	if err != nil {
		log.Fatalf("migrate %s: %v", direction, err)
	}
	log.Printf("all %s migrations applied", direction)
}
