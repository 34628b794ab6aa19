// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"kolboard/internal/config"
	"kolboard/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status|constraints|reset>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// Schema changes here are explicit; never piggyback on Connect.
	cfg.DBAutoMigrate = false

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0))); cmd {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.SchemaStatus(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		missing := 0
		for _, s := range status {
			state := "ok"
			if !s.Exists {
				state = "missing"
				missing++
			}
			log.Printf("%-24s %s", s.Table, state)
		}
		log.Printf("env=%s tables=%d missing=%d", cfg.Env, len(status), missing)
	case "constraints":
		constraints, err := database.Constraints(ctx, db)
		if err != nil {
			return err
		}
		for _, c := range constraints {
			fmt.Printf(" - %s on %s: %s\n", c.Name, c.Table, c.Definition)
		}
	case "reset":
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to reset a production database")
		}
		if err := database.Reset(ctx, db); err != nil {
			return err
		}
		log.Println("all managed tables dropped")
	default:
		return usage()
	}
	return nil
}
