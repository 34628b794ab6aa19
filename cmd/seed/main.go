// Command main runs the database seeder for kolboard.
package main

import (
	"context"
	"flag"
	"log"

	"kolboard/internal/bootstrap"
	"kolboard/internal/config"
	"kolboard/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	community := flag.Int("users", 50, "Number of generated community users")
	fixturePath := flag.String("fixture", "", "YAML fixture file (defaults to the built-in demo fixture)")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed for generated data (0 = random)")
	flag.Parse()

	_ = godotenv.Load()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d community users, clean=%v\n", *community, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	fixture, err := seed.DemoFixture()
	if *fixturePath != "" {
		fixture, err = seed.LoadFixture(*fixturePath)
	}
	if err != nil {
		log.Fatalf("❌ Fixture load failed: %v", err)
	}

	opts := seed.Options{Community: *community, Seed: *randSeed, Clean: *shouldClean}
	if err := seed.NewSeeder(db, opts).Run(ctx, fixture, opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
}
