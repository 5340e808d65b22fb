// Command seed populates the development database with sample data.
package main

import (
	"flag"
	"log"

	"interhub/internal/config"
	"interhub/internal/database"
	"interhub/internal/seed"
)

func main() {
	users := flag.Int("users", 20, "number of users to create")
	rooms := flag.Int("rooms", 6, "number of rooms to create")
	cards := flag.Int("cards", 40, "number of content cards to create")
	clean := flag.Bool("clean", false, "delete existing data first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Run(db, seed.Options{
		NumUsers:    *users,
		NumRooms:    *rooms,
		NumCards:    *cards,
		ShouldClean: *clean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
