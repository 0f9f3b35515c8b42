// Command seed populates the database with demo data for the moderation queue.
package main

import (
	"flag"
	"log"

	"stride/internal/config"
	"stride/internal/database"
	"stride/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numWorkouts := flag.Int("workouts", 100, "Number of workouts to create")
	numReports := flag.Int("reports", 10, "Number of open reports to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumWorkouts: *numWorkouts,
		NumReports:  *numReports,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
