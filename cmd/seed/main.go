// Command main runs the database seeder for Warbler.
package main

import (
	"context"
	"flag"
	"log"

	"warbler/internal/config"
	"warbler/internal/database"
	"warbler/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	postsPerUser := flag.Int("posts-per-user", 10, "Number of posts per user")
	followsPerUser := flag.Int("follows", 8, "Number of accounts each user follows")
	likesPerUser := flag.Int("likes", 20, "Number of posts each user likes")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	randomSeed := flag.Int64("seed", 0, "Random seed for reproducible runs (0 = time based)")
	flag.Parse()

	log.Printf("Target: %d users, %d posts each, clean=%v dry-run=%v\n",
		*numUsers, *postsPerUser, *shouldClean, *dryRun)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() && !*dryRun {
		log.Fatal("Refusing to seed a production database")
	}

	opts := seed.Options{
		NumUsers:       *numUsers,
		PostsPerUser:   *postsPerUser,
		FollowsPerUser: *followsPerUser,
		LikesPerUser:   *likesPerUser,
		BcryptCost:     cfg.BcryptCost,
		RandomSeed:     *randomSeed,
		ShouldClean:    *shouldClean,
		DryRun:         *dryRun,
	}

	if !*dryRun {
		if _, err := database.Connect(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
	}

	s, err := seed.NewSeeder(database.DB, opts)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	summary, err := s.Social(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d users, %d posts, %d follows, %d likes\n",
		summary.Users, summary.Posts, summary.Follows, summary.Likes)
	log.Printf("All seeded users have the password: %s\n", seed.DefaultPassword)
}
