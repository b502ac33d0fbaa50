// Command seed fills the database with demo confessions.
package main

import (
	"context"
	"flag"
	"log"

	"confessional/internal/config"
	"confessional/internal/database"
	"confessional/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of distinct authors and reactors")
	numPosts := flag.Int("posts", defaults.Posts, "Number of posts to submit")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Maximum comments per approved post")
	reactions := flag.Int("reactions", defaults.ReactionsPerPost, "Maximum reactions per approved post")
	reports := flag.Int("reports", defaults.ReportsPerPost, "Maximum reports per approved post")
	approve := flag.Float64("approve", defaults.ApproveRatio, "Share of posts to approve")
	adminID := flag.Int64("admin", defaults.AdminID, "User id recorded as the deciding admin")
	randSeed := flag.Int64("seed", 0, "Random seed, 0 for a random one")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
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

	ctx := context.Background()
	s := seed.NewSeeder(db, seed.Options{
		Users:            *numUsers,
		Posts:            *numPosts,
		CommentsPerPost:  *comments,
		ReactionsPerPost: *reactions,
		ReportsPerPost:   *reports,
		ApproveRatio:     *approve,
		AdminID:          *adminID,
		RandSeed:         *randSeed,
	})

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d posts (%d approved, %d rejected), %d comments, %d reactions, %d reports",
		summary.Posts, summary.Approved, summary.Rejected, summary.Comments, summary.Reactions, summary.Reports)
}
