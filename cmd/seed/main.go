// Command main runs the database seeder.
package main

import (
	"flag"
	"log"

	"editorial/internal/config"
	"editorial/internal/database"
	"editorial/internal/seed"
)

func main() {
	numAuthors := flag.Int("authors", 5, "Number of authors to create")
	numPosts := flag.Int("posts", 40, "Number of posts to create")
	numComments := flag.Int("comments", 100, "Number of comments to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	preset := flag.String("preset", "", "Apply a seeder preset (minimal, demo, large)")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if *shouldClean && !*dryRun {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	var res seed.Result
	if *preset != "" {
		log.Printf("Applying preset: %s (ignoring other flags)", *preset)
		res, err = s.ApplyPreset(*preset)
	} else {
		res, err = s.Seed(seed.Options{
			NumAuthors:    *numAuthors,
			NumPosts:      *numPosts,
			NumComments:   *numComments,
			DraftRatio:    0.2,
			DeletedRatio:  0.05,
			ApprovedRatio: 0.7,
			MaxDays:       120,
			DryRun:        *dryRun,
		})
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d authors, %d topics, %d posts, %d comments", res.Authors, res.Topics, res.Posts, res.Comments)
	log.Printf("All generated authors have the password: %s", seed.DefaultPassword)
}
