package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"microblog/internal/auth"
	"microblog/internal/config"
	"microblog/internal/db"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// Demo users created by the seeder. Password is the same for all of them so
// the API can be exercised by hand.
const seedPassword = "password123"

var seedUsers = []struct {
	Username string
	Email    string
	Posts    int
}{
	{Username: "corey", Email: "corey@example.com", Posts: 5},
	{Username: "dana", Email: "dana@example.com", Posts: 3},
	{Username: "lurker", Email: "lurker@example.com", Posts: 0},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := gormDB.AutoMigrate(&model.User{}, &model.Post{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	postRepo := repository.NewPostRepository(gormDB)

	hashed, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}

	created := 0
	for _, su := range seedUsers {
		exists, err := userRepo.UsernameExists(ctx, su.Username, 0)
		if err != nil {
			log.Fatalf("Failed to check user %s: %v", su.Username, err)
		}
		if exists {
			log.Printf("User %s already exists, skipping", su.Username)
			continue
		}

		user := &model.User{
			Username:     su.Username,
			Email:        su.Email,
			ImageFile:    model.DefaultAvatar,
			PasswordHash: hashed,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", su.Username, err)
		}

		for i := 1; i <= su.Posts; i++ {
			post := &model.Post{
				Title:   fmt.Sprintf("%s's post #%d", su.Username, i),
				Content: fmt.Sprintf("Seeded content for post %d by %s.", i, su.Username),
				// Spread timestamps out so list ordering is visible
				DatePosted: time.Now().UTC().Add(-time.Duration(su.Posts-i) * time.Hour),
				UserID:     user.ID,
			}
			if err := postRepo.Create(ctx, post); err != nil {
				log.Fatalf("Failed to create post for %s: %v", su.Username, err)
			}
		}

		created++
		log.Printf("Created user %s with %d posts", su.Username, su.Posts)
	}

	log.Printf("Seed complete: %d users created, password for all: %q", created, seedPassword)
}
