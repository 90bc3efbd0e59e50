//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hugh/go-folio/internal/auth"
	"github.com/hugh/go-folio/internal/database"
	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
	"github.com/hugh/go-folio/internal/store"
	"github.com/hugh/go-folio/pkg/config"
	"github.com/hugh/go-folio/pkg/util"
	"github.com/joho/godotenv"
)

// Seeds a verified demo account with one portfolio on the postgres backend.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	ctx := context.Background()

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	st := store.NewGormStore(db)
	defer st.Close()

	email := os.Getenv("DEMO_EMAIL")
	password := os.Getenv("DEMO_PASSWORD")
	if email == "" {
		email = "demo@example.com"
	}
	if password == "" {
		password = "demo-password"
	}

	if _, err := st.Users().GetByEmail(ctx, email); err == nil {
		fmt.Printf("Demo user already exists: %s\n", email)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Fatalf("failed to look up demo user: %v", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Demo User",
		Plan:         plans.Pro,
		IsVerified:   true,
	}
	if err := st.Users().Create(ctx, user); err != nil {
		log.Fatalf("failed to create demo user: %v", err)
	}

	link := "https://github.com/octocat/Hello-World"
	portfolio := &models.Portfolio{
		UserID: user.ID,
		Name:   "Demo User",
		Role:   "Software Engineer",
		Bio:    "Builds reliable backend services.",
		Skills: models.JSONList[string]{"Go", "PostgreSQL", "Redis"},
		Projects: models.JSONList[models.Project]{{
			Title:       "Hello World",
			Description: "My first repository on GitHub.",
			TechStack:   []string{"Go"},
			GitHubLink:  &link,
		}},
	}
	if err := st.Portfolios().Create(ctx, portfolio); err != nil {
		log.Fatalf("failed to create demo portfolio: %v", err)
	}

	fmt.Printf("Demo user created successfully!\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Plan: %s\n", user.Plan)
	fmt.Printf("Portfolio: %s\n", portfolio.ID)
}
