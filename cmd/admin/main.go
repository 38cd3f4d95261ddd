// Package main provides staff account management utilities.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"editorial/internal/cache"
	"editorial/internal/config"
	"editorial/internal/database"
	"editorial/internal/middleware"
	"editorial/internal/models"
	"editorial/internal/notifications"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create-staff <username> <password>  - Create a staff account")
	fmt.Println("  go run ./cmd/admin promote <user_id>                   - Grant staff access")
	fmt.Println("  go run ./cmd/admin demote <user_id>                    - Revoke staff access")
	fmt.Println("  go run ./cmd/admin list-staff                          - List staff accounts")
	fmt.Println("  go run ./cmd/admin token <user_id>                     - Mint an admin API token")
	fmt.Println("  go run ./cmd/admin watch                               - Follow new comments and contest entries")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "create-staff":
		need(args, 2)
		createStaff(db, args[0], args[1])
	case "promote":
		need(args, 1)
		setStaff(db, args[0], true)
	case "demote":
		need(args, 1)
		setStaff(db, args[0], false)
	case "list-staff":
		listStaff(db)
	case "token":
		need(args, 1)
		mintToken(db, cfg, args[0])
	case "watch":
		watch(cfg)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func need(args []string, n int) {
	if len(args) < n {
		usage()
		os.Exit(1)
	}
}

func findUser(db *gorm.DB, userID string) models.User {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}
	return user
}

func createStaff(db *gorm.DB, username, password string) {
	user := models.User{Username: username, IsStaff: true}
	if err := user.SetPassword(password); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	if err := models.Validate(&user); err != nil {
		log.Fatalf("Invalid user: %v", err)
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("Created staff user %s (ID: %d)\n", user.Username, user.ID)
}

func setStaff(db *gorm.DB, userID string, staff bool) {
	user := findUser(db, userID)
	if user.IsStaff == staff {
		fmt.Printf("User %s (ID: %d) already has is_staff=%t\n", user.Username, user.ID, staff)
		return
	}
	if err := db.Model(&user).Update("is_staff", staff).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}
	fmt.Printf("Updated %s (ID: %d): is_staff=%t\n", user.Username, user.ID, staff)
}

func listStaff(db *gorm.DB) {
	var staff []models.User
	if err := db.Where("is_staff = ?", true).Order("username").Find(&staff).Error; err != nil {
		log.Fatalf("Failed to fetch staff: %v", err)
	}
	if len(staff) == 0 {
		fmt.Println("No staff accounts found")
		return
	}
	for _, u := range staff {
		fmt.Printf("ID: %d | Username: %s | Name: %s\n", u.ID, u.Username, u.FullName())
	}
}

func mintToken(db *gorm.DB, cfg *config.Config, userID string) {
	user := findUser(db, userID)
	if !user.IsStaff {
		fmt.Printf("User %s (ID: %d) is not staff\n", user.Username, user.ID)
		os.Exit(1)
	}
	ttl := 12 * time.Hour
	token, err := middleware.NewStaffToken(cfg.JWTSecret, user.ID, ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires in %s\n", ttl)
}

func watch(cfg *config.Config) {
	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()
	if rdb == nil {
		log.Fatalf("Redis at %s is unavailable", cfg.RedisURL)
	}
	defer func() { _ = cache.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := notifications.NewNotifier(rdb).Subscribe(ctx, func(channel string, ev notifications.Event) {
		fmt.Printf("%s  %-16s #%d  %s\n", ev.At.Local().Format(time.DateTime), ev.Kind, ev.ID, ev.Summary)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}
	fmt.Println("Waiting for submissions (Ctrl-C to stop)...")
	<-ctx.Done()
}
