// Package bootstrap wires the process-wide runtime: database, redis and the
// development conveniences that run before the server starts.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"editorial/internal/cache"
	"editorial/internal/config"
	"editorial/internal/database"
	"editorial/internal/middleware"
	"editorial/internal/models"
	"editorial/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedTopics creates the built-in topics when missing.
	SeedTopics bool
}

// InitRuntime connects to DB and Redis and runs the optional bootstrap steps.
// The returned redis client is nil when redis is unreachable.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevStaff(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development staff user: %w", err)
	}

	if opts.SeedTopics {
		if _, err := seed.Topics(db, seed.BuiltInTopics); err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in topics: %w", err)
		}
	}

	return db, r, nil
}

// ensureDevStaff creates or promotes the DEV_STAFF_USERNAME account in
// development so the admin API is usable on a fresh database.
func ensureDevStaff(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.Env != "development" {
		return nil
	}
	username := strings.TrimSpace(cfg.DevStaffUsername)
	if username == "" {
		return nil
	}
	if cfg.DevStaffPassword == "" {
		return errors.New("DEV_STAFF_PASSWORD must be set when DEV_STAFF_USERNAME is")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		findErr := tx.Where("username = ?", username).First(&user).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			user = models.User{Username: username, IsStaff: true}
			if err := user.SetPassword(cfg.DevStaffPassword); err != nil {
				return err
			}
			return tx.Create(&user).Error
		case findErr != nil:
			return findErr
		case !user.IsStaff:
			return tx.Model(&user).Update("is_staff", true).Error
		}
		return nil
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development staff user ensured", slog.String("username", username))
	return nil
}
