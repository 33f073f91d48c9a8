package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/TinyActive/Feature-Voting-Tool/internal/config"
	"github.com/TinyActive/Feature-Voting-Tool/internal/database"
	"github.com/TinyActive/Feature-Voting-Tool/internal/email"
	"github.com/TinyActive/Feature-Voting-Tool/internal/notify"
	"github.com/TinyActive/Feature-Voting-Tool/internal/ratelimit"
	"github.com/TinyActive/Feature-Voting-Tool/internal/recaptcha"
	"github.com/TinyActive/Feature-Voting-Tool/internal/router"

	"github.com/redis/go-redis/v9"
)

func main() {
	// load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	// init database and run migrations
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	// redis backs the vote rate limiter; without it the limiter fails open
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, rate limiting disabled: %v", err)
			rdb = nil
		}
		cancel()
	}
	limiter := ratelimit.New(rdb, cfg.RateLimit.VotesPerHour,
		time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)

	// telegram notifications are optional
	tg, err := notify.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Fatalf("init telegram: %v", err)
	}
	var sender notify.Sender
	if tg != nil {
		sender = tg
	}
	dispatcher := notify.NewDispatcher(sender, 64)
	defer dispatcher.Close()

	deps := router.Deps{
		DB:       db,
		Limiter:  limiter,
		Notifier: dispatcher,
		Mailer:   email.FromConfig(cfg.Email.ResendAPIKey, cfg.Email.From),
		Captcha:  recaptcha.New(cfg.Recaptcha.SecretKey, cfg.Recaptcha.MinScore),
	}
	r := router.SetupRouter(cfg, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	log.Printf("server listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
