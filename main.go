package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"dinein-telegram/backend"
	"dinein-telegram/bot"
	"dinein-telegram/cache"
	"dinein-telegram/config"
	"dinein-telegram/db"
	"dinein-telegram/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.Telegram.Token == "" {
		fmt.Fprintln(os.Stderr, "TOKEN not set")
		os.Exit(1)
	}

	// Check for migrate subcommand
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(cfg)
		return
	}

	// Database is optional: without it the bot still takes orders, it
	// just keeps no /orders history and no table bindings.
	if cfg.DB.Database != "" {
		if err := db.Init(context.Background(), cfg.DB); err != nil {
			fmt.Fprintln(os.Stderr, "db:", err)
			os.Exit(1)
		}
		defer db.Close()

		// Optional auto-migration for fresh DBs. Set AUTO_MIGRATE=1 to enable.
		if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
			if err := applyMigrations(context.Background(), false); err != nil {
				fmt.Fprintln(os.Stderr, "migrate:", err)
				os.Exit(1)
			}
		}
	} else {
		fmt.Println("DB_NAME not set; order history disabled.")
	}

	client := backend.NewClient(cfg.Backend.BaseURL)

	var menuCache services.MenuCache
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.Initialize(cfg.Cache.RedisURL, cfg.Cache.MenuTTL)
		if err != nil {
			log.Printf("warning: menu cache disabled: %v", err)
		} else {
			menuCache = rc
			defer rc.Close()
		}
	}

	b, err := bot.New(cfg, client, menuCache)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bot:", err)
		os.Exit(1)
	}

	fmt.Println("Bot started.")
	b.Start()
}

func runMigrate(cfg *config.Config) {
	if cfg.DB.Database == "" {
		fmt.Fprintln(os.Stderr, "migrate: DB_NAME not set")
		os.Exit(1)
	}
	if err := db.Init(context.Background(), cfg.DB); err != nil {
		fmt.Fprintln(os.Stderr, "db:", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := applyMigrations(context.Background(), true); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}
