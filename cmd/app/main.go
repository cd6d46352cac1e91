package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"snapvault/config"
	"snapvault/internal/app"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Main - godotenv.Load: %s", err)
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}

	app.Run(cfg)
}
