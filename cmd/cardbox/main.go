package main

import (
	"log"

	"github.com/joho/godotenv"

	"cardbox/cmd/internal/app"
)

func main() {
	// Missing .env is fine; the environment itself wins.
	_ = godotenv.Load()

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
