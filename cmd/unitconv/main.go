package main

import (
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/unitconv/internal/cli"
)

func main() {
	// Optional .env; real environment variables take precedence
	_ = godotenv.Load()

	cli.Execute()
}
