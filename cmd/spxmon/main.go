package main

import (
	"github.com/joho/godotenv"

	"github.com/gregor-nelson/spx/internal/cli"
)

func main() {
	// Optional .env for local development; real deployments use SPX_* vars.
	_ = godotenv.Load()

	cli.Execute()
}
