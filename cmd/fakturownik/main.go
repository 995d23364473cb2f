package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/fakturownik/fakturownik/internal/commands"
	"github.com/fakturownik/fakturownik/internal/config"
	"github.com/fakturownik/fakturownik/internal/logger"
)

func main() {
	// A missing .env is normal; settings fall back to the environment.
	_ = godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	closer, err := logger.Setup(settings.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	if err := commands.NewRootCommand(settings).Execute(); err != nil {
		closer.Close()
		os.Exit(1)
	}
}
