package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"ocrdoc/cmd"
	"ocrdoc/internal/config"
	"ocrdoc/internal/logger"
)

func main() {
	// A missing .env file is normal; variables may come from the environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		// Use default logger config if main config fails
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting ocrdoc")

	cmd.Execute()

	log.Debug().Msg("ocrdoc shutdown")
	os.Exit(0)
}
