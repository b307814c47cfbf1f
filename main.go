package main

import (
	"log"

	"github.com/joho/godotenv"
	"invoicetools/cmd"
	"invoicetools/internal/config"
	"invoicetools/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		cfg = config.Default()
	}

	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting invoicetools")

	cmd.Execute(cfg)

	log.Debug().Msg("invoicetools shutdown")
}
