package main

import (
	"log"

	"ftpgate/config"
	"ftpgate/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Check if in setup mode
	if cfg.SetupMode {
		log.Printf("⚠️  No API key configured - starting in SETUP MODE")
		log.Printf("📋 Open http://%s/setup to configure the gateway", cfg.Addr())
		log.Printf("🔒 After setup, restart the gateway to enable authentication")
	}

	// Create and run server
	srv := server.New(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
