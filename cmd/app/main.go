package main

import (
	"flag"
	"log"
	"os"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/di"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s queue=%s events=%s", cfg.Environment, cfg.Dispatch.QueueBackend, cfg.Events.Backend)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
