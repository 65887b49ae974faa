package main

import (
	"log"

	"github.com/joho/godotenv"

	"payment-mandate-service/internal/authority"
	"payment-mandate-service/internal/config"
	"payment-mandate-service/internal/handlers"
	"payment-mandate-service/internal/ledger"
	"payment-mandate-service/internal/redemption"
	"payment-mandate-service/internal/server"
	"payment-mandate-service/internal/token"
)

func main() {
	// Load .env if present; the process environment wins either way.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using process environment")
	}

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	seed, err := cfg.SeedInvoices()
	if err != nil {
		log.Fatalf("Failed to load invoice seed set: %v", err)
	}

	// Initialize the mandate core
	codec, err := token.NewCodec(cfg.Secret(), cfg.Server.Verbose)
	if err != nil {
		log.Fatalf("Failed to initialize token codec: %v", err)
	}

	ldg := ledger.New(seed, cfg.Server.Verbose)
	auth := authority.NewAuthority(codec, cfg.Server.Verbose)
	engine := redemption.NewEngine(codec, ldg, cfg.Server.Verbose)

	// Initialize handlers and server
	handler := handlers.NewHandler(auth, engine, ldg, cfg.Server.Verbose)
	srv := server.NewServer(handler, cfg.Server.Verbose)

	log.Printf("Starting payment mandate service on port %d (%d invoices seeded)",
		cfg.Server.Port, len(seed))

	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
