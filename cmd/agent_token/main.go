package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/adsops/adsops/application/port/outbound"
	"github.com/adsops/adsops/infrastructure/config"
	"github.com/adsops/adsops/infrastructure/service/jwt"
)

// Mints a bearer token for an agent or operator, e.g.
//
//	go run ./cmd/agent_token -actor mcp-agent-1 -role agent
func main() {
	actor := flag.String("actor", "", "actor name recorded in the audit log (required)")
	role := flag.String("role", "agent", "role claim")
	flag.Parse()

	if *actor == "" {
		log.Fatal("-actor is required")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	tokenService, err := jwt.NewJWTService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}

	token, err := tokenService.GenerateAccessToken(outbound.TokenClaims{Actor: *actor, Role: *role})
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	fmt.Println(token)
	log.Printf("Token for %s expires in %s", *actor, cfg.AccessTokenTTL)
}
