package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL     string
	JWTSecretKey    string
	DraftSigningKey string
	ServerPort      int
	Scoring         Scoring
}

// Load reads configuration from environment variables, optionally seeded
// from a local .env file.
func Load() (*Config, error) {
	// .env is optional; variables may come from the environment directly.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	// Key for signing draft payloads carried between confirmation stages.
	// Falls back to the JWT key so a single-secret deployment still works.
	draftKey := os.Getenv("DRAFT_SIGNING_KEY")
	if draftKey == "" {
		draftKey = jwtKey
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	scoring, err := LoadScoring(os.Getenv("SCORING_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("failed to load scoring config: %w", err)
	}

	return &Config{
		DatabaseURL:     dbURL,
		JWTSecretKey:    jwtKey,
		DraftSigningKey: draftKey,
		ServerPort:      port,
		Scoring:         scoring,
	}, nil
}
