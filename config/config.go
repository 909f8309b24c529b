package config

import (
	"log/slog"
	"os"
)

// JwtKey signs and verifies auth tokens. Loaded once at startup.
var JwtKey []byte

// LoadSecrets reads secret material from the environment.
func LoadSecrets() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET environment variable is not set")
		os.Exit(1)
	}
	JwtKey = []byte(secret)
}
