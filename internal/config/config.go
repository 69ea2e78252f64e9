package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/zhouzirui/threebody-chat/internal/service/ai"
	"github.com/zhouzirui/threebody-chat/internal/service/orbit"
)

// Config aggregates every setting of the service.
type Config struct {
	Server     ServerConfig
	AI         AIConfig
	Credential CredentialConfig
	Orbit      OrbitConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	orbitCfg, err := loadOrbitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:     server,
		AI:         loadAIConfig(),
		Credential: loadCredentialConfig(),
		Orbit:      orbitCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	// RateLimitRPS is the per-client request rate on /api. Zero disables it.
	RateLimitRPS   float64
	RateLimitBurst int
}

// loadServerConfig parses the listen address.
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	cfg := ServerConfig{
		AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitRPS:   5,
		RateLimitBurst: 20,
	}

	if rps, err := parseOptionalFloatEnv("RATE_LIMIT_RPS"); err != nil {
		return ServerConfig{}, err
	} else if rps != nil {
		cfg.RateLimitRPS = *rps
	}
	if burst, err := parseOptionalIntEnv("RATE_LIMIT_BURST"); err != nil {
		return ServerConfig{}, err
	} else if burst != nil {
		cfg.RateLimitBurst = *burst
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig describes the completion endpoint. Model and output length are
// fixed in package ai.
type AIConfig struct {
	BaseURL string
}

func loadAIConfig() AIConfig {
	return AIConfig{
		BaseURL: getEnvOrDefault("CLAUDE_BASE_URL", ai.DefaultBaseURL),
	}
}

// CredentialConfig locates the persisted API key.
type CredentialConfig struct {
	Path string
}

func loadCredentialConfig() CredentialConfig {
	return CredentialConfig{
		Path: getEnvOrDefault("CREDENTIAL_FILE", defaultCredentialPath()),
	}
}

func defaultCredentialPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".", "credentials.toml")
	}
	return filepath.Join(dir, "threebody-chat", "credentials.toml")
}

// OrbitConfig tunes the decorative animation.
type OrbitConfig struct {
	FPS       int
	StarCount int
}

func loadOrbitConfig() (OrbitConfig, error) {
	fps := orbit.DefaultFPS
	if override, err := parseOptionalIntEnv("ORBIT_FPS"); err != nil {
		return OrbitConfig{}, err
	} else if override != nil {
		if *override < 1 || *override > 120 {
			return OrbitConfig{}, fmt.Errorf("invalid ORBIT_FPS value %d: must be within 1..120", *override)
		}
		fps = *override
	}

	stars := orbit.DefaultStarCount
	if override, err := parseOptionalIntEnv("STARFIELD_COUNT"); err != nil {
		return OrbitConfig{}, err
	} else if override != nil && *override > 0 {
		stars = *override
	}

	return OrbitConfig{FPS: fps, StarCount: stars}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
