package server

import "time"

// Config holds server configuration.
type Config struct {
	// Server settings
	Addr string

	// API settings
	PathPrefix string

	// CORS settings. An empty origin list allows all origins.
	CORSEnabled bool
	CORSOrigins []string

	// Authentication settings
	AuthEnabled bool
	AuthHeader  string
	APIKey      string

	// Requests per minute per IP (0 to disable)
	RateLimit int

	// HTTP timeouts. WriteTimeout also bounds runs started with wait=true.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// How long run listings and run entries stay cached. Runs and reverts
	// invalidate their tenant's entries immediately. Zero disables caching.
	CacheTTL time.Duration

	// Features
	MetricsEnabled bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		PathPrefix:     "/api/v1",
		CORSEnabled:    false,
		CORSOrigins:    []string{},
		AuthEnabled:    false,
		AuthHeader:     "X-API-Key",
		RateLimit:      100,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   15 * time.Minute,
		IdleTimeout:    120 * time.Second,
		CacheTTL:       30 * time.Second,
		MetricsEnabled: true,
	}
}
