package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Session token lifetimes, fixed per issuance path
const (
	PasswordTokenTTL = 1 * time.Hour
	CodeTokenTTL     = 24 * time.Hour
)

// Credential submission rate limits, per client IP
const (
	LoginAttemptsPerWindow = 5
	CodeAttemptsPerWindow  = 10
	CredentialLimitWindow  = 1 * time.Minute
)
