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
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Room code allocation retries before the create operation fails
const MaxRoomCodeAttempts = 10

// Rate limits for the unauthenticated room endpoints, per IP per window
const (
	RoomCreateRateLimit = 10
	RoomJoinRateLimit   = 30
	RoomRateLimitWindow = 60 * time.Second
)
