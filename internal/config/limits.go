package config

import "time"

// WebSocket connection limits and constraints
const (
	// Connection limits
	MaxConnectionsPerRoom = 100
	MaxRoomsPerInstance   = 1000
	MaxTotalConnections   = 10000

	// Rate limiting
	MaxMessagesPerSecond = 10
	RateLimitWindow      = time.Second

	// Timeouts
	WriteTimeout = 10 * time.Second
	PingInterval = 30 * time.Second
	PongTimeout  = 90 * time.Second // 3x ping interval for network delay tolerance

	// Channel buffers
	ClientSendBufferSize   = 256
	HubBroadcastBufferSize = 256
	HubMessageBufferSize   = 256
)

// Countdown clock
const (
	// TickInterval is the countdown resolution: exactly one tick per elapsed
	// second while a room is running.
	TickInterval = time.Second
)

// Agenda constraints enforced at the boundary
const (
	MaxAgendaItems      = 200
	MaxItemNameLength   = 100
	MaxItemDuration     = 24 * 60 * 60 // seconds
	MaxMessageLength    = 500
	MaxRoomIDLength     = 64
	MaxAdjustMinutesAbs = 12 * 60
)
