package security

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Astrobubu/StageTimer/internal/config"
	"github.com/Astrobubu/StageTimer/internal/models"
)

// WebSocket message type validation
var validMessageTypes = map[string]bool{
	models.MsgTypeJoin:          true,
	models.MsgTypeReplaceAgenda: true,
	models.MsgTypeSelectItem:    true,
	models.MsgTypeStart:         true,
	models.MsgTypePause:         true,
	models.MsgTypeReset:         true,
	models.MsgTypeAdjustTime:    true,
	models.MsgTypeSetMessage:    true,
	models.MsgTypeClearMessage:  true,
}

// IsValidMessageType checks if a WebSocket message type is valid
func IsValidMessageType(msgType string) bool {
	return validMessageTypes[msgType]
}

// ParseCommand decodes a raw frame into its envelope and typed payload,
// rejecting unknown types and malformed payloads before they reach the
// coordinator. The returned payload is one of the models payload structs, or
// nil for the commands that carry none.
func ParseCommand(data []byte) (models.WSMessage, interface{}, error) {
	var msg models.WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, nil, fmt.Errorf("malformed envelope: %w", err)
	}

	if !IsValidMessageType(msg.Type) {
		return msg, nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	if err := ValidateRoomID(msg.RoomID); err != nil {
		return msg, nil, err
	}

	switch msg.Type {
	case models.MsgTypeJoin:
		var p models.JoinPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return msg, nil, fmt.Errorf("join payload: %w", err)
		}
		if !p.Role.Valid() {
			return msg, nil, fmt.Errorf("join payload: invalid role %q", p.Role)
		}
		return msg, p, nil

	case models.MsgTypeReplaceAgenda:
		var p models.ReplaceAgendaPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return msg, nil, fmt.Errorf("replaceAgenda payload: %w", err)
		}
		agenda, err := ValidateAgenda(p.Agenda)
		if err != nil {
			return msg, nil, fmt.Errorf("replaceAgenda payload: %w", err)
		}
		p.Agenda = agenda
		return msg, p, nil

	case models.MsgTypeSelectItem:
		var p models.SelectItemPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return msg, nil, fmt.Errorf("selectItem payload: %w", err)
		}
		if p.ItemID == "" {
			return msg, nil, fmt.Errorf("selectItem payload: itemId is required")
		}
		return msg, p, nil

	case models.MsgTypeAdjustTime:
		var p models.AdjustTimePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return msg, nil, fmt.Errorf("adjustTime payload: %w", err)
		}
		if p.DeltaMinutes == 0 {
			return msg, nil, fmt.Errorf("adjustTime payload: deltaMinutes must be non-zero")
		}
		if p.DeltaMinutes > config.MaxAdjustMinutesAbs || p.DeltaMinutes < -config.MaxAdjustMinutesAbs {
			return msg, nil, fmt.Errorf("adjustTime payload: deltaMinutes out of range")
		}
		return msg, p, nil

	case models.MsgTypeSetMessage:
		var p models.SetMessagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return msg, nil, fmt.Errorf("setMessage payload: %w", err)
		}
		text, err := ValidateMessageText(p.Text)
		if err != nil {
			return msg, nil, fmt.Errorf("setMessage payload: %w", err)
		}
		p.Text = text
		return msg, p, nil
	}

	// start, pause, reset, clearMessage carry no payload
	return msg, nil, nil
}

// RateLimiter provides per-connection rate limiting for WebSocket messages
type RateLimiter struct {
	mu        sync.Mutex
	tokens    map[string]int
	lastReset time.Time
	maxTokens int
	window    time.Duration
}

// NewRateLimiter creates a new rate limiter.
// maxTokens: maximum messages per window
// window: time window for rate limiting (e.g., 1 second)
func NewRateLimiter(maxTokens int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:    make(map[string]int),
		lastReset: time.Now(),
		maxTokens: maxTokens,
		window:    window,
	}
}

// Allow checks if a connection is allowed to send a message.
// Returns true if allowed, false if rate limit exceeded.
func (rl *RateLimiter) Allow(connID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastReset) > rl.window {
		rl.tokens = make(map[string]int)
		rl.lastReset = time.Now()
	}

	rl.tokens[connID]++
	return rl.tokens[connID] <= rl.maxTokens
}

// Remove cleans up rate limiter state for a disconnected connection
func (rl *RateLimiter) Remove(connID string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.tokens, connID)
}

// OriginValidator validates WebSocket connection origins
type OriginValidator struct {
	allowedPatterns []string
}

// NewOriginValidator creates a new origin validator
func NewOriginValidator(patterns []string) *OriginValidator {
	return &OriginValidator{
		allowedPatterns: patterns,
	}
}

// GetAcceptOptions returns websocket.AcceptOptions with origin patterns
func (ov *OriginValidator) GetAcceptOptions() *websocket.AcceptOptions {
	return &websocket.AcceptOptions{
		OriginPatterns: ov.allowedPatterns,
	}
}
