package dto

import "time"

// AgentLoginRequest payload.
type AgentLoginRequest struct {
	AgentID  string `json:"agent_id"`
	Password string `json:"password"`
}

// AuthResponse returns the issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
