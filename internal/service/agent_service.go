package service

import (
	"time"

	"github.com/spec-kit/complaint-intake/internal/auth"
	"github.com/spec-kit/complaint-intake/internal/config"
	apperrors "github.com/spec-kit/complaint-intake/pkg/util"
)

// AgentService authenticates support agents against the configured
// credential pair. Login is disabled entirely when no password hash is
// configured.
type AgentService struct {
	agentID      string
	passwordHash string
	tokenMgr     *auth.TokenManager
}

// NewAgentService builds the service.
func NewAgentService(cfg config.AuthConfig) *AgentService {
	return &AgentService{
		agentID:      cfg.AgentID,
		passwordHash: cfg.AgentPasswordHash,
		tokenMgr:     auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// Login verifies agent credentials and issues an access token.
func (s *AgentService) Login(agentID, password string) (string, time.Time, error) {
	if s.passwordHash == "" {
		return "", time.Time{}, apperrors.NewUnauthorized("agent login disabled")
	}
	if agentID != s.agentID {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(s.passwordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.tokenMgr.GenerateToken(agentID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AgentService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
