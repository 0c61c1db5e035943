package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"refmatch/app/models"
	"refmatch/database"
)

// SessionCache is the fast session store. Redis satisfies it in production;
// tests swap in an in-memory fake.
type SessionCache interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
}

// SessionService handles session management using the cache as primary
// storage and the sessions collection as backup
type SessionService struct {
	gateway database.Gateway
	cache   SessionCache
}

// NewSessionService creates a new session service instance
func NewSessionService(gateway database.Gateway, cache SessionCache) *SessionService {
	return &SessionService{
		gateway: gateway,
		cache:   cache,
	}
}

// SessionData represents session data stored in the cache
type SessionData struct {
	SessionToken string    `json:"session_token"`
	UID          string    `json:"uid"`
	DisplayName  string    `json:"display_name"`
	JWTToken     string    `json:"jwt_token"`
	SocketID     string    `json:"socket_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// CreateSession stores a new session in the cache and the backup collection
func (s *SessionService) CreateSession(sessionData SessionData) error {
	sessionKey := fmt.Sprintf("session:%s", sessionData.SessionToken)
	if err := s.cache.Set(sessionKey, sessionData, 24*time.Hour); err != nil {
		return fmt.Errorf("failed to store session in cache: %v", err)
	}

	session := models.Session{
		ID:          sessionData.SessionToken,
		UID:         sessionData.UID,
		DisplayName: sessionData.DisplayName,
		JWTToken:    sessionData.JWTToken,
		SocketID:    sessionData.SocketID,
		IsActive:    sessionData.IsActive,
		CreatedAt:   sessionData.CreatedAt,
		ExpiresAt:   sessionData.ExpiresAt,
	}
	if _, err := s.gateway.Create(context.Background(), database.SessionsCollection, session); err != nil {
		log.Printf("Warning: Failed to store session backup: %v", err)
	}

	log.Printf("✅ Session created: %s", sessionData.SessionToken)
	return nil
}

// GetSession retrieves session data from the cache, falling back to the
// backup collection and re-priming the cache on a hit
func (s *SessionService) GetSession(sessionToken string) (*SessionData, error) {
	sessionKey := fmt.Sprintf("session:%s", sessionToken)

	var sessionData SessionData
	if err := s.cache.Get(sessionKey, &sessionData); err == nil {
		if time.Now().Before(sessionData.ExpiresAt) && sessionData.IsActive {
			return &sessionData, nil
		}
		s.cache.Delete(sessionKey)
		return nil, fmt.Errorf("session expired")
	}

	var session models.Session
	err := s.gateway.GetOne(context.Background(), database.SessionsCollection, sessionToken, &session)
	if err != nil {
		return nil, fmt.Errorf("session not found: %v", err)
	}
	if !session.IsActive || time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("session expired")
	}

	sessionData = SessionData{
		SessionToken: session.ID,
		UID:          session.UID,
		DisplayName:  session.DisplayName,
		JWTToken:     session.JWTToken,
		SocketID:     session.SocketID,
		IsActive:     session.IsActive,
		CreatedAt:    session.CreatedAt,
		ExpiresAt:    session.ExpiresAt,
	}

	// Prime the cache for future reads
	s.cache.Set(sessionKey, sessionData, time.Until(session.ExpiresAt))

	return &sessionData, nil
}

// UpdateSessionSocketID records which socket a session is attached to
func (s *SessionService) UpdateSessionSocketID(sessionToken, socketID string) error {
	sessionData, err := s.GetSession(sessionToken)
	if err != nil {
		return err
	}

	sessionData.SocketID = socketID

	sessionKey := fmt.Sprintf("session:%s", sessionToken)
	if err := s.cache.Set(sessionKey, *sessionData, time.Until(sessionData.ExpiresAt)); err != nil {
		return fmt.Errorf("failed to update session in cache: %v", err)
	}

	err = s.gateway.UpdateFields(context.Background(), database.SessionsCollection, sessionToken, map[string]interface{}{
		"socketId": socketID,
	})
	if err != nil {
		log.Printf("Warning: Failed to update session backup: %v", err)
	}
	return nil
}

// DeleteSession deactivates a session everywhere
func (s *SessionService) DeleteSession(sessionToken string) error {
	sessionKey := fmt.Sprintf("session:%s", sessionToken)
	if err := s.cache.Delete(sessionKey); err != nil {
		log.Printf("Warning: Failed to delete session from cache: %v", err)
	}

	err := s.gateway.UpdateFields(context.Background(), database.SessionsCollection, sessionToken, map[string]interface{}{
		"isActive": false,
	})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to deactivate session: %v", err)
	}

	log.Printf("✅ Session deleted: %s", sessionToken)
	return nil
}
