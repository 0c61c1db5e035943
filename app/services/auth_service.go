package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"refmatch/app/models"
	"refmatch/app/utils"
	"refmatch/database"

	"github.com/google/uuid"
)

// AuthService exchanges a completed provider sign-in for an access token and
// a session, creating the user profile lazily on first sign-in
type AuthService struct {
	gateway        database.Gateway
	sessionService *SessionService
}

// NewAuthService creates a new auth service instance
func NewAuthService(gateway database.Gateway, sessionService *SessionService) *AuthService {
	if gateway == nil {
		panic("gateway cannot be nil")
	}
	return &AuthService{
		gateway:        gateway,
		sessionService: sessionService,
	}
}

// LoginRequest carries the identity the client obtained from the interactive
// provider popup
type LoginRequest struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photo_url"`
}

// LoginResponse is returned on a successful sign-in
type LoginResponse struct {
	Status       string              `json:"status"`
	Message      string              `json:"message"`
	Token        string              `json:"token"`
	SessionToken string              `json:"session_token"`
	Profile      *models.UserProfile `json:"profile"`
	IsNewUser    bool                `json:"is_new_user"`
	Timestamp    string              `json:"timestamp"`
	Event        string              `json:"event"`
}

// HandleLogin processes a sign-in, creating the profile on first contact
func (s *AuthService) HandleLogin(loginReq LoginRequest) (*LoginResponse, error) {
	if loginReq.UID == "" {
		return nil, fmt.Errorf("%w: sign-in was rejected or canceled", ErrUnauthorized)
	}

	log.Printf("Login request received for uid: %s", loginReq.UID)

	ctx := context.Background()

	// Look the profile up; first sign-in initializes it
	var profile models.UserProfile
	err := s.gateway.GetOne(ctx, database.UsersCollection, loginReq.UID, &profile)

	var isNewUser bool
	if IsNotFound(err) {
		profile = models.UserProfile{
			UID:         loginReq.UID,
			DisplayName: loginReq.DisplayName,
			Email:       loginReq.Email,
			PhotoURL:    loginReq.PhotoURL,
			Roles:       models.UserRoles{IsTeamRep: false, IsReferee: false},
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := s.gateway.Create(ctx, database.UsersCollection, profile); err != nil {
			return nil, fmt.Errorf("failed to create user profile: %v", err)
		}
		log.Printf("New user profile created: %s", loginReq.UID)
		isNewUser = true
	} else if err != nil {
		return nil, fmt.Errorf("database error: %v", err)
	}

	displayName := profile.DisplayName
	if displayName == "" {
		displayName = loginReq.DisplayName
	}

	jwtToken, err := utils.GenerateAccessToken(loginReq.UID, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %v", err)
	}

	sessionToken := uuid.New().String()
	now := time.Now()
	err = s.sessionService.CreateSession(SessionData{
		SessionToken: sessionToken,
		UID:          loginReq.UID,
		DisplayName:  displayName,
		JWTToken:     jwtToken,
		IsActive:     true,
		CreatedAt:    now,
		ExpiresAt:    now.Add(24 * time.Hour),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %v", err)
	}

	return &LoginResponse{
		Status:       "success",
		Message:      "Signed in successfully",
		Token:        jwtToken,
		SessionToken: sessionToken,
		Profile:      &profile,
		IsNewUser:    isNewUser,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Event:        "auth:login",
	}, nil
}

// HandleLogout deactivates the caller's session
func (s *AuthService) HandleLogout(sessionToken string) error {
	if sessionToken == "" {
		return fmt.Errorf("%w: session token is required", ErrValidation)
	}
	return s.sessionService.DeleteSession(sessionToken)
}

// GetProfile loads the users/{uid} document
func (s *AuthService) GetProfile(uid string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.gateway.GetOne(context.Background(), database.UsersCollection, uid, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetSessionService returns the session service for socket attachment
func (s *AuthService) GetSessionService() *SessionService {
	return s.sessionService
}
