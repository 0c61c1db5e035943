package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"refmatch/app/models"
	"refmatch/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchService owns the match lifecycle state machine: posting, applying and
// approving. A match moves recruiting -> matched; an application moves
// pending -> approved. confirmedRefereeId is set exactly when the match is
// matched, and organizerId never changes after creation.
type MatchService struct {
	gateway database.Gateway
}

// NewMatchService creates a new match service instance
func NewMatchService(gateway database.Gateway) *MatchService {
	if gateway == nil {
		panic("gateway cannot be nil")
	}
	return &MatchService{gateway: gateway}
}

// PostMatch creates a new recruiting match owned by the caller
func (s *MatchService) PostMatch(ctx context.Context, identity *models.Identity, form models.MatchForm) (*models.Match, error) {
	if identity == nil || identity.UID == "" {
		return nil, ErrUnauthorized
	}
	if err := validateMatchForm(form); err != nil {
		return nil, err
	}

	teamName := form.TeamName
	if teamName == "" {
		teamName = identity.DisplayName
	}
	if teamName == "" {
		teamName = "未設定チーム"
	}

	match := models.Match{
		ID:          primitive.NewObjectID().Hex(),
		OrganizerID: identity.UID,
		TeamName:    teamName,
		Title:       form.Title,
		MatchDate:   form.MatchDate.UTC(),
		Location: models.Location{
			Name:    form.LocationName,
			Address: form.LocationAddress,
		},
		Reward:      form.Reward,
		RecruitRole: form.RecruitRole,
		Description: form.Description,
		Status:      models.MatchStatusRecruiting,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.gateway.Create(ctx, database.MatchesCollection, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %v", err)
	}

	log.Printf("✅ Match posted: %s by organizer %s", match.ID, identity.UID)
	return &match, nil
}

// GetMatch loads a single match by id
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var match models.Match
	if err := s.gateway.GetOne(ctx, database.MatchesCollection, matchID, &match); err != nil {
		return nil, err
	}
	return &match, nil
}

// Apply creates a pending application by the caller for the given match.
// The match must exist and still be recruiting, the caller must not be its
// organizer, and a second application by the same referee is rejected.
func (s *MatchService) Apply(ctx context.Context, identity *models.Identity, matchID, message string) (*models.Application, error) {
	if identity == nil || identity.UID == "" {
		return nil, ErrUnauthorized
	}

	var match models.Match
	if err := s.gateway.GetOne(ctx, database.MatchesCollection, matchID, &match); err != nil {
		return nil, err
	}

	if match.Status != models.MatchStatusRecruiting {
		return nil, fmt.Errorf("%w: match is no longer recruiting", ErrConflict)
	}
	if identity.UID == match.OrganizerID {
		return nil, fmt.Errorf("%w: organizers cannot apply to their own match", ErrForbidden)
	}

	existing, err := s.gateway.FindAll(ctx, database.ApplicationsCollection, []database.Predicate{
		{Field: "matchId", Value: matchID},
		{Field: "applicantId", Value: identity.UID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing applications: %v", err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: already applied to this match", ErrConflict)
	}

	applicantName := identity.DisplayName
	if applicantName == "" {
		applicantName = "名無し"
	}

	application := models.Application{
		ID:            primitive.NewObjectID().Hex(),
		MatchID:       matchID,
		OrganizerID:   match.OrganizerID,
		ApplicantID:   identity.UID,
		ApplicantName: applicantName,
		Status:        models.ApplicationStatusPending,
		Message:       message,
		AppliedAt:     time.Now().UTC(),
	}

	if _, err := s.gateway.Create(ctx, database.ApplicationsCollection, application); err != nil {
		return nil, fmt.Errorf("failed to create application: %v", err)
	}

	log.Printf("✅ Application %s: %s applied to match %s", application.ID, identity.UID, matchID)
	return &application, nil
}

// ListApplications returns every application for a match
func (s *MatchService) ListApplications(ctx context.Context, matchID string) ([]models.Application, error) {
	records, err := s.gateway.FindAll(ctx, database.ApplicationsCollection, []database.Predicate{
		{Field: "matchId", Value: matchID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %v", err)
	}

	applications := make([]models.Application, 0, len(records))
	for _, record := range records {
		raw, err := bson.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal application record: %v", err)
		}
		var application models.Application
		if err := bson.Unmarshal(raw, &application); err != nil {
			return nil, fmt.Errorf("failed to decode application record: %v", err)
		}
		applications = append(applications, application)
	}
	return applications, nil
}

// Approve marks the application approved and the match matched in a single
// transaction. Both writes commit or neither does; a concurrent approval on
// the same match loses the status precondition and gets a conflict.
func (s *MatchService) Approve(ctx context.Context, identity *models.Identity, applicationID string) error {
	if identity == nil || identity.UID == "" {
		return ErrUnauthorized
	}

	err := s.gateway.WithTransaction(ctx, func(txCtx context.Context) error {
		var application models.Application
		if err := s.gateway.GetOne(txCtx, database.ApplicationsCollection, applicationID, &application); err != nil {
			return err
		}

		var match models.Match
		if err := s.gateway.GetOne(txCtx, database.MatchesCollection, application.MatchID, &match); err != nil {
			return err
		}

		// Authorization is structural: only the match organizer approves,
		// independent of anything the client rendered.
		if identity.UID != match.OrganizerID {
			return fmt.Errorf("%w: only the organizer can approve applications", ErrForbidden)
		}
		if match.Status != models.MatchStatusRecruiting {
			return fmt.Errorf("%w: match is no longer recruiting", ErrConflict)
		}
		if application.Status != models.ApplicationStatusPending {
			return fmt.Errorf("%w: application is not pending", ErrConflict)
		}

		if err := s.gateway.UpdateFields(txCtx, database.ApplicationsCollection, applicationID, map[string]interface{}{
			"status": models.ApplicationStatusApproved,
		}); err != nil {
			return err
		}

		return s.gateway.UpdateFields(txCtx, database.MatchesCollection, match.ID, map[string]interface{}{
			"confirmedRefereeId": application.ApplicantID,
			"status":             models.MatchStatusMatched,
		})
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Application %s approved by %s", applicationID, identity.UID)
	return nil
}

func validateMatchForm(form models.MatchForm) error {
	if form.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if form.MatchDate.IsZero() {
		return fmt.Errorf("%w: match date is required", ErrValidation)
	}
	if form.LocationName == "" {
		return fmt.Errorf("%w: location name is required", ErrValidation)
	}
	if !validRecruitRole(form.RecruitRole) {
		return fmt.Errorf("%w: recruit role must be one of %s, %s, %s",
			ErrValidation, models.RoleAssistantReferee, models.RoleMainReferee, models.RoleFourthOfficial)
	}
	if form.Reward < 0 {
		return fmt.Errorf("%w: reward cannot be negative", ErrValidation)
	}
	return nil
}

func validRecruitRole(role string) bool {
	switch role {
	case models.RoleAssistantReferee, models.RoleMainReferee, models.RoleFourthOfficial:
		return true
	default:
		return false
	}
}

// IsNotFound reports whether err means a referenced record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, database.ErrNotFound)
}
