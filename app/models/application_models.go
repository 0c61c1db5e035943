package models

import "time"

// Application statuses. An application starts pending; the organizer's
// approval moves it to approved. When a sibling application wins, the rest
// stay pending.
const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
)

// Application is a referee's bid for a specific match. OrganizerID is
// denormalized from the match so access filtering never needs a join.
type Application struct {
	ID            string    `bson:"_id" json:"id"`
	MatchID       string    `bson:"matchId" json:"matchId"`
	OrganizerID   string    `bson:"organizerId" json:"organizerId"`
	ApplicantID   string    `bson:"applicantId" json:"applicantId"`
	ApplicantName string    `bson:"applicantName" json:"applicantName"`
	Status        string    `bson:"status" json:"status"`
	Message       string    `bson:"message,omitempty" json:"message,omitempty"`
	AppliedAt     time.Time `bson:"appliedAt" json:"appliedAt"`
}
