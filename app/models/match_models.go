package models

import "time"

// Match statuses. A match starts recruiting and becomes matched when the
// organizer approves an application. StatusClosed is reserved for a future
// close/expire flow; nothing produces it today.
const (
	MatchStatusRecruiting = "recruiting"
	MatchStatusMatched    = "matched"
	MatchStatusClosed     = "closed"
)

// Referee roles a match can recruit for
const (
	RoleAssistantReferee = "AR"
	RoleMainReferee      = "MR"
	RoleFourthOfficial   = "4th"
)

// Location is where the match takes place. Address is optional map data.
type Location struct {
	Name    string `bson:"name" json:"name"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// Match is a posted officiating job
type Match struct {
	ID                 string    `bson:"_id" json:"id"`
	OrganizerID        string    `bson:"organizerId" json:"organizerId"`
	TeamName           string    `bson:"teamName" json:"teamName"`
	Title              string    `bson:"title" json:"title"`
	MatchDate          time.Time `bson:"matchDate" json:"matchDate"`
	Location           Location  `bson:"location" json:"location"`
	Reward             int       `bson:"reward" json:"reward"`
	RecruitRole        string    `bson:"recruitRole" json:"recruitRole"`
	Description        string    `bson:"description,omitempty" json:"description,omitempty"`
	Status             string    `bson:"status" json:"status"`
	ConfirmedRefereeID string    `bson:"confirmedRefereeId,omitempty" json:"confirmedRefereeId,omitempty"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
}

// MatchForm is the validated, typed input for posting a match. Raw client
// shapes are parsed into this before any record is constructed.
type MatchForm struct {
	TeamName        string    `json:"team_name"`
	Title           string    `json:"title"`
	MatchDate       time.Time `json:"match_date"`
	LocationName    string    `json:"location_name"`
	LocationAddress string    `json:"location_address"`
	Reward          int       `json:"reward"`
	RecruitRole     string    `json:"recruit_role"`
	Description     string    `json:"description"`
}
