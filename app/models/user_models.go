package models

import "time"

// Identity is the authenticated caller of an operation. It is threaded
// explicitly into every service call that needs to know who is acting;
// there is no process-wide current user.
type Identity struct {
	UID         string `json:"uid"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// UserRoles are self-declared flags on a profile. They are stored but never
// consulted for authorization; access control is structural (organizer means
// "uid equals match.organizerId").
type UserRoles struct {
	IsTeamRep bool `bson:"isTeamRep" json:"isTeamRep"`
	IsReferee bool `bson:"isReferee" json:"isReferee"`
}

// UserProfile is the users/{uid} document, created lazily on first sign-in
type UserProfile struct {
	UID         string    `bson:"_id" json:"uid"`
	DisplayName string    `bson:"displayName" json:"displayName"`
	Email       string    `bson:"email" json:"email"`
	PhotoURL    string    `bson:"photoURL" json:"photoURL"`
	Roles       UserRoles `bson:"roles" json:"roles"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}

// Session is the sessions/{token} document backing the Redis session cache
type Session struct {
	ID          string    `bson:"_id" json:"session_token"`
	UID         string    `bson:"uid" json:"uid"`
	DisplayName string    `bson:"displayName" json:"display_name"`
	JWTToken    string    `bson:"jwtToken" json:"jwt_token"`
	SocketID    string    `bson:"socketId" json:"socket_id"`
	IsActive    bool      `bson:"isActive" json:"is_active"`
	CreatedAt   time.Time `bson:"createdAt" json:"created_at"`
	ExpiresAt   time.Time `bson:"expiresAt" json:"expires_at"`
}
