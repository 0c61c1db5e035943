package models

import "go.mongodb.org/mongo-driver/bson"

// WelcomeResponse greets a freshly connected socket
type WelcomeResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	SocketID  string `json:"socket_id"`
	Event     string `json:"event"`
}

// SubscribeRequest opens a live query over a collection. Filters are
// equality predicates keyed by document field name.
type SubscribeRequest struct {
	Filters map[string]string `json:"filters"`
	MatchID string            `json:"match_id,omitempty"`
}

// SubscribeAck confirms a live query was established
type SubscribeAck struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	SubscriptionID string `json:"subscription_id"`
	Collection     string `json:"collection"`
	Timestamp      string `json:"timestamp"`
	SocketID       string `json:"socket_id"`
	Event          string `json:"event"`
}

// SnapshotResponse carries a complete, sorted result set for a live query
type SnapshotResponse struct {
	Status         string   `json:"status"`
	SubscriptionID string   `json:"subscription_id"`
	Collection     string   `json:"collection"`
	Records        []bson.M `json:"records"`
	Count          int      `json:"count"`
	Timestamp      string   `json:"timestamp"`
	SocketID       string   `json:"socket_id"`
	Event          string   `json:"event"`
}

// UpdateSubscriptionRequest swaps the predicate set on an existing live query
type UpdateSubscriptionRequest struct {
	SubscriptionID string            `json:"subscription_id"`
	Filters        map[string]string `json:"filters"`
}

// UnsubscribeRequest tears down a live query
type UnsubscribeRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

// SubscriptionError reports a failed or broken live query to its consumer
type SubscriptionError struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Collection     string `json:"collection,omitempty"`
	Timestamp      string `json:"timestamp"`
	SocketID       string `json:"socket_id"`
	Event          string `json:"event"`
}

// AuthChangedEvent notifies a socket that its session signed in or out
type AuthChangedEvent struct {
	Status    string       `json:"status"`
	Identity  *UserProfile `json:"identity,omitempty"`
	Timestamp string       `json:"timestamp"`
	SocketID  string       `json:"socket_id"`
	Event     string       `json:"event"`
}
