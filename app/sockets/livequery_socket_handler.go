package sockets

import (
	"encoding/json"
	"log"
	"time"

	"refmatch/app/models"
	"refmatch/app/services"
	"refmatch/database"

	socketio "github.com/doquangtan/socket.io/v4"
	"github.com/google/uuid"
)

// registerLiveQueryHandlers wires the subscription events for both
// collections the views watch: the dashboard and search pages subscribe to
// matches, the detail page subscribes to a match's applications.
func (h *SocketIoHandler) registerLiveQueryHandlers(socket *socketio.Socket) {
	// Matches: filters are arbitrary equality predicates, e.g.
	// {"organizerId": "..."} for the dashboard or {"status": "recruiting"}
	// for the public search.
	socket.On("matches:subscribe", func(event *socketio.EventPayload) {
		req, ok := h.parseSubscribeRequest(socket, event, database.MatchesCollection)
		if !ok {
			return
		}
		h.openSubscription(socket, database.MatchesCollection, predicatesFromFilters(req.Filters))
	})

	socket.On("matches:subscription:update", func(event *socketio.EventPayload) {
		h.handleSubscriptionUpdate(socket, event, database.MatchesCollection)
	})

	socket.On("matches:unsubscribe", func(event *socketio.EventPayload) {
		h.handleUnsubscribe(socket, event, database.MatchesCollection)
	})

	// Applications: always scoped to a single match
	socket.On("applications:subscribe", func(event *socketio.EventPayload) {
		req, ok := h.parseSubscribeRequest(socket, event, database.ApplicationsCollection)
		if !ok {
			return
		}
		if req.MatchID == "" {
			h.emitSubscriptionError(socket, "", database.ApplicationsCollection, "Missing required field: match_id")
			return
		}
		predicates := []database.Predicate{{Field: "matchId", Value: req.MatchID}}
		h.openSubscription(socket, database.ApplicationsCollection, predicates)
	})

	socket.On("applications:unsubscribe", func(event *socketio.EventPayload) {
		h.handleUnsubscribe(socket, event, database.ApplicationsCollection)
	})
}

// openSubscription starts a live query and pumps its snapshots to the socket
// until the query ends or the socket unsubscribes
func (h *SocketIoHandler) openSubscription(socket *socketio.Socket, collection string, predicates []database.Predicate) {
	query, err := services.NewLiveQuery(h.gateway, collection, predicates)
	if err != nil {
		log.Printf("❌ Failed to open live query on %s: %v", collection, err)
		h.emitSubscriptionError(socket, "", collection, "Failed to establish subscription")
		return
	}

	subscriptionID := uuid.New().String()
	h.addSubscription(socket.Id, subscriptionID, collection, query)

	socket.Emit(collection+":subscribed", models.SubscribeAck{
		Status:         "success",
		Message:        "Subscription established",
		SubscriptionID: subscriptionID,
		Collection:     collection,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		SocketID:       socket.Id,
		Event:          collection + ":subscribed",
	})

	log.Printf("📡 Subscription %s opened on %s for socket %s", subscriptionID, collection, socket.Id)

	go h.pumpSnapshots(socket, subscriptionID, collection, query)
}

// pumpSnapshots forwards every snapshot of a live query to its socket
func (h *SocketIoHandler) pumpSnapshots(socket *socketio.Socket, subscriptionID, collection string, query *services.LiveQuery) {
	for {
		select {
		case snapshot := <-query.Snapshots():
			socket.Emit(collection+":snapshot", models.SnapshotResponse{
				Status:         "success",
				SubscriptionID: subscriptionID,
				Collection:     collection,
				Records:        snapshot,
				Count:          len(snapshot),
				Timestamp:      time.Now().UTC().Format(time.RFC3339),
				SocketID:       socket.Id,
				Event:          collection + ":snapshot",
			})
		case <-query.Done():
			if err := query.Err(); err != nil {
				h.emitSubscriptionError(socket, subscriptionID, collection, "Subscription stream failed")
			}
			h.removeSubscription(socket.Id, subscriptionID)
			return
		}
	}
}

// handleSubscriptionUpdate swaps the predicate set on an existing live query
func (h *SocketIoHandler) handleSubscriptionUpdate(socket *socketio.Socket, event *socketio.EventPayload, collection string) {
	data, ok := firstEventData(event)
	if !ok {
		h.emitSubscriptionError(socket, "", collection, "No update data provided")
		return
	}

	var req models.UpdateSubscriptionRequest
	if !decodeEventData(data, &req) || req.SubscriptionID == "" {
		h.emitSubscriptionError(socket, "", collection, "Missing required field: subscription_id")
		return
	}

	sub, ok := h.getSubscription(socket.Id, req.SubscriptionID)
	if !ok || sub.collection != collection {
		h.emitSubscriptionError(socket, req.SubscriptionID, collection, "Unknown subscription")
		return
	}

	if err := sub.query.SetPredicates(predicatesFromFilters(req.Filters)); err != nil {
		h.emitSubscriptionError(socket, req.SubscriptionID, collection, "Failed to update subscription")
		return
	}

	log.Printf("📡 Subscription %s predicates updated", req.SubscriptionID)
}

// handleUnsubscribe tears one live query down
func (h *SocketIoHandler) handleUnsubscribe(socket *socketio.Socket, event *socketio.EventPayload, collection string) {
	data, ok := firstEventData(event)
	if !ok {
		h.emitSubscriptionError(socket, "", collection, "No unsubscribe data provided")
		return
	}

	var req models.UnsubscribeRequest
	if !decodeEventData(data, &req) || req.SubscriptionID == "" {
		h.emitSubscriptionError(socket, "", collection, "Missing required field: subscription_id")
		return
	}

	if h.removeSubscription(socket.Id, req.SubscriptionID) {
		log.Printf("🧹 Subscription %s closed by socket %s", req.SubscriptionID, socket.Id)
	}
}

// parseSubscribeRequest validates the subscribe payload shape. An absent
// payload is a valid unfiltered subscription.
func (h *SocketIoHandler) parseSubscribeRequest(socket *socketio.Socket, event *socketio.EventPayload, collection string) (*models.SubscribeRequest, bool) {
	if len(event.Data) == 0 {
		return &models.SubscribeRequest{}, true
	}

	data, ok := event.Data[0].(map[string]interface{})
	if !ok {
		h.emitSubscriptionError(socket, "", collection, "Invalid subscribe data format")
		return nil, false
	}

	var req models.SubscribeRequest
	if !decodeEventData(data, &req) {
		h.emitSubscriptionError(socket, "", collection, "Failed to parse subscribe data")
		return nil, false
	}
	return &req, true
}

// decodeEventData converts a loose event payload into a typed request
func decodeEventData(data map[string]interface{}, dest interface{}) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// emitSubscriptionError reports a live-query failure to the socket
func (h *SocketIoHandler) emitSubscriptionError(socket *socketio.Socket, subscriptionID, collection, message string) {
	socket.Emit("subscription:error", models.SubscriptionError{
		Status:         "error",
		Message:        message,
		SubscriptionID: subscriptionID,
		Collection:     collection,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		SocketID:       socket.Id,
		Event:          "subscription:error",
	})
}
