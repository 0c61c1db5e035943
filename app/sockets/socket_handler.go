package sockets

import (
	"log"
	"sort"
	"sync"
	"time"

	"refmatch/app/models"
	"refmatch/app/services"
	"refmatch/app/utils"
	"refmatch/config"
	"refmatch/database"

	socketio "github.com/doquangtan/socket.io/v4"
	"github.com/gofiber/fiber/v2"
)

// socketSubscription pairs a live query with the collection it watches
type socketSubscription struct {
	collection string
	query      *services.LiveQuery
}

// SocketIoHandler handles all Socket.IO related functionality. Every live
// query a socket opens is tracked here and torn down when the socket goes
// away, so no subscription outlives its consumer.
type SocketIoHandler struct {
	io          *socketio.Io
	gateway     database.Gateway
	authService *services.AuthService

	mu            sync.Mutex
	subscriptions map[string]map[string]*socketSubscription
}

// NewSocketHandler creates a new Socket.IO handler instance
func NewSocketHandler(gateway database.Gateway, authService *services.AuthService) *SocketIoHandler {
	io := socketio.New()

	handler := &SocketIoHandler{
		io:            io,
		gateway:       gateway,
		authService:   authService,
		subscriptions: make(map[string]map[string]*socketSubscription),
	}

	handler.setupSocketHandlers()
	return handler
}

// setupSocketHandlers configures all Socket.IO event handlers
func (h *SocketIoHandler) setupSocketHandlers() {
	// Connections are allowed anonymously: the open-postings search is
	// public. A token, when supplied, must verify.
	h.io.OnAuthorization(func(params map[string]string) bool {
		token, ok := params["token"]
		if !ok || token == "" {
			return true
		}
		if _, err := utils.VerifyAccessToken(token); err != nil {
			log.Printf("Socket authorization rejected: %v", err)
			return false
		}
		return true
	})

	// Main connection handler
	h.io.OnConnection(func(socket *socketio.Socket) {
		log.Printf("✅ Socket connected: %s (namespace: %s)", socket.Id, socket.Nps)

		welcome := models.WelcomeResponse{
			Status:    "connected",
			Message:   "Welcome to the referee matchmaking server!",
			Version:   config.AppVersion,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			SocketID:  socket.Id,
			Event:     "connect",
		}
		socket.Emit("connect_response", welcome)

		// Attach this socket to an authenticated session
		socket.On("auth:attach", func(event *socketio.EventPayload) {
			h.handleAuthAttach(socket, event)
		})

		// Live query events for both collections
		h.registerLiveQueryHandlers(socket)

		// Disconnect handlers
		socket.On("disconnecting", func(event *socketio.EventPayload) {
			log.Printf("🔌 Socket disconnecting: %s (namespace: %s)", socket.Id, socket.Nps)
		})

		socket.On("disconnect", func(event *socketio.EventPayload) {
			log.Printf("🔌 Socket disconnected: %s (namespace: %s)", socket.Id, socket.Nps)
			h.closeAllSubscriptions(socket.Id)
		})
	})
}

// handleAuthAttach links a socket to its session and pushes the identity
func (h *SocketIoHandler) handleAuthAttach(socket *socketio.Socket, event *socketio.EventPayload) {
	reqData, ok := firstEventData(event)
	if !ok {
		h.emitSubscriptionError(socket, "", "", "No attach data provided")
		return
	}

	sessionToken, ok := reqData["session_token"].(string)
	if !ok || sessionToken == "" {
		h.emitSubscriptionError(socket, "", "", "Missing required field: session_token")
		return
	}

	sessionService := h.authService.GetSessionService()
	if err := sessionService.UpdateSessionSocketID(sessionToken, socket.Id); err != nil {
		h.emitSubscriptionError(socket, "", "", "Invalid or expired session")
		return
	}

	session, err := sessionService.GetSession(sessionToken)
	if err != nil {
		h.emitSubscriptionError(socket, "", "", "Invalid or expired session")
		return
	}

	profile, err := h.authService.GetProfile(session.UID)
	if err != nil {
		log.Printf("Warning: Failed to load profile for %s: %v", session.UID, err)
	}

	socket.Emit("auth:changed", models.AuthChangedEvent{
		Status:    "success",
		Identity:  profile,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		SocketID:  socket.Id,
		Event:     "auth:changed",
	})
}

// addSubscription registers a live query under its socket
func (h *SocketIoHandler) addSubscription(socketID, subscriptionID, collection string, query *services.LiveQuery) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscriptions[socketID] == nil {
		h.subscriptions[socketID] = make(map[string]*socketSubscription)
	}
	h.subscriptions[socketID][subscriptionID] = &socketSubscription{
		collection: collection,
		query:      query,
	}
}

// getSubscription looks a live query up by socket and subscription id
func (h *SocketIoHandler) getSubscription(socketID, subscriptionID string) (*socketSubscription, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscriptions[socketID][subscriptionID]
	return sub, ok
}

// removeSubscription drops a live query and closes it
func (h *SocketIoHandler) removeSubscription(socketID, subscriptionID string) bool {
	h.mu.Lock()
	sub, ok := h.subscriptions[socketID][subscriptionID]
	if ok {
		delete(h.subscriptions[socketID], subscriptionID)
	}
	h.mu.Unlock()

	if !ok {
		return false
	}
	sub.query.Close()
	return true
}

// closeAllSubscriptions tears down every live query a socket holds
func (h *SocketIoHandler) closeAllSubscriptions(socketID string) {
	h.mu.Lock()
	subs := h.subscriptions[socketID]
	delete(h.subscriptions, socketID)
	h.mu.Unlock()

	for id, sub := range subs {
		sub.query.Close()
		log.Printf("🧹 Closed subscription %s for socket %s", id, socketID)
	}
}

// predicatesFromFilters converts a filters payload into equality predicates.
// Keys are sorted so an unchanged filter set compares structurally equal.
func predicatesFromFilters(filters map[string]string) []database.Predicate {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	predicates := make([]database.Predicate, 0, len(keys))
	for _, key := range keys {
		predicates = append(predicates, database.Predicate{Field: key, Value: filters[key]})
	}
	return predicates
}

// firstEventData extracts the first payload object of a socket event
func firstEventData(event *socketio.EventPayload) (map[string]interface{}, bool) {
	if len(event.Data) == 0 {
		return nil, false
	}
	data, ok := event.Data[0].(map[string]interface{})
	return data, ok
}

// GetIo returns the Socket.IO instance
func (h *SocketIoHandler) GetIo() *socketio.Io {
	return h.io
}

// SetupSocketRoutes configures Socket.IO routes for the Fiber app
func (h *SocketIoHandler) SetupSocketRoutes(app *fiber.App) {
	app.Use("/", h.io.Middleware)
	app.Route("/socket.io", h.io.FiberRoute)
}
