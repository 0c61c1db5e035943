package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"refmatch/app/middlewares"
	"refmatch/app/services"
	"refmatch/app/utils"
	"refmatch/config"
	"refmatch/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMain(m *testing.M) {
	config.JWTSecret = "test-secret"
	os.Exit(m.Run())
}

// memGateway is a minimal in-memory Gateway for HTTP-level tests
type memGateway struct {
	mu          sync.Mutex
	collections map[string]map[string]bson.M
}

func newMemGateway() *memGateway {
	return &memGateway{collections: make(map[string]map[string]bson.M)}
}

func toDoc(record interface{}) (bson.M, error) {
	raw, err := bson.Marshal(record)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (g *memGateway) Create(ctx context.Context, collection string, record interface{}) (string, error) {
	doc, err := toDoc(record)
	if err != nil {
		return "", err
	}
	id, _ := doc["_id"].(string)
	if id == "" {
		return "", fmt.Errorf("record has no _id")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.collections[collection] == nil {
		g.collections[collection] = make(map[string]bson.M)
	}
	g.collections[collection][id] = doc
	return id, nil
}

func (g *memGateway) GetOne(ctx context.Context, collection, id string, dest interface{}) error {
	g.mu.Lock()
	doc, ok := g.collections[collection][id]
	g.mu.Unlock()
	if !ok {
		return database.ErrNotFound
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, dest)
}

func (g *memGateway) UpdateFields(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	doc, ok := g.collections[collection][id]
	if !ok {
		return database.ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

func (g *memGateway) FindAll(ctx context.Context, collection string, predicates []database.Predicate) ([]bson.M, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	results := []bson.M{}
	for _, doc := range g.collections[collection] {
		matched := true
		for _, p := range predicates {
			if doc[p.Field] != p.Value {
				matched = false
				break
			}
		}
		if matched {
			results = append(results, doc)
		}
	}
	return results, nil
}

func (g *memGateway) Subscribe(collection string, predicates []database.Predicate) (*database.Subscription, error) {
	return nil, fmt.Errorf("subscriptions not supported")
}

func (g *memGateway) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestApp() *fiber.App {
	gateway := newMemGateway()
	controller := NewMatchController(services.NewMatchService(gateway))

	app := fiber.New()
	app.Get("/api/matches/:id", controller.GetMatch)
	app.Get("/api/matches/:id/applications", controller.ListApplications)

	guarded := app.Group("/api", middlewares.JWTAuth())
	guarded.Post("/matches", controller.CreateMatch)
	guarded.Post("/matches/:id/applications", controller.Apply)
	guarded.Post("/applications/:id/approve", controller.Approve)
	return app
}

func bearerFor(t *testing.T, uid, displayName string) string {
	t.Helper()
	token, err := utils.GenerateAccessToken(uid, displayName)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, app *fiber.App, method, path, auth string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func postMatchBody() map[string]interface{} {
	return map[string]interface{}{
		"team_name":     "FC East",
		"title":         "Sunday league opener",
		"match_date":    "2026-04-01T14:00:00Z",
		"location_name": "Riverside Park Pitch 2",
		"reward":        5000,
		"recruit_role":  "AR",
	}
}

func TestMatchLifecycleOverHTTP(t *testing.T) {
	app := newTestApp()
	organizerAuth := bearerFor(t, "org-1", "Team Rep")
	refereeAuth := bearerFor(t, "ref-1", "Referee One")

	status, body := doJSON(t, app, "POST", "/api/matches", organizerAuth, postMatchBody())
	require.Equal(t, 201, status)
	match := body["match"].(map[string]interface{})
	matchID := match["id"].(string)
	assert.Equal(t, "recruiting", match["status"])

	status, body = doJSON(t, app, "GET", "/api/matches/"+matchID, "", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, "success", body["status"])

	status, body = doJSON(t, app, "POST", "/api/matches/"+matchID+"/applications", refereeAuth,
		map[string]interface{}{"message": "I live nearby"})
	require.Equal(t, 201, status)
	application := body["application"].(map[string]interface{})
	applicationID := application["id"].(string)
	assert.Equal(t, "pending", application["status"])

	status, body = doJSON(t, app, "GET", "/api/matches/"+matchID+"/applications", "", nil)
	require.Equal(t, 200, status)
	assert.Equal(t, float64(1), body["count"])

	status, _ = doJSON(t, app, "POST", "/api/applications/"+applicationID+"/approve", organizerAuth, nil)
	require.Equal(t, 200, status)

	status, body = doJSON(t, app, "GET", "/api/matches/"+matchID, "", nil)
	require.Equal(t, 200, status)
	match = body["match"].(map[string]interface{})
	assert.Equal(t, "matched", match["status"])
	assert.Equal(t, "ref-1", match["confirmedRefereeId"])
}

func TestCreateMatchRejectsBadInput(t *testing.T) {
	app := newTestApp()
	auth := bearerFor(t, "org-1", "Team Rep")

	t.Run("bad date format", func(t *testing.T) {
		body := postMatchBody()
		body["match_date"] = "tomorrow at noon"
		status, _ := doJSON(t, app, "POST", "/api/matches", auth, body)
		assert.Equal(t, 400, status)
	})

	t.Run("missing title", func(t *testing.T) {
		body := postMatchBody()
		body["title"] = ""
		status, _ := doJSON(t, app, "POST", "/api/matches", auth, body)
		assert.Equal(t, 400, status)
	})

	t.Run("no token", func(t *testing.T) {
		status, _ := doJSON(t, app, "POST", "/api/matches", "", postMatchBody())
		assert.Equal(t, 401, status)
	})
}

func TestServiceErrorStatusMapping(t *testing.T) {
	app := newTestApp()
	organizerAuth := bearerFor(t, "org-1", "Team Rep")
	refereeAuth := bearerFor(t, "ref-1", "Referee One")
	strangerAuth := bearerFor(t, "stranger", "Stranger")

	status, body := doJSON(t, app, "POST", "/api/matches", organizerAuth, postMatchBody())
	require.Equal(t, 201, status)
	matchID := body["match"].(map[string]interface{})["id"].(string)

	t.Run("unknown match is 404", func(t *testing.T) {
		status, _ := doJSON(t, app, "GET", "/api/matches/missing", "", nil)
		assert.Equal(t, 404, status)
	})

	t.Run("self-apply is 403", func(t *testing.T) {
		status, _ := doJSON(t, app, "POST", "/api/matches/"+matchID+"/applications", organizerAuth, map[string]interface{}{})
		assert.Equal(t, 403, status)
	})

	status, body = doJSON(t, app, "POST", "/api/matches/"+matchID+"/applications", refereeAuth, map[string]interface{}{})
	require.Equal(t, 201, status)
	applicationID := body["application"].(map[string]interface{})["id"].(string)

	t.Run("duplicate apply is 409", func(t *testing.T) {
		status, _ := doJSON(t, app, "POST", "/api/matches/"+matchID+"/applications", refereeAuth, map[string]interface{}{})
		assert.Equal(t, 409, status)
	})

	t.Run("approval by non-organizer is 403", func(t *testing.T) {
		status, _ := doJSON(t, app, "POST", "/api/applications/"+applicationID+"/approve", strangerAuth, nil)
		assert.Equal(t, 403, status)
	})

	t.Run("second approval is 409", func(t *testing.T) {
		status, _ := doJSON(t, app, "POST", "/api/applications/"+applicationID+"/approve", organizerAuth, nil)
		require.Equal(t, 200, status)

		status, _ = doJSON(t, app, "POST", "/api/applications/"+applicationID+"/approve", organizerAuth, nil)
		assert.Equal(t, 409, status)
	})
}
