package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"refmatch/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func waitSnapshot(t *testing.T, q *LiveQuery) []bson.M {
	t.Helper()
	select {
	case snapshot := <-q.Snapshots():
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func assertNoSnapshot(t *testing.T, q *LiveQuery) {
	t.Helper()
	select {
	case snapshot := <-q.Snapshots():
		t.Fatalf("unexpected snapshot delivered: %v", snapshot)
	case <-time.After(100 * time.Millisecond):
	}
}

func seedMatch(t *testing.T, gateway *fakeGateway, id, organizerID, status string, createdAt interface{}) {
	t.Helper()
	doc := bson.M{
		"_id":         id,
		"organizerId": organizerID,
		"title":       "title-" + id,
		"status":      status,
	}
	if createdAt != nil {
		doc["createdAt"] = createdAt
	}
	_, err := gateway.Create(context.Background(), database.MatchesCollection, doc)
	require.NoError(t, err)
}

func TestLiveQuerySortsByCreatedAtDescending(t *testing.T) {
	gateway := newFakeGateway()
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	seedMatch(t, gateway, "m-old", "u1", "recruiting", base)
	seedMatch(t, gateway, "m-new", "u1", "recruiting", base.Add(2*time.Hour))
	seedMatch(t, gateway, "m-mid", "u1", "recruiting", base.Add(1*time.Hour))
	seedMatch(t, gateway, "m-undated", "u1", "recruiting", nil)

	query, err := NewLiveQuery(gateway, database.MatchesCollection, nil)
	require.NoError(t, err)
	defer query.Close()

	snapshot := waitSnapshot(t, query)
	require.Len(t, snapshot, 4)

	assert.Equal(t, "m-new", snapshot[0]["_id"])
	assert.Equal(t, "m-mid", snapshot[1]["_id"])
	assert.Equal(t, "m-old", snapshot[2]["_id"])
	// Records without createdAt sort after all dated records
	assert.Equal(t, "m-undated", snapshot[3]["_id"])

	assert.False(t, query.Loading())
	assert.NoError(t, query.Err())
}

func TestLiveQueryFiltersByPredicates(t *testing.T) {
	gateway := newFakeGateway()
	now := time.Now().UTC()

	seedMatch(t, gateway, "m1", "u1", "recruiting", now)
	seedMatch(t, gateway, "m2", "u2", "recruiting", now)
	seedMatch(t, gateway, "m3", "u1", "matched", now)

	query, err := NewLiveQuery(gateway, database.MatchesCollection, []database.Predicate{
		{Field: "organizerId", Value: "u1"},
		{Field: "status", Value: "recruiting"},
	})
	require.NoError(t, err)
	defer query.Close()

	snapshot := waitSnapshot(t, query)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "m1", snapshot[0]["_id"])
}

func TestLiveQueryDeliversOnEveryChange(t *testing.T) {
	gateway := newFakeGateway()

	query, err := NewLiveQuery(gateway, database.MatchesCollection, []database.Predicate{
		{Field: "status", Value: "recruiting"},
	})
	require.NoError(t, err)
	defer query.Close()

	snapshot := waitSnapshot(t, query)
	assert.Empty(t, snapshot)

	seedMatch(t, gateway, "m1", "u1", "recruiting", time.Now().UTC())
	snapshot = waitSnapshot(t, query)
	require.Len(t, snapshot, 1)

	// A document leaving the predicate set produces a fresh snapshot too
	err = gateway.UpdateFields(context.Background(), database.MatchesCollection, "m1", map[string]interface{}{
		"status": "matched",
	})
	require.NoError(t, err)

	snapshot = waitSnapshot(t, query)
	assert.Empty(t, snapshot)
}

func TestLiveQueryCloseIsIdempotent(t *testing.T) {
	gateway := newFakeGateway()

	query, err := NewLiveQuery(gateway, database.MatchesCollection, nil)
	require.NoError(t, err)

	waitSnapshot(t, query)

	query.Close()
	query.Close()

	select {
	case <-query.Done():
	default:
		t.Fatal("Done should be closed after Close")
	}

	// No further delivery after close
	seedMatch(t, gateway, "m1", "u1", "recruiting", time.Now().UTC())
	assertNoSnapshot(t, query)
}

func TestLiveQueryPredicateChangeReplacesSubscription(t *testing.T) {
	gateway := newFakeGateway()
	now := time.Now().UTC()

	seedMatch(t, gateway, "m1", "u1", "recruiting", now)
	seedMatch(t, gateway, "m2", "u2", "recruiting", now)

	query, err := NewLiveQuery(gateway, database.MatchesCollection, []database.Predicate{
		{Field: "organizerId", Value: "u1"},
	})
	require.NoError(t, err)
	defer query.Close()

	snapshot := waitSnapshot(t, query)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "m1", snapshot[0]["_id"])

	err = query.SetPredicates([]database.Predicate{
		{Field: "organizerId", Value: "u2"},
	})
	require.NoError(t, err)

	snapshot = waitSnapshot(t, query)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "m2", snapshot[0]["_id"])

	// Writes matching the old predicate set never reach the consumer
	seedMatch(t, gateway, "m3", "u1", "recruiting", now.Add(time.Minute))
	snapshot = waitSnapshot(t, query)
	for _, record := range snapshot {
		assert.Equal(t, "u2", record["organizerId"])
	}
}

func TestLiveQuerySamePredicatesDoNotResubscribe(t *testing.T) {
	gateway := newFakeGateway()

	predicates := []database.Predicate{{Field: "status", Value: "recruiting"}}
	query, err := NewLiveQuery(gateway, database.MatchesCollection, predicates)
	require.NoError(t, err)
	defer query.Close()

	waitSnapshot(t, query)
	require.Equal(t, 1, gateway.subscribeCount)

	// Structurally equal predicate set is a no-op
	err = query.SetPredicates([]database.Predicate{{Field: "status", Value: "recruiting"}})
	require.NoError(t, err)
	assert.Equal(t, 1, gateway.subscribeCount)
}

func TestLiveQueryStreamFailureLatchesError(t *testing.T) {
	gateway := newFakeGateway()

	query, err := NewLiveQuery(gateway, database.MatchesCollection, nil)
	require.NoError(t, err)

	waitSnapshot(t, query)

	streamErr := errors.New("stream broken")
	gateway.lastSubscription().failStream(streamErr)

	select {
	case <-query.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal error")
	}

	assert.ErrorIs(t, query.Err(), streamErr)
	assert.False(t, query.Loading())

	// The query is closed: predicate changes are rejected
	err = query.SetPredicates([]database.Predicate{{Field: "status", Value: "recruiting"}})
	assert.ErrorIs(t, err, ErrLiveQueryClosed)
}

func TestLiveQuerySubscribeFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.subscribeErr = errors.New("no change streams here")

	_, err := NewLiveQuery(gateway, database.MatchesCollection, nil)
	assert.Error(t, err)
}
