package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when a referenced document id does not resolve to a record
var ErrNotFound = errors.New("record not found")

// Predicate is an equality filter condition applied to a collection query.
// Equality is the only operator the application needs.
type Predicate struct {
	Field string
	Value interface{}
}

// Gateway exposes create/read/update and live-subscription primitives over
// named document collections. Individual writes are atomic; multi-document
// work goes through WithTransaction.
type Gateway interface {
	Create(ctx context.Context, collection string, record interface{}) (string, error)
	GetOne(ctx context.Context, collection, id string, dest interface{}) error
	UpdateFields(ctx context.Context, collection, id string, fields map[string]interface{}) error
	FindAll(ctx context.Context, collection string, predicates []Predicate) ([]bson.M, error)
	Subscribe(collection string, predicates []Predicate) (*Subscription, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Subscription is a long-lived live query. Every relevant change to the
// underlying collection pushes a fresh, complete result set onto Snapshots.
// A stream failure is delivered once on Errors and ends the subscription.
type Subscription struct {
	Snapshots <-chan []bson.M
	Errors    <-chan error

	cancel func()
	once   sync.Once
}

// NewSubscription wires a subscription around its delivery channels.
func NewSubscription(snapshots <-chan []bson.M, errs <-chan error, cancel func()) *Subscription {
	return &Subscription{
		Snapshots: snapshots,
		Errors:    errs,
		cancel:    cancel,
	}
}

// Cancel stops all further delivery. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// MongoGateway implements Gateway on top of a MongoDB database. Subscriptions
// are driven by change streams: every event re-runs the filtered query and
// pushes the complete result set, which keeps delivery semantics identical
// for inserts, updates and documents entering or leaving the predicate set.
type MongoGateway struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoGateway creates a gateway over an initialized database handle
func NewMongoGateway(client *mongo.Client, db *mongo.Database) *MongoGateway {
	if client == nil || db == nil {
		panic("MongoDB client and database cannot be nil")
	}
	return &MongoGateway{client: client, db: db}
}

// Create inserts a record and returns its assigned id
func (g *MongoGateway) Create(ctx context.Context, collection string, record interface{}) (string, error) {
	res, err := g.db.Collection(collection).InsertOne(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to insert into %s: %v", collection, err)
	}

	switch id := res.InsertedID.(type) {
	case string:
		return id, nil
	default:
		return fmt.Sprintf("%v", id), nil
	}
}

// GetOne loads a single record by id into dest
func (g *MongoGateway) GetOne(ctx context.Context, collection, id string, dest interface{}) error {
	err := g.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(dest)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s/%s: %v", collection, id, err)
	}
	return nil
}

// UpdateFields applies a partial update to a record by id
func (g *MongoGateway) UpdateFields(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	res, err := g.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %v", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAll returns every record in the collection matching all predicates
func (g *MongoGateway) FindAll(ctx context.Context, collection string, predicates []Predicate) ([]bson.M, error) {
	cursor, err := g.db.Collection(collection).Find(ctx, buildFilter(predicates))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %v", collection, err)
	}

	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode %s results: %v", collection, err)
	}
	return results, nil
}

// Subscribe opens a live query over the collection. The first snapshot is the
// current result set; each subsequent change-stream event pushes a fresh one.
func (g *MongoGateway) Subscribe(collection string, predicates []Predicate) (*Subscription, error) {
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := g.db.Collection(collection).Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open change stream on %s: %v", collection, err)
	}

	snapshots := make(chan []bson.M, 8)
	errs := make(chan error, 1)
	sub := NewSubscription(snapshots, errs, cancel)

	go g.pump(ctx, collection, predicates, stream, snapshots, errs)

	return sub, nil
}

func (g *MongoGateway) pump(ctx context.Context, collection string, predicates []Predicate, stream *mongo.ChangeStream, snapshots chan<- []bson.M, errs chan<- error) {
	defer close(snapshots)
	defer close(errs)
	defer stream.Close(context.Background())

	push := func() bool {
		results, err := g.FindAll(ctx, collection, predicates)
		if err != nil {
			if ctx.Err() == nil {
				errs <- err
			}
			return false
		}
		select {
		case snapshots <- results:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// Initial snapshot before any change arrives
	if !push() {
		return
	}

	for stream.Next(ctx) {
		if !push() {
			return
		}
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		log.Printf("❌ Change stream on %s failed: %v", collection, err)
		errs <- err
	}
}

// WithTransaction runs fn inside a single multi-document transaction. Every
// gateway call made with the context passed to fn joins the transaction.
func (g *MongoGateway) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := g.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// buildFilter converts equality predicates into a MongoDB filter document
func buildFilter(predicates []Predicate) bson.M {
	filter := bson.M{}
	for _, p := range predicates {
		filter[p.Field] = p.Value
	}
	return filter
}
