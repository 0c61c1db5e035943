package services

import (
	"log"
	"reflect"
	"sort"
	"sync"
	"time"

	"refmatch/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LiveQuery projects a gateway subscription into a continuously updated,
// client-sorted result list. Snapshots are ordered by createdAt descending;
// records without a createdAt sort after all dated ones. Sorting happens
// here rather than in the store so the equality filter never needs a
// composite index.
type LiveQuery struct {
	gateway    database.Gateway
	collection string

	mu         sync.Mutex
	predicates []database.Predicate
	sub        *database.Subscription
	generation int
	started    bool
	loading    bool
	err        error
	closed     bool

	snapshots chan []bson.M
	done      chan struct{}
}

// NewLiveQuery opens a live query over the collection with the given
// equality predicates. The caller must Close it when the consuming view
// goes away.
func NewLiveQuery(gateway database.Gateway, collection string, predicates []database.Predicate) (*LiveQuery, error) {
	q := &LiveQuery{
		gateway:    gateway,
		collection: collection,
		loading:    true,
		snapshots:  make(chan []bson.M, 16),
		done:       make(chan struct{}),
	}
	if err := q.SetPredicates(predicates); err != nil {
		return nil, err
	}
	return q, nil
}

// Snapshots delivers each fresh, sorted result set. When the consumer falls
// behind, older pending snapshots are dropped; the latest one always wins.
func (q *LiveQuery) Snapshots() <-chan []bson.M {
	return q.snapshots
}

// Done is closed when the query is closed or its stream fails terminally
func (q *LiveQuery) Done() <-chan struct{} {
	return q.done
}

// Loading reports whether the first snapshot is still pending
func (q *LiveQuery) Loading() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loading
}

// Err returns the terminal stream error, if any
func (q *LiveQuery) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// SetPredicates re-establishes the subscription for a changed predicate set.
// The comparison is structural: an equal set is a no-op and the existing
// subscription keeps running. The old subscription is always torn down
// before the new one delivers, so no stale snapshot can slip through.
func (q *LiveQuery) SetPredicates(predicates []database.Predicate) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrLiveQueryClosed
	}
	if q.started && samePredicates(q.predicates, predicates) {
		q.mu.Unlock()
		return nil
	}
	if q.sub != nil {
		q.sub.Cancel()
		q.sub = nil
	}
	q.generation++
	gen := q.generation
	q.predicates = append([]database.Predicate(nil), predicates...)
	q.started = true
	q.loading = true
	q.mu.Unlock()

	sub, err := q.gateway.Subscribe(q.collection, predicates)
	if err != nil {
		q.fail(gen, err)
		return err
	}

	q.mu.Lock()
	if q.closed || gen != q.generation {
		q.mu.Unlock()
		sub.Cancel()
		return nil
	}
	q.sub = sub
	q.mu.Unlock()

	go q.pump(gen, sub)
	return nil
}

// Close cancels the subscription and stops all delivery. Idempotent.
func (q *LiveQuery) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	sub := q.sub
	q.sub = nil
	q.finishLocked()
	q.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

func (q *LiveQuery) pump(gen int, sub *database.Subscription) {
	for snapshot := range sub.Snapshots {
		sorted := sortByCreatedAtDesc(snapshot)

		q.mu.Lock()
		if q.closed || gen != q.generation {
			q.mu.Unlock()
			return
		}
		q.loading = false
		q.deliverLocked(sorted)
		q.mu.Unlock()
	}

	// Snapshot channel closed: either canceled (no error queued) or the
	// stream failed and the error is waiting.
	if err, ok := <-sub.Errors; ok && err != nil {
		q.fail(gen, err)
	}
}

// fail latches a terminal error for the current generation. There is no
// automatic reconnection; the consumer surfaces the error and tears down.
func (q *LiveQuery) fail(gen int, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || gen != q.generation {
		return
	}
	log.Printf("❌ Live query on %s failed: %v", q.collection, err)
	q.err = err
	q.loading = false
	q.closed = true
	if q.sub != nil {
		q.sub.Cancel()
		q.sub = nil
	}
	q.finishLocked()
}

func (q *LiveQuery) finishLocked() {
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}

// deliverLocked never blocks: with a full buffer it drops the oldest
// pending snapshot in favor of the new one.
func (q *LiveQuery) deliverLocked(snapshot []bson.M) {
	select {
	case q.snapshots <- snapshot:
	default:
		select {
		case <-q.snapshots:
		default:
		}
		select {
		case q.snapshots <- snapshot:
		default:
		}
	}
}

func samePredicates(a, b []database.Predicate) bool {
	if len(a) != len(b) {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// sortByCreatedAtDesc orders records newest first. Records missing createdAt
// go last, keeping their relative order among themselves.
func sortByCreatedAtDesc(records []bson.M) []bson.M {
	sorted := make([]bson.M, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		ti, iok := createdAtOf(sorted[i])
		tj, jok := createdAtOf(sorted[j])
		if iok != jok {
			return iok
		}
		if !iok {
			return false
		}
		return ti.After(tj)
	})
	return sorted
}

func createdAtOf(record bson.M) (time.Time, bool) {
	switch v := record["createdAt"].(type) {
	case time.Time:
		return v, true
	case primitive.DateTime:
		return v.Time(), true
	default:
		return time.Time{}, false
	}
}
