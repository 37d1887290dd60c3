package docstore

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
)

// Finder runs a one-shot query; backends hand it to their Broker.
type Finder func(ctx context.Context, collection string, filter Filter) ([]Document, error)

// Snapshot is the full matching record set of a subscription at one point in
// time, or the error that prevented loading it.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Broker keeps the live subscriptions of one store and re-runs their queries
// whenever a collection changes.
type Broker struct {
	find Finder

	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription

	// serializes Publish so snapshots reach a subscriber in query order
	pubMu sync.Mutex

	// stamped on every query before it runs; a subscriber drops results older
	// than the one it already holds
	gen atomic.Uint64
}

func NewBroker(find Finder) *Broker {
	return &Broker{
		find: find,
		subs: make(map[string]map[uint64]*Subscription),
	}
}

// Subscribe registers a live query and delivers its first snapshot. The
// subscription is visible to Publish before the first query runs, so a write
// racing with Subscribe is never missed.
func (b *Broker) Subscribe(ctx context.Context, collection string, filter Filter) (*Subscription, error) {
	b.mu.Lock()
	b.nextID++
	sub := &Subscription{
		id:         b.nextID,
		collection: collection,
		filter:     filter,
		broker:     b,
		ch:         make(chan Snapshot, 1),
	}
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[uint64]*Subscription)
	}
	b.subs[collection][sub.id] = sub
	b.mu.Unlock()

	gen := b.gen.Add(1)
	docs, err := b.find(ctx, collection, filter)
	if err != nil {
		sub.Close()
		return nil, err
	}
	sub.deliver(gen, Snapshot{Docs: docs})
	return sub, nil
}

// Publish pushes fresh snapshots to every subscription on the given collections.
func (b *Broker) Publish(ctx context.Context, collections ...string) {
	ctx = context.WithoutCancel(ctx)

	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	for _, collection := range collections {
		for _, sub := range b.subscribers(collection) {
			gen := b.gen.Add(1)
			docs, err := b.find(ctx, collection, sub.filter)
			if err != nil {
				log.Printf("[docstore][publish][err] collection=%s filter=%s: %v", collection, sub.filter, err)
			}
			sub.deliver(gen, Snapshot{Docs: docs, Err: err})
		}
	}
}

// PublishAll refreshes every subscription, used after a change feed reconnects
// and individual notifications may have been missed.
func (b *Broker) PublishAll(ctx context.Context) {
	b.mu.Lock()
	collections := make([]string, 0, len(b.subs))
	for c := range b.subs {
		collections = append(collections, c)
	}
	b.mu.Unlock()
	b.Publish(ctx, collections...)
}

// Active returns the number of open subscriptions.
func (b *Broker) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, subs := range b.subs {
		n += len(subs)
	}
	return n
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	var all []*Subscription
	for _, subs := range b.subs {
		for _, s := range subs {
			all = append(all, s)
		}
	}
	b.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

func (b *Broker) subscribers(collection string) []*Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[collection]
	out := make([]*Subscription, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	return out
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[sub.collection]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.subs, sub.collection)
		}
	}
}

// Subscription is a standing query. It must be closed by its owner; an open
// subscription keeps receiving snapshots.
type Subscription struct {
	id         uint64
	collection string
	filter     Filter
	broker     *Broker

	mu      sync.Mutex
	ch      chan Snapshot
	closed  bool
	lastGen uint64
}

// C delivers snapshots. Only the newest undelivered snapshot is kept, so a
// slow reader skips intermediate states but always sees the latest one.
// The channel is closed by Close.
func (s *Subscription) C() <-chan Snapshot {
	return s.ch
}

func (s *Subscription) Collection() string { return s.collection }

func (s *Subscription) Filter() Filter { return s.filter }

// Close releases the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	s.broker.remove(s)
}

func (s *Subscription) deliver(gen uint64, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen < s.lastGen {
		return
	}
	s.lastGen = gen
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}
