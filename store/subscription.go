package store

import "sync"

// Subscription is a live feed of full-collection snapshots.
type Subscription struct {
	ch        chan []Document
	closeOnce sync.Once
	detach    func()
}

// C returns the snapshot channel. It is closed when the subscription is
// closed or the owning store shuts down.
func (s *Subscription) C() <-chan []Document { return s.ch }

// Close unsubscribes. Further snapshots are not delivered; in-flight writes
// issued before Close are unaffected.
func (s *Subscription) Close() {
	s.closeOnce.Do(s.detach)
}

// broadcaster fans full-collection snapshots out to subscribers. Publishing
// is serialized by the owning store's mutex, which makes the drain-then-send
// coalescing below race-free: there is never more than one sender per
// channel.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[string]map[*Subscription]struct{})}
}

// subscribe registers a subscription for the collection and primes it with
// the initial snapshot.
func (b *broadcaster) subscribe(collection string, initial []Document) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{ch: make(chan []Document, 1)}
	sub.detach = func() { b.remove(collection, sub) }

	if b.closed {
		close(sub.ch)
		return sub
	}
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[*Subscription]struct{})
	}
	b.subs[collection][sub] = struct{}{}
	sub.ch <- initial
	return sub
}

func (b *broadcaster) remove(collection string, sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if set, ok := b.subs[collection]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub.ch)
		}
	}
}

// publish delivers a snapshot to every subscriber of the collection,
// replacing any not-yet-consumed snapshot so consumers always see the
// latest state.
func (b *broadcaster) publish(collection string, snapshot []Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subs[collection] {
		select {
		case sub.ch <- snapshot:
		default:
			// Drop the stale pending snapshot, then deliver the new one.
			select {
			case <-sub.ch:
			default:
			}
			sub.ch <- snapshot
		}
	}
}

// shutdown closes every subscription channel and rejects future publishes.
func (b *broadcaster) shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, set := range b.subs {
		for sub := range set {
			close(sub.ch)
		}
	}
	b.subs = nil
}
