package stream

import (
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// maxFanoutWorkers bounds the goroutines dispatch spins up per message so
// a channel with many consumers can't spawn an unbounded goroutine burst.
const maxFanoutWorkers = 8

// SubscriptionBuilder constructs the wire-format subscription message
// for a channel. Called once on first subscribe, and again on every
// resubscribe after a reconnect, so that authenticated channels (§4.9.5)
// always send a freshly generated auth payload instead of a stale,
// reused one.
type SubscriptionBuilder func() ([]byte, error)

// channelEntry is one subscription registry row: channelId →
// {subscriptionMessage, consumerCount, inbox}, per spec.md §4.9.4.
type channelEntry struct {
	build         SubscriptionBuilder
	authenticated bool
	consumers     map[*Subscription]struct{}
}

// registry is the subscription registry shared by a Runtime: subscribe
// is idempotent and reference-counted; when the last consumer leaves,
// unsubscribe drops the channel's entry. No unsubscribe frame is sent
// to the venue.
type registry struct {
	mu      sync.Mutex
	entries map[string]*channelEntry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*channelEntry)}
}

// subscribe adds a consumer to channelID, creating the entry (and
// sending the built subscription message via send) if this is the
// first consumer.
func (r *registry) subscribe(channelID string, build SubscriptionBuilder, authenticated bool, bufferSize int, send func([]byte) error) (*Subscription, error) {
	r.mu.Lock()
	entry, exists := r.entries[channelID]
	if !exists {
		entry = &channelEntry{build: build, authenticated: authenticated, consumers: make(map[*Subscription]struct{})}
		r.entries[channelID] = entry
	}
	r.mu.Unlock()

	if !exists {
		msg, err := build()
		if err != nil {
			r.mu.Lock()
			delete(r.entries, channelID)
			r.mu.Unlock()
			return nil, err
		}
		if err := send(msg); err != nil {
			r.mu.Lock()
			delete(r.entries, channelID)
			r.mu.Unlock()
			return nil, err
		}
	}

	sub := newSubscription(channelID, bufferSize, nil)
	sub.onClose = func() { r.unsubscribe(channelID, sub) }

	r.mu.Lock()
	entry.consumers[sub] = struct{}{}
	r.mu.Unlock()
	return sub, nil
}

// unsubscribe removes sub from channelID's consumer set, dropping the
// entry once the last consumer leaves.
func (r *registry) unsubscribe(channelID string, sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[channelID]
	if !ok {
		return
	}
	delete(entry.consumers, sub)
	if len(entry.consumers) == 0 {
		delete(r.entries, channelID)
	}
}

// dispatch fans an incoming message out to every consumer of channelID.
func (r *registry) dispatch(channelID string, data []byte) {
	r.mu.Lock()
	entry, ok := r.entries[channelID]
	if !ok {
		r.mu.Unlock()
		return
	}
	consumers := make([]*Subscription, 0, len(entry.consumers))
	for c := range entry.consumers {
		consumers = append(consumers, c)
	}
	r.mu.Unlock()

	ev := Event{Channel: channelID, Data: data, ReceivedAt: time.Now()}
	p := pool.New().WithMaxGoroutines(maxFanoutWorkers)
	for _, c := range consumers {
		c := c
		p.Go(func() { c.deliver(ev) })
	}
	p.Wait()
}

// resubscribeEntry pairs a channel with its builder for resubscribeAll.
type resubscribeEntry struct {
	channelID string
	build     SubscriptionBuilder
}

// snapshot returns every active channel's builder, used to resubscribe
// after a reconnect. Builders are called fresh by the caller so
// authenticated channels regenerate their auth payload.
func (r *registry) snapshot() []resubscribeEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]resubscribeEntry, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, resubscribeEntry{channelID: id, build: e.build})
	}
	return out
}

// closeAll ends every active subscription, delivering end-of-stream
// (channel close) to every consumer, per spec.md §4.9.1's disconnect
// behavior.
func (r *registry) closeAll() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*channelEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		for c := range entry.consumers {
			c.mu.Lock()
			if !c.closed {
				c.closed = true
				close(c.events)
			}
			c.mu.Unlock()
		}
	}
}
