package realtime

import (
	"sync"
	"time"

	"pasarloka/internal/domain/entity"
	"pasarloka/pkg/errors"
)

// Store is the reconciliation layer's room registry: one feed and one
// supervised subscriber per joined room, plus unread bookkeeping. It holds an
// injected Transport and has an explicit lifecycle, so tests and multiple
// instances can coexist.
type Store struct {
	transport   Transport
	localUserID string
	delay       time.Duration

	mu      sync.Mutex
	feeds   map[string]*Feed
	subs    map[string]*Subscriber
	unread  map[string]int
	focused string
	closed  bool
}

func NewStore(transport Transport, localUserID string, reconnectDelay time.Duration) *Store {
	if reconnectDelay <= 0 {
		reconnectDelay = 3 * time.Second
	}
	return &Store{
		transport:   transport,
		localUserID: localUserID,
		delay:       reconnectDelay,
		feeds:       make(map[string]*Feed),
		subs:        make(map[string]*Subscriber),
		unread:      make(map[string]int),
	}
}

// Join subscribes the room and starts its supervised stream. Joining an
// already-joined room is a no-op.
func (st *Store) Join(roomID string) error {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return errors.Internal("realtime store is shut down", nil)
	}
	if _, ok := st.subs[roomID]; ok {
		st.mu.Unlock()
		return nil
	}
	feed := NewFeed()
	st.feeds[roomID] = feed
	sub := NewSubscriber(st.transport, roomID, st.delay, func(msg *entity.Message) {
		st.applyEvent(roomID, msg)
	})
	st.subs[roomID] = sub
	st.mu.Unlock()

	sub.Connect()
	return nil
}

// Leave tears down the room's subscription, stopping its reconnect timer
// synchronously. The feed is kept so the UI can still render history.
func (st *Store) Leave(roomID string) {
	st.mu.Lock()
	sub := st.subs[roomID]
	delete(st.subs, roomID)
	if st.focused == roomID {
		st.focused = ""
	}
	st.mu.Unlock()

	if sub != nil {
		sub.Leave()
	}
}

// Open focuses the room and resets its unread counter.
func (st *Store) Open(roomID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.focused = roomID
	st.unread[roomID] = 0
}

// Blur clears the focused room.
func (st *Store) Blur() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.focused = ""
}

// AddLocalEcho records a provisional message keyed by its client temp id,
// replaced once the authoritative event arrives.
func (st *Store) AddLocalEcho(roomID, tempID string, msg *entity.Message) {
	st.mu.Lock()
	defer st.mu.Unlock()
	feed, ok := st.feeds[roomID]
	if !ok {
		feed = NewFeed()
		st.feeds[roomID] = feed
	}
	feed.AddProvisional(tempID, msg)
}

// Messages returns the room's projection in stream order.
func (st *Store) Messages(roomID string) []*entity.Message {
	st.mu.Lock()
	defer st.mu.Unlock()
	feed, ok := st.feeds[roomID]
	if !ok {
		return nil
	}
	return feed.Messages()
}

// Unread returns the room's unread counter.
func (st *Store) Unread(roomID string) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.unread[roomID]
}

// SubscriptionState reports the room's stream state, or left when the room
// was never joined or already left.
func (st *Store) SubscriptionState(roomID string) State {
	st.mu.Lock()
	sub := st.subs[roomID]
	st.mu.Unlock()
	if sub == nil {
		return StateLeft
	}
	return sub.State()
}

// Shutdown leaves every room and refuses further joins.
func (st *Store) Shutdown() {
	st.mu.Lock()
	st.closed = true
	subs := make([]*Subscriber, 0, len(st.subs))
	for _, sub := range st.subs {
		subs = append(subs, sub)
	}
	st.subs = make(map[string]*Subscriber)
	st.mu.Unlock()

	for _, sub := range subs {
		sub.Leave()
	}
}

func (st *Store) applyEvent(roomID string, msg *entity.Message) {
	st.mu.Lock()
	defer st.mu.Unlock()

	feed, ok := st.feeds[roomID]
	if !ok {
		return
	}
	appended := feed.Apply(msg)

	// The counter moves only for genuinely new entries from the other
	// party, and never while the room itself is on screen.
	if appended && msg.SenderID != st.localUserID && st.focused != roomID {
		st.unread[roomID]++
	}
}
