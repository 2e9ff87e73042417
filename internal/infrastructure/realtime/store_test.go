package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasarloka/internal/domain/entity"
)

// fakeTransport is a scriptable in-memory Transport. Each Subscribe hands the
// test a channelConn it can push events and disconnects through.
type fakeTransport struct {
	mu       sync.Mutex
	conns    []*fakeConn
	failNext int // number of upcoming Subscribe calls to reject
	dropNext int // number of upcoming streams to drop before Subscribe returns
}

type fakeConn struct {
	channel string
	onEvent func(*entity.Message)
	onState func(subscribed bool, err error)
	closed  bool
	mu      sync.Mutex
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) emit(msg *entity.Message) { c.onEvent(msg) }

func (c *fakeConn) drop(err error) { c.onState(false, err) }

func (t *fakeTransport) Subscribe(channel string, onEvent func(*entity.Message), onState func(subscribed bool, err error)) (Subscription, error) {
	t.mu.Lock()
	if t.failNext > 0 {
		t.failNext--
		t.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	conn := &fakeConn{channel: channel, onEvent: onEvent, onState: onState}
	t.conns = append(t.conns, conn)
	dropNow := t.dropNext > 0
	if dropNow {
		t.dropNext--
	}
	t.mu.Unlock()

	onState(true, nil)
	if dropNow {
		onState(false, errors.New("stream reset"))
	}
	return conn, nil
}

func (t *fakeTransport) connAt(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.conns) {
		return nil
	}
	return t.conns[i]
}

func (t *fakeTransport) subscribeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

func (t *fakeTransport) lastConn() *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestStoreJoinSubscribesAndCollectsMessages(t *testing.T) {
	tr := &fakeTransport{}
	st := NewStore(tr, "buyer", 10*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	assert.Equal(t, StateSubscribed, st.SubscriptionState("chat-1"))

	conn := tr.lastConn()
	require.NotNil(t, conn)
	conn.emit(msg("m1", "seller", "hi"))
	conn.emit(msg("m2", "seller", "still there?"))

	got := st.Messages("chat-1")
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)

	// Joining again neither resubscribes nor resets the feed.
	require.NoError(t, st.Join("chat-1"))
	assert.Equal(t, 1, tr.subscribeCount())
	assert.Len(t, st.Messages("chat-1"), 2)
}

func TestStoreRoomsAreIndependent(t *testing.T) {
	tr := &fakeTransport{}
	st := NewStore(tr, "buyer", 10*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	first := tr.lastConn()
	require.NoError(t, st.Join("chat-2"))
	second := tr.lastConn()

	first.emit(msg("a1", "seller", "room one"))
	second.emit(msg("b1", "seller", "room two"))

	st.Leave("chat-1")
	assert.Equal(t, StateLeft, st.SubscriptionState("chat-1"))
	assert.Equal(t, StateSubscribed, st.SubscriptionState("chat-2"))

	// Left room keeps its history but stops applying events.
	first.emit(msg("a2", "seller", "too late"))
	assert.Len(t, st.Messages("chat-1"), 1)
	assert.Len(t, st.Messages("chat-2"), 1)
}

func TestSubscriberReconnectsAfterDrop(t *testing.T) {
	tr := &fakeTransport{}
	st := NewStore(tr, "buyer", 10*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	conn := tr.lastConn()
	conn.emit(msg("m1", "seller", "hi"))

	conn.drop(errors.New("stream reset"))
	waitFor(t, func() bool { return tr.subscribeCount() == 2 })
	waitFor(t, func() bool { return st.SubscriptionState("chat-1") == StateSubscribed })

	// The feed survived the reconnect, and the replayed event dedupes.
	next := tr.lastConn()
	next.emit(msg("m1", "seller", "hi"))
	next.emit(msg("m2", "seller", "reconnected"))
	got := st.Messages("chat-1")
	require.Len(t, got, 2)
	assert.Equal(t, "m2", got[1].ID)
}

func TestSubscriberReleasesStreamDroppedDuringSubscribe(t *testing.T) {
	tr := &fakeTransport{dropNext: 1}
	st := NewStore(tr, "buyer", 5*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))

	// The first stream dropped before Subscribe returned. Its connection
	// must be closed rather than stranded, and the reconnect still lands.
	first := tr.connAt(0)
	require.NotNil(t, first)
	waitFor(t, func() bool { return first.isClosed() })
	waitFor(t, func() bool { return st.SubscriptionState("chat-1") == StateSubscribed })
	assert.False(t, tr.lastConn().isClosed())
}

func TestSubscriberRetriesFailedSubscribe(t *testing.T) {
	tr := &fakeTransport{failNext: 2}
	st := NewStore(tr, "buyer", 5*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	waitFor(t, func() bool { return st.SubscriptionState("chat-1") == StateSubscribed })
	assert.Equal(t, 1, tr.subscribeCount())
}

func TestLeaveStopsPendingReconnect(t *testing.T) {
	tr := &fakeTransport{failNext: 1}
	st := NewStore(tr, "buyer", 20*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	// The failed attempt has a reconnect timer pending; leaving must stop
	// it before it fires.
	st.Leave("chat-1")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, tr.subscribeCount())
	assert.Equal(t, StateLeft, st.SubscriptionState("chat-1"))
}

func TestLeaveClosesActiveSubscription(t *testing.T) {
	tr := &fakeTransport{}
	st := NewStore(tr, "buyer", 10*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	conn := tr.lastConn()
	st.Leave("chat-1")
	assert.True(t, conn.isClosed())
}

func TestUnreadCountsOnlyForeignBackgroundMessages(t *testing.T) {
	tr := &fakeTransport{}
	st := NewStore(tr, "buyer", 10*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	conn := tr.lastConn()

	conn.emit(msg("m1", "seller", "one"))
	conn.emit(msg("m2", "buyer", "own message"))
	assert.Equal(t, 1, st.Unread("chat-1"), "own messages never count")

	// Duplicate delivery must not bump the counter either.
	conn.emit(msg("m1", "seller", "one"))
	assert.Equal(t, 1, st.Unread("chat-1"))

	st.Open("chat-1")
	assert.Equal(t, 0, st.Unread("chat-1"), "opening resets the counter")

	conn.emit(msg("m3", "seller", "while on screen"))
	assert.Equal(t, 0, st.Unread("chat-1"), "focused room does not accumulate")

	st.Blur()
	conn.emit(msg("m4", "seller", "after blur"))
	assert.Equal(t, 1, st.Unread("chat-1"))
}

func TestLocalEchoReconcilesThroughStore(t *testing.T) {
	tr := &fakeTransport{}
	st := NewStore(tr, "buyer", 10*time.Millisecond)
	defer st.Shutdown()

	require.NoError(t, st.Join("chat-1"))
	st.AddLocalEcho("chat-1", "tmp-1", &entity.Message{TempID: "tmp-1", SenderID: "buyer", Body: "sending..."})
	require.Len(t, st.Messages("chat-1"), 1)

	confirmed := msg("m1", "buyer", "sending...")
	confirmed.TempID = "tmp-1"
	tr.lastConn().emit(confirmed)

	got := st.Messages("chat-1")
	require.Len(t, got, 1, "echo replaced, not duplicated")
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, 0, st.Unread("chat-1"))
}

func TestShutdownRefusesFurtherJoins(t *testing.T) {
	tr := &fakeTransport{}
	st := NewStore(tr, "buyer", 10*time.Millisecond)

	require.NoError(t, st.Join("chat-1"))
	st.Shutdown()
	assert.Error(t, st.Join("chat-2"))
	assert.Equal(t, StateLeft, st.SubscriptionState("chat-1"))
}
