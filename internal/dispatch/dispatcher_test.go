package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/domain/models"
	"github.com/abhishek-jha-24/earnings-copilot-hft/internal/subscription"
	"github.com/abhishek-jha-24/earnings-copilot-hft/pkg/logger"
)

type recordingMetrics struct {
	mu         sync.Mutex
	events     []string
	deliveries []string
	drops      []string
	errors     []string
}

func (m *recordingMetrics) RecordEvent(kind, ticker string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, kind+"/"+ticker)
}

func (m *recordingMetrics) RecordGateOutcome(string) {}

func (m *recordingMetrics) RecordDelivery(channel, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries = append(m.deliveries, channel+"/"+status)
}

func (m *recordingMetrics) RecordDrop(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drops = append(m.drops, reason)
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *recordingMetrics) RecordLatency(string, float64) {}

type recordingQueue struct {
	mu       sync.Mutex
	messages []string
}

func (q *recordingQueue) PublishMessage(_ context.Context, msgType string, _ interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msgType)
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lgr, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return lgr
}

func channels(t *testing.T, cs ...models.Channel) models.ChannelSet {
	t.Helper()
	set, err := models.NewChannelSet(cs...)
	require.NoError(t, err)
	return set
}

// newTestConn builds a connection without a socket; enqueue never touches
// the transport.
func newTestConn(hub *Hub, userID string, buffer int, metrics *recordingMetrics) *Conn {
	c := &Conn{
		userID:  userID,
		send:    make(chan models.NotificationEvent, buffer),
		hub:     hub,
		metrics: metrics,
		done:    make(chan struct{}),
	}
	hub.mu.Lock()
	set, ok := hub.conns[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		hub.conns[userID] = set
	}
	set[c] = struct{}{}
	hub.mu.Unlock()
	return c
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *Hub, *recordingQueue, *recordingMetrics, *subscription.Registry) {
	t.Helper()
	metrics := &recordingMetrics{}
	hub := NewHub(HubConfig{StreamBuffer: 4}, testLogger(t), metrics)
	q := &recordingQueue{}
	reg := subscription.NewRegistry()
	d := NewDispatcher(reg, hub, q, nil, metrics, testLogger(t))
	return d, hub, q, metrics, reg
}

func signalEvent(ticker string) models.NotificationEvent {
	return models.NotificationEvent{
		Kind:      models.EventSignalReady,
		Ticker:    ticker,
		Payload:   models.SignalReadyPayload{Ticker: ticker, Action: models.ActionBuy},
		CreatedAt: time.Now().UTC(),
	}
}

func TestFanoutScopedToSubscribedChannels(t *testing.T) {
	d, hub, q, metrics, reg := newTestDispatcher(t)
	reg.Subscribe("u1", "AAPL", channels(t, models.ChannelStream))
	conn := newTestConn(hub, "u1", 4, metrics)

	d.fanout(signalEvent("AAPL"))

	require.Len(t, conn.send, 1)
	got := <-conn.send
	assert.Equal(t, models.EventSignalReady, got.Kind)
	// Stream-only subscriber: no chat or email dispatch attempted.
	assert.Empty(t, q.messages)
}

func TestFanoutSecondaryChannelsEnqueued(t *testing.T) {
	d, _, q, _, reg := newTestDispatcher(t)
	reg.Subscribe("u1", "AAPL", channels(t, models.ChannelChat, models.ChannelEmail))

	d.fanout(signalEvent("AAPL"))

	assert.ElementsMatch(t, []string{MsgChatDelivery, MsgEmailDelivery}, q.messages)
}

func TestFanoutIgnoresOtherTickers(t *testing.T) {
	d, hub, q, metrics, reg := newTestDispatcher(t)
	reg.Subscribe("u1", "MSFT", channels(t, models.ChannelStream, models.ChannelChat))
	conn := newTestConn(hub, "u1", 4, metrics)

	d.fanout(signalEvent("AAPL"))

	assert.Empty(t, conn.send)
	assert.Empty(t, q.messages)
}

func TestZeroConnectionsDropsSilently(t *testing.T) {
	d, _, _, metrics, reg := newTestDispatcher(t)
	reg.Subscribe("u1", "AAPL", channels(t, models.ChannelStream))

	// No open connections for u1: no delivery, no error.
	d.fanout(signalEvent("AAPL"))

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Contains(t, metrics.deliveries, "stream/no_connection")
}

func TestMultipleConnectionsAllReceive(t *testing.T) {
	d, hub, _, metrics, reg := newTestDispatcher(t)
	reg.Subscribe("u1", "AAPL", channels(t, models.ChannelStream))
	a := newTestConn(hub, "u1", 4, metrics)
	b := newTestConn(hub, "u1", 4, metrics)

	d.fanout(signalEvent("AAPL"))

	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)
}

func TestEnqueueDropsOldestOnOverflow(t *testing.T) {
	metrics := &recordingMetrics{}
	hub := NewHub(HubConfig{StreamBuffer: 2}, testLogger(t), metrics)
	conn := newTestConn(hub, "u1", 2, metrics)

	first := signalEvent("A")
	second := signalEvent("B")
	third := signalEvent("C")

	assert.True(t, conn.enqueue(first))
	assert.True(t, conn.enqueue(second))
	assert.True(t, conn.enqueue(third)) // overflows, oldest dropped

	require.Len(t, conn.send, 2)
	got := <-conn.send
	assert.Equal(t, "B", got.Ticker, "oldest event must be the one dropped")
	got = <-conn.send
	assert.Equal(t, "C", got.Ticker)

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Contains(t, metrics.drops, "queue_overflow")
}

func TestEnqueueOnClosedConnFails(t *testing.T) {
	metrics := &recordingMetrics{}
	hub := NewHub(HubConfig{StreamBuffer: 2}, testLogger(t), metrics)
	conn := newTestConn(hub, "u1", 2, metrics)
	close(conn.done)

	assert.False(t, conn.enqueue(signalEvent("AAPL")))
}

func TestHubUnregisterRemovesConnection(t *testing.T) {
	metrics := &recordingMetrics{}
	hub := NewHub(HubConfig{StreamBuffer: 2}, testLogger(t), metrics)
	conn := newTestConn(hub, "u1", 2, metrics)

	require.Len(t, hub.ConnectionsFor("u1"), 1)
	hub.unregister(conn)
	assert.Empty(t, hub.ConnectionsFor("u1"))
	assert.Zero(t, hub.ConnectionCount())
}

func TestHeartbeatNeverLeavesTheStream(t *testing.T) {
	d, _, q, _, reg := newTestDispatcher(t)
	reg.Subscribe("u1", "AAPL", channels(t, models.ChannelChat, models.ChannelEmail))

	d.fanout(models.NotificationEvent{
		Kind:   models.EventHeartbeat,
		Ticker: "AAPL",
	})

	assert.Empty(t, q.messages)
}

func TestDispatchDoesNotBlockCaller(t *testing.T) {
	d, hub, _, metrics, reg := newTestDispatcher(t)
	reg.Subscribe("u1", "AAPL", channels(t, models.ChannelStream))
	conn := newTestConn(hub, "u1", 4, metrics)

	done := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), signalEvent("AAPL"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked the caller")
	}

	// Fan-out completes asynchronously.
	require.Eventually(t, func() bool {
		return len(conn.send) == 1
	}, time.Second, 10*time.Millisecond)
}
