package ws

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	written  []any
	failWith error
	closed   bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.written = append(f.written, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func TestConnectDisconnect(t *testing.T) {
	m := NewManager(slog.Default())

	conn := &fakeConn{}
	connID := m.Connect(conn)
	assert.Contains(t, connID, "conn_")
	assert.Equal(t, 1, m.Count())

	m.Disconnect(connID)
	assert.Equal(t, 0, m.Count())

	// unknown id is a no-op
	m.Disconnect("conn_missing")
	assert.Equal(t, 0, m.Count())
}

func TestRegisterAndSend(t *testing.T) {
	m := NewManager(slog.Default())

	conn := &fakeConn{}
	connID := m.Connect(conn)

	require.True(t, m.Register("user_1", connID))
	assert.ElementsMatch(t, []string{"user_1"}, m.OnlineUserIDs())

	assert.True(t, m.SendToUser("user_1", map[string]string{"type": "message"}))
	assert.Equal(t, 1, conn.writeCount())

	t.Run("offline user is false with no side effects", func(t *testing.T) {
		assert.False(t, m.SendToUser("user_offline", map[string]string{"type": "message"}))
		assert.Equal(t, 1, conn.writeCount())
	})

	t.Run("register on unknown connection fails", func(t *testing.T) {
		assert.False(t, m.Register("user_2", "conn_missing"))
	})
}

func TestLastJoinWins(t *testing.T) {
	m := NewManager(slog.Default())

	first := &fakeConn{}
	second := &fakeConn{}
	firstID := m.Connect(first)
	secondID := m.Connect(second)

	require.True(t, m.Register("user_1", firstID))
	require.True(t, m.Register("user_1", secondID))

	assert.True(t, m.SendToUser("user_1", "ping"))
	assert.Equal(t, 0, first.writeCount())
	assert.Equal(t, 1, second.writeCount())
}

func TestSendFailureDisconnects(t *testing.T) {
	m := NewManager(slog.Default())

	conn := &fakeConn{failWith: errors.New("broken pipe")}
	connID := m.Connect(conn)
	require.True(t, m.Register("user_1", connID))

	assert.False(t, m.SendToUser("user_1", "ping"))
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.OnlineUserIDs())
	assert.True(t, conn.closed)
}

func TestDisconnectClearsPresence(t *testing.T) {
	m := NewManager(slog.Default())

	conn := &fakeConn{}
	connID := m.Connect(conn)
	require.True(t, m.Register("user_1", connID))

	m.Disconnect(connID)
	assert.Empty(t, m.OnlineUserIDs())
	assert.False(t, m.SendToUser("user_1", "ping"))
}

func TestBroadcastPresence(t *testing.T) {
	m := NewManager(slog.Default())

	healthy := &fakeConn{}
	broken := &fakeConn{failWith: errors.New("broken pipe")}
	healthyID := m.Connect(healthy)
	m.Connect(broken)

	require.True(t, m.Register("user_1", healthyID))

	m.BroadcastPresence()

	// the broken session is dropped, the healthy one still got the event
	assert.Equal(t, 1, healthy.writeCount())
	assert.True(t, broken.closed)
	assert.Equal(t, 1, m.Count())

	event, ok := healthy.written[0].(PresenceEvent)
	require.True(t, ok)
	assert.Equal(t, "presence", event.Type)
	assert.ElementsMatch(t, []string{"user_1"}, event.OnlineUsers)
}

func TestConcurrentSends(t *testing.T) {
	m := NewManager(slog.Default())

	conn := &fakeConn{}
	connID := m.Connect(conn)
	require.True(t, m.Register("user_1", connID))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.SendToUser("user_1", "ping")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, conn.writeCount())
}
