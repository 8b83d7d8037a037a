package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string) *mockClient {
	return &mockClient{
		id:       id,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1")
	client2 := newMockClient("client-2")

	hub.Register(client1)
	hub.Register(client2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount())

	// Unregistering twice is harmless
	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(client2)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_Broadcast_AllClients(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1")
	client2 := newMockClient("client-2")
	hub.Register(client1)
	hub.Register(client2)

	hub.Broadcast(TransactionsImported(map[string]interface{}{"count": float64(3)}))

	assert.Eventually(t, func() bool {
		return len(client1.GetMessages()) == 1 && len(client2.GetMessages()) == 1
	}, time.Second, 5*time.Millisecond)

	var received Event
	require.NoError(t, json.Unmarshal(client1.GetMessages()[0], &received))
	assert.Equal(t, "transaction.imported", received.Type)
	assert.Equal(t, EntityTypeTransaction, received.Entity)
}

func TestHub_Broadcast_NoClients(t *testing.T) {
	hub := NewHub()

	assert.NotPanics(t, func() {
		hub.Broadcast(CategoriesCreated([]string{"Food"}))
	})
}

func TestHub_Broadcast_ClosedClient(t *testing.T) {
	hub := NewHub()

	closed := newMockClient("closed")
	open := newMockClient("open")
	require.NoError(t, closed.Close())
	hub.Register(closed)
	hub.Register(open)

	hub.Broadcast(TransactionsImported(nil))

	assert.Eventually(t, func() bool {
		return len(open.GetMessages()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, closed.GetMessages())

	// The failed subscriber is dropped
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1")
	client2 := newMockClient("client-2")
	hub.Register(client1)
	hub.Register(client2)

	hub.Shutdown()

	assert.Equal(t, 0, hub.ClientCount())
	assert.ErrorIs(t, client1.Send([]byte("x")), ErrClientClosed)
	assert.ErrorIs(t, client2.Send([]byte("x")), ErrClientClosed)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c := newMockClient(string(rune('a'+n%26)) + time.Now().String())
			hub.Register(c)
			hub.Broadcast(TransactionsImported(nil))
			hub.Unregister(c)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}
