package server

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hixam001/chat-application-go/internal/store"
)

// idleSession builds a session without running its loops, so registry
// behavior can be observed directly on the outbound channel.
func idleSession(t *testing.T, reg *Registry, bufferSize int) *Session {
	t.Helper()

	srvEnd, cliEnd := net.Pipe()
	t.Cleanup(func() {
		_ = srvEnd.Close()
		_ = cliEnd.Close()
	})

	cfg := sanitizeConfig(Config{SendBufferSize: bufferSize})
	return newSession(srvEnd, reg, store.NewMemory(nil), cfg)
}

func recvQueued(t *testing.T, s *Session) string {
	t.Helper()
	select {
	case text := <-s.send:
		return text
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a queued line")
		return ""
	}
}

func TestRegistryMembership(t *testing.T) {
	reg := NewRegistry()
	a := idleSession(t, reg, 0)
	b := idleSession(t, reg, 0)
	c := idleSession(t, reg, 0)

	reg.Join(a)
	reg.Join(b)
	reg.Join(c)
	require.Equal(t, 3, reg.Len())

	reg.Leave(b)
	require.Equal(t, 2, reg.Len())

	// Cleanup may run twice; the second leave is a no-op.
	reg.Leave(b)
	require.Equal(t, 2, reg.Len())

	reg.Leave(a)
	reg.Leave(c)
	require.Equal(t, 0, reg.Len())
}

func TestRegistryLeaveAbsent(t *testing.T) {
	reg := NewRegistry()
	s := idleSession(t, reg, 0)

	reg.Leave(s)
	require.Equal(t, 0, reg.Len())
}

func TestRegistryBroadcastReachesEveryMember(t *testing.T) {
	reg := NewRegistry()
	a := idleSession(t, reg, 0)
	b := idleSession(t, reg, 0)
	reg.Join(a)
	reg.Join(b)

	// The broadcast set is not filtered: whoever triggered the message
	// receives it too.
	reg.Broadcast("alice: hello")

	require.Equal(t, "alice: hello", recvQueued(t, a))
	require.Equal(t, "alice: hello", recvQueued(t, b))
}

func TestRegistryBroadcastOrderPerWriter(t *testing.T) {
	reg := NewRegistry()
	a := idleSession(t, reg, 0)
	reg.Join(a)

	reg.Broadcast("first")
	reg.Broadcast("second")
	reg.Broadcast("third")

	require.Equal(t, "first", recvQueued(t, a))
	require.Equal(t, "second", recvQueued(t, a))
	require.Equal(t, "third", recvQueued(t, a))
}

func TestRegistryBroadcastEvictsStalledSession(t *testing.T) {
	reg := NewRegistry()
	stalled := idleSession(t, reg, 1)
	healthy := idleSession(t, reg, 0)
	reg.Join(stalled)
	reg.Join(healthy)

	// Nothing drains the stalled session's queue, so the second
	// broadcast cannot be handed over and evicts it.
	reg.Broadcast("one")
	reg.Broadcast("two")

	require.Equal(t, 1, reg.Len())
	require.Equal(t, "one", recvQueued(t, healthy))
	require.Equal(t, "two", recvQueued(t, healthy))

	// The evicted session is closed; further handoffs are refused.
	require.False(t, stalled.enqueue("three"))
}
