package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	sent      [][]byte
	closed    bool
	closeCode int
	sendErr   error
}

func (s *fakeSession) Send(payload []byte) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, payload)
	return nil
}

func (s *fakeSession) Close(code int, reason string) {
	s.closed = true
	s.closeCode = code
}

func TestRegistry_RegisterAndDeliver(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	s := &fakeSession{}

	r.Register("alice", s)

	req.True(r.DeliverLocal("alice", []byte("hello")))
	req.Len(s.sent, 1)
	req.Equal("hello", string(s.sent[0]))
}

func TestRegistry_DeliverLocal_NoSessionIsNotAnError(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()

	// Best-effort: absence means remote delivery is the bridge's job.
	req.False(r.DeliverLocal("ghost", []byte("hello")))
}

func TestRegistry_DuplicateRegistrationClosesPrevious(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	first := &fakeSession{}
	second := &fakeSession{}

	r.Register("alice", first)
	r.Register("alice", second)

	req.True(first.closed)
	req.Equal(CloseSessionReplaced, first.closeCode)
	req.False(second.closed)

	req.True(r.DeliverLocal("alice", []byte("hi")))
	req.Empty(first.sent)
	req.Len(second.sent, 1)
}

func TestRegistry_UnregisterStaleSessionKeepsReplacement(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	first := &fakeSession{}
	second := &fakeSession{}

	r.Register("alice", first)
	r.Register("alice", second)

	// The displaced session's deferred cleanup must not evict the new one.
	r.Unregister("alice", first)
	req.True(r.DeliverLocal("alice", []byte("hi")))

	r.Unregister("alice", second)
	req.False(r.DeliverLocal("alice", []byte("hi")))
}

func TestRegistry_Close(t *testing.T) {
	req := require.New(t)
	r := NewRegistry()
	a := &fakeSession{}
	b := &fakeSession{}

	r.Register("alice", a)
	r.Register("bob", b)
	r.Close()

	req.True(a.closed)
	req.True(b.closed)
	req.False(r.DeliverLocal("alice", nil))
}
