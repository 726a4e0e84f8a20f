package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Several dispatchers hammer a connection while another goroutine tears it
// down. Sends racing the teardown must either land before the channel
// closes or report the connection closed; a send on the closed channel
// would panic the whole process.
func TestEnqueueRacesTeardown(t *testing.T) {
	for i := 0; i < 100; i++ {
		hub := NewHub(nil)
		conn := hub.Accept("user-a", ScopeGlobal, newMockConn())

		var wg sync.WaitGroup
		start := make(chan struct{})
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for j := 0; j < 25; j++ {
					_ = conn.enqueue(NotificationFrame(nil))
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			conn.closeWith(CloseAuthFailed, "logged_out")
		}()

		close(start)
		wg.Wait()

		assert.Equal(t, int32(StateClosed), conn.State())
		assert.ErrorIs(t, conn.enqueue(NotificationFrame(nil)), ErrConnectionClosed)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	wire := newMockConn()
	conn := hub.Accept("user-a", ScopeGlobal, wire)

	conn.Close(CloseForbidden, "not a member of this list")
	assert.Equal(t, CloseForbidden, wire.sentCloseCode())

	// the first close wins; later calls must not panic or rewrite the code
	conn.Close(CloseAuthFailed, "logged_out")
	assert.Equal(t, CloseForbidden, wire.sentCloseCode())
	assert.Equal(t, int32(StateClosed), conn.State())
}
