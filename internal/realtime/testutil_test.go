package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"
)

// mockConn is an in-memory stand-in for a gorilla connection. Writes are
// recorded; reads are fed from a script channel and return io.EOF once the
// script is exhausted or the conn is closed.
type mockConn struct {
	mu       sync.Mutex
	messages [][]byte
	closed   bool

	closeCode   int
	closeReason string

	inbound chan []byte
	done    chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		inbound: make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

func (m *mockConn) ReadMessage() (int, []byte, error) {
	select {
	case raw, ok := <-m.inbound:
		if !ok {
			return 0, nil, io.EOF
		}
		return 1, raw, nil
	case <-m.done:
		return 0, nil, io.EOF
	}
}

func (m *mockConn) WriteMessage(messageType int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New("write on closed conn")
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.messages = append(m.messages, cp)
	return nil
}

func (m *mockConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// close frame payload: 2-byte code then reason
	if len(data) >= 2 {
		m.closeCode = int(data[0])<<8 | int(data[1])
		m.closeReason = string(data[2:])
	}
	return nil
}

func (m *mockConn) SetReadLimit(limit int64)            {}
func (m *mockConn) SetReadDeadline(t time.Time) error   { return nil }
func (m *mockConn) SetWriteDeadline(t time.Time) error  { return nil }
func (m *mockConn) SetPongHandler(h func(string) error) {}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) sentCloseCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCode
}

func (m *mockConn) written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.messages))
	copy(out, m.messages)
	return out
}

// drainFrames empties a connection's send buffer and decodes the queued
// frames. Used by tests that do not run the write pump.
func drainFrames(c *Connection) []Frame {
	var out []Frame
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return out
			}
			var f Frame
			if err := json.Unmarshal(raw, &f); err == nil {
				out = append(out, f)
			}
		default:
			return out
		}
	}
}

func frameTypes(frames []Frame) []FrameType {
	out := make([]FrameType, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Type)
	}
	return out
}

// fakeMembership is a scriptable MembershipChecker.
type fakeMembership struct {
	mu      sync.Mutex
	members map[string]bool // userID + "/" + listID
	err     error
	calls   int
}

func newFakeMembership() *fakeMembership {
	return &fakeMembership{members: make(map[string]bool)}
}

func (f *fakeMembership) allow(userID, listID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[userID+"/"+listID] = true
}

func (f *fakeMembership) revoke(userID, listID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.members, userID+"/"+listID)
}

func (f *fakeMembership) IsMember(ctx context.Context, userID, listID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.members[userID+"/"+listID], nil
}

// fakeMessageStore records persisted room messages.
type fakeMessageStore struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (f *fakeMessageStore) SaveRoomMessage(ctx context.Context, userID, listID, content string) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.saved = append(f.saved, content)
	return map[string]string{
		"list_id":   listID,
		"sender_id": userID,
		"message":   content,
	}, nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}
