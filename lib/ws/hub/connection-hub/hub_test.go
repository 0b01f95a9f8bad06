package connectionhub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	wsmodels "microloan-backend/models/ws"
)

type fakeConn struct {
	msgs   chan wsmodels.ServerMessage
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		msgs:   make(chan wsmodels.ServerMessage, sendBufferSize),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	msg, ok := v.(wsmodels.ServerMessage)
	if !ok {
		return errors.Errorf("unexpected message %T", v)
	}
	f.msgs <- msg
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) receive(t *testing.T) wsmodels.ServerMessage {
	select {
	case msg := <-f.msgs:
		return msg
	case <-time.After(time.Second):
		t.Fatal("message was not delivered")
	}
	return wsmodels.ServerMessage{}
}

func (f *fakeConn) requireClosed(t *testing.T) {
	select {
	case <-f.closed:
	case <-time.After(time.Second):
		t.Fatal("connection was not closed")
	}
}

type fakePending struct {
	list []wsmodels.ServerMessage
	err  error
}

func (f fakePending) PendingMessages(ctx context.Context, userID string) ([]wsmodels.ServerMessage, error) {
	return f.list, f.err
}

func TestHub(t *testing.T) {
	t.Run(`send to disconnected user is a no-op`, func(t *testing.T) {
		hub := NewHub(nil)
		require.False(t, hub.IsConnected("user-1"))
		hub.SendMessage(wsmodels.ServerMessage{ToUserID: "user-1", Code: wsmodels.CodeNotification})
		hub.DeleteClient("user-1")
		hub.SendClose("user-1")
	})
	t.Run(`delivers to the connected user only`, func(t *testing.T) {
		hub := NewHub(nil).(*impl)
		first := newFakeConn()
		second := newFakeConn()
		hub.addClient("user-1", first)
		hub.addClient("user-2", second)
		require.True(t, hub.IsConnected("user-1"))

		hub.SendMessage(wsmodels.ServerMessage{ToUserID: "user-1", Code: wsmodels.CodeRequestChanged, Msg: "req-1"})
		msg := first.receive(t)
		require.Equal(t, wsmodels.CodeRequestChanged, msg.Code)
		require.Equal(t, "req-1", msg.Msg)
		require.NotEmpty(t, msg.Time)
		require.Empty(t, second.msgs)
	})
	t.Run(`reconnect replaces the old session`, func(t *testing.T) {
		hub := NewHub(nil).(*impl)
		old := newFakeConn()
		fresh := newFakeConn()
		hub.addClient("user-1", old)
		hub.addClient("user-1", fresh)
		old.requireClosed(t)

		hub.SendMessage(wsmodels.ServerMessage{ToUserID: "user-1", Code: wsmodels.CodeNotification, Msg: "n-1"})
		require.Equal(t, "n-1", fresh.receive(t).Msg)
		require.Empty(t, old.msgs)
	})
	t.Run(`delete closes the session`, func(t *testing.T) {
		hub := NewHub(nil).(*impl)
		conn := newFakeConn()
		hub.addClient("user-1", conn)
		hub.DeleteClient("user-1")
		conn.requireClosed(t)
		require.False(t, hub.IsConnected("user-1"))
	})
	t.Run(`pending messages are replayed on connect`, func(t *testing.T) {
		hub := NewHub(fakePending{list: []wsmodels.ServerMessage{
			{Code: wsmodels.CodeNotification, Msg: "first"},
			{Code: wsmodels.CodeNotification, Msg: "second"},
		}}).(*impl)
		conn := newFakeConn()
		hub.addClient("user-1", conn)

		first := conn.receive(t)
		second := conn.receive(t)
		require.Equal(t, "first", first.Msg)
		require.Equal(t, "user-1", first.ToUserID)
		require.Equal(t, "second", second.Msg)
	})
	t.Run(`pending load failure keeps the session`, func(t *testing.T) {
		hub := NewHub(fakePending{err: errors.New("connection refused")}).(*impl)
		conn := newFakeConn()
		hub.addClient("user-1", conn)

		hub.SendMessage(wsmodels.ServerMessage{ToUserID: "user-1", Code: wsmodels.CodeRequestChanged, Msg: "live"})
		require.Equal(t, "live", conn.receive(t).Msg)
	})
}
