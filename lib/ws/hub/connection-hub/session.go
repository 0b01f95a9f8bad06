package connectionhub

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"
	wsmodels "microloan-backend/models/ws"
)

const sendBufferSize = 16

// wsConn is the write side of a websocket connection
type wsConn interface {
	WriteJSON(v interface{}) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

type clientSession struct {
	conn wsConn

	// outbound messages, dropped when the client does not keep up
	sendCh chan wsmodels.ServerMessage
	done   <-chan struct{}
	stop   func()
}

func newSession(conn wsConn) clientSession {
	ctx, cancelFn := context.WithCancel(context.Background())
	once := sync.Once{}
	sess := clientSession{
		conn:   conn,
		sendCh: make(chan wsmodels.ServerMessage, sendBufferSize),
		done:   ctx.Done(),
		stop:   func() { once.Do(cancelFn) },
	}
	go sess.startSend(ctx)
	return sess
}

func (s clientSession) enqueue(msg wsmodels.ServerMessage) {
	select {
	case <-s.done:
	case s.sendCh <- msg:
	default:
		log.WithField("user_id", msg.ToUserID).
			WithField("code", msg.Code).
			Warn("websocket send buffer full, message dropped")
	}
}

func (s clientSession) startSend(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.close()
			return
		case msg := <-s.sendCh:
			if err := s.send(msg); err != nil {
				log.WithError(err).Error("failed to send websocket message")
			}
		}
	}
}

func (s clientSession) send(msg wsmodels.ServerMessage) error {
	if s.conn == nil {
		return nil
	}
	return s.conn.WriteJSON(msg)
}

func (s clientSession) close() {
	if s.conn == nil {
		return
	}
	err := s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	if err != nil {
		log.WithError(err).Debug("cant close")
	}
}
