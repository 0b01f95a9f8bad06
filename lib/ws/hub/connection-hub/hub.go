package connectionhub

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"
	wsmodels "microloan-backend/models/ws"
)

type Provider interface {
	AddClient(userID string, conn *websocket.Conn)
	DeleteClient(userID string)
	SendMessage(msg wsmodels.ServerMessage)
	SendClose(userID string)
	IsConnected(userID string) bool
}

// PendingProvider returns messages to replay when a user connects
type PendingProvider interface {
	PendingMessages(ctx context.Context, userID string) ([]wsmodels.ServerMessage, error)
}

var Instance Provider

func Init(pending PendingProvider) {
	Instance = NewHub(pending)
}

func NewHub(pending PendingProvider) Provider {
	return &impl{
		clients: map[string]clientSession{},
		pending: pending,
	}
}

type impl struct {
	mu      sync.RWMutex
	clients map[string]clientSession //map[userID]
	pending PendingProvider
}

func (i *impl) DeleteClient(userID string) {
	i.mu.Lock()
	sess, ok := i.clients[userID]
	if ok {
		delete(i.clients, userID)
	}
	i.mu.Unlock()
	if ok {
		sess.stop()
	}
}

func (i *impl) AddClient(userID string, conn *websocket.Conn) {
	var c wsConn
	if conn != nil && conn.Conn != nil {
		c = conn
	}
	i.addClient(userID, c)
}

func (i *impl) addClient(userID string, conn wsConn) {
	i.mu.Lock()
	oldSess, ok := i.clients[userID]
	i.clients[userID] = newSession(conn)
	i.mu.Unlock()
	if ok {
		oldSess.stop()
	}
	if i.pending != nil {
		go i.sendPendingMessages(userID)
	}
}

func (i *impl) SendMessage(msg wsmodels.ServerMessage) {
	i.mu.RLock()
	sess, ok := i.clients[msg.ToUserID]
	i.mu.RUnlock()
	if !ok {
		return
	}
	if msg.Time == "" {
		msg.Time = time.Now().Format(time.RFC3339)
	}
	sess.enqueue(msg)
}

func (i *impl) SendClose(userID string) {
	i.mu.RLock()
	sess, ok := i.clients[userID]
	i.mu.RUnlock()
	if ok {
		sess.stop()
	}
}

func (i *impl) IsConnected(userID string) bool {
	i.mu.RLock()
	sess, ok := i.clients[userID]
	i.mu.RUnlock()
	return ok && sess.conn != nil
}

func (i *impl) sendPendingMessages(userID string) {
	logger := log.WithField("user_id", userID)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	list, err := i.pending.PendingMessages(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("failed to load pending messages")
		return
	}
	for _, msg := range list {
		if !i.IsConnected(userID) {
			return
		}
		msg.ToUserID = userID
		i.SendMessage(msg)
	}
}
