package events

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

type Publisher interface {
	PublishRequestChanged(ctx context.Context, event RequestChangedEvent) error
	Close()
}

// Instance is replaced by a broker publisher in initializers when AMQP is enabled
var Instance Publisher = &PublisherFallback{}

// PublisherFallback is used when the broker is disabled or unreachable at startup
type PublisherFallback struct{}

func (p *PublisherFallback) PublishRequestChanged(ctx context.Context, event RequestChangedEvent) error {
	log.WithField("routing_key", event.RoutingKey()).
		WithField("request_id", event.RequestID).
		Debug("broker unavailable, event publish skipped")
	return nil
}

func (p *PublisherFallback) Close() {}

type producer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.Errorf("invalid AMQP scheme: %s", u.Scheme)
	}
	return clean, nil
}

func dial(amqpURL string) (*amqp.Connection, *amqp.Channel, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, nil, err
	}
	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrap(err, "open channel")
	}
	return conn, ch, nil
}

func NewPublisher(amqpURL, exchange string) (Publisher, error) {
	conn, ch, err := dial(amqpURL)
	if err != nil {
		return nil, err
	}
	if err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	return &producer{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *producer) PublishRequestChanged(ctx context.Context, event RequestChangedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, msg)
	if err == nil {
		return nil
	}
	log.WithError(err).
		WithField("routing_key", event.RoutingKey()).
		Warn("publish failed, reopening channel")
	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return errors.Wrap(err, "publish event")
	}
	p.channel = ch
	return errors.Wrap(p.channel.PublishWithContext(ctx, p.exchange, event.RoutingKey(), false, false, msg), "publish event")
}

func (p *producer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
