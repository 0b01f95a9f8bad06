package events

import (
	"context"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// HandlerFunc returns false to requeue the delivery
type HandlerFunc func(ctx context.Context, body []byte) bool

type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewConsumer(amqpURL, exchange string) (*Consumer, error) {
	conn, ch, err := dial(amqpURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{conn: conn, ch: ch, exchange: exchange}, nil
}

// ConsumeWithBindings binds queueName to every routing key and dispatches deliveries until ctx is done
func (c *Consumer) ConsumeWithBindings(ctx context.Context, queueName string, bindings map[string]HandlerFunc) error {
	if len(bindings) == 0 {
		return errors.New("no bindings provided")
	}
	if err := c.ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return errors.Wrap(err, "declare exchange")
	}
	q, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "declare queue")
	}
	for routingKey := range bindings {
		if err = c.ch.QueueBind(q.Name, routingKey, c.exchange, false, nil); err != nil {
			return errors.Wrapf(err, "bind %s", routingKey)
		}
	}
	msgs, err := c.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrap(err, "consume")
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					log.WithField("queue", queueName).Warn("delivery channel closed")
					return
				}
				dispatch(ctx, bindings, d)
			}
		}
	}()
	return nil
}

func dispatch(ctx context.Context, bindings map[string]HandlerFunc, d amqp.Delivery) {
	logger := log.WithField("routing_key", d.RoutingKey)
	handler, ok := bindings[d.RoutingKey]
	if !ok || handler == nil {
		logger.Warn("no handler for routing key, dropping")
		_ = d.Ack(false)
		return
	}
	if handler(ctx, d.Body) {
		_ = d.Ack(false)
		return
	}
	logger.Warn("handler failed, requeueing")
	_ = d.Nack(false, true)
}

func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
