// Package push hands push notifications to the delivery workers through
// RabbitMQ. The workers own device tokens and the mobile push providers.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ManuelReschke/Marketfox/internal/pkg/env"
)

// Message is the JSON body published for each push notification.
type Message struct {
	ID     string    `json:"id"`
	UserID uint      `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes push messages to a durable queue.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    amqpChannel
	queue string
}

// Dial connects to RabbitMQ and declares the queue.
func Dial(url, queue string) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	if queue == "" {
		queue = "marketfox_push"
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	log.Infof("[Push] Publishing to RabbitMQ queue %s", queue)
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// DialFromEnv connects using RABBITMQ_URL and RABBITMQ_PUSH_QUEUE. It returns
// (nil, nil) when RabbitMQ is not configured.
func DialFromEnv() (*Publisher, error) {
	url := env.GetEnv("RABBITMQ_URL", "")
	if url == "" {
		log.Info("[Push] RABBITMQ_URL is not set, push notifications disabled")
		return nil, nil
	}
	return Dial(url, env.GetEnv("RABBITMQ_PUSH_QUEUE", "marketfox_push"))
}

func (p *Publisher) SendPush(ctx context.Context, userID uint, title, body string) error {
	msg := Message{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Body:   body,
		SentAt: time.Now().UTC(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Timestamp:    msg.SentAt,
			Body:         data,
		},
	)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
