package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	kindShow     = "show"
	kindWithdraw = "withdraw"
)

// displayMessage is what device-side renderers consume. ReminderID is
// the visible notification slot: a show message replaces any earlier
// notification with the same id, and the renderer's dismiss affordance
// posts back to /api/v1/reminders/:id/done.
type displayMessage struct {
	MessageID  string    `json:"message_id"`
	Kind       string    `json:"kind"`
	ReminderID int64     `json:"reminder_id"`
	Title      string    `json:"title,omitempty"`
	Body       string    `json:"body,omitempty"`
	Sound      string    `json:"sound,omitempty"`
	SentAt     time.Time `json:"sent_at"`
}

// RabbitPresenter publishes show/withdraw messages to a durable
// RabbitMQ queue.
type RabbitPresenter struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	cfg     Config
}

type RabbitConfig struct {
	URL       string
	QueueName string
}

func NewRabbitPresenter(rabbitCfg RabbitConfig, cfg Config) (*RabbitPresenter, error) {
	conn, err := amqp.Dial(rabbitCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := channel.QueueDeclare(
		rabbitCfg.QueueName, // name
		true,                // durable
		false,               // delete when unused
		false,               // exclusive
		false,               // no-wait
		nil,                 // args
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitPresenter{
		conn:    conn,
		channel: channel,
		queue:   q,
		cfg:     cfg,
	}, nil
}

func (p *RabbitPresenter) Show(ctx context.Context, reminderID int64, text string) error {
	return p.publish(ctx, displayMessage{
		MessageID:  uuid.New().String(),
		Kind:       kindShow,
		ReminderID: reminderID,
		Title:      p.cfg.Title,
		Body:       text,
		Sound:      p.cfg.Sound,
		SentAt:     time.Now(),
	})
}

func (p *RabbitPresenter) Withdraw(ctx context.Context, reminderID int64) error {
	return p.publish(ctx, displayMessage{
		MessageID:  uuid.New().String(),
		Kind:       kindWithdraw,
		ReminderID: reminderID,
		SentAt:     time.Now(),
	})
}

func (p *RabbitPresenter) publish(ctx context.Context, msg displayMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal display message: %w", err)
	}

	err = p.channel.PublishWithContext(
		ctx,
		"",           // exchange
		p.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    msg.SentAt,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s for reminder %d: %w", msg.Kind, msg.ReminderID, err)
	}

	return nil
}

// HealthCheck verifies the RabbitMQ connection is still usable.
func (p *RabbitPresenter) HealthCheck() error {
	if p.conn == nil || p.conn.IsClosed() {
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	testChannel, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("RabbitMQ health check failed: %w", err)
	}
	testChannel.Close()

	return nil
}

func (p *RabbitPresenter) Close() error {
	var errs []error

	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing RabbitMQ: %v", errs)
	}

	return nil
}
