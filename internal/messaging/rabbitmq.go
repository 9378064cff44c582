package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rahmounirabii/bda-portal-sub005/config"
	"github.com/rs/zerolog/log"
)

// CertificateIssuedEvent is published to the certifications exchange when a
// new credential is minted. Downstream consumers (notification pipeline,
// member directory) react to it; the engine never waits on them.
type CertificateIssuedEvent struct {
	CertificateID     uint      `json:"certificate_id"`
	SerialNumber      string    `json:"serial_number"`
	AttemptID         uint      `json:"attempt_id"`
	UserID            uint      `json:"user_id"`
	AssessmentID      uint      `json:"assessment_id"`
	CertificationType string    `json:"certification_type"`
	Score             int       `json:"score"`
	IssuedAt          time.Time `json:"issued_at"`
}

type Publisher interface {
	PublishCertificateIssued(ctx context.Context, event CertificateIssuedEvent) error
	Close() error
}

type rabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewRabbitMQPublisher(cfg *config.Config) (Publisher, error) {
	if !cfg.RabbitMQ.Enabled {
		log.Warn().Msg("RabbitMQ disabled, certificate events will not be published")
		return NewNopPublisher(), nil
	}

	url := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		cfg.RabbitMQ.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &rabbitMQPublisher{conn: conn, channel: channel, exchange: cfg.RabbitMQ.Exchange}, nil
}

func (p *rabbitMQPublisher) PublishCertificateIssued(ctx context.Context, event CertificateIssuedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return p.channel.PublishWithContext(ctx,
		p.exchange,
		"certificate.issued",
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
}

func (p *rabbitMQPublisher) Close() error {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// nopPublisher swallows events when messaging is disabled.
type nopPublisher struct{}

func NewNopPublisher() Publisher { return &nopPublisher{} }

func (*nopPublisher) PublishCertificateIssued(context.Context, CertificateIssuedEvent) error {
	return nil
}

func (*nopPublisher) Close() error { return nil }
