package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/DEVector-it/mythai.github.io/internal/model"
)

// TurnJournalPublisher emits one event per finished chat turn. The
// journal is best effort and sits off the request path: a publish
// failure is logged by the caller and never fails the turn.
type TurnJournalPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewTurnJournalPublisher(conn *amqp.Connection, queueName string) *TurnJournalPublisher {
	return &TurnJournalPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *TurnJournalPublisher) Publish(ctx context.Context, record model.TurnRecord) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		p.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal turn event failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish turn event failed: %w", err)
	}
	return nil
}
