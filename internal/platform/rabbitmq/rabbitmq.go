package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// New dials the broker and declares the turn journal queue, so the
// publisher and the consumer find it regardless of start order. The
// declaration doubles as the boot-time reachability check.
func New(ctx context.Context, url, queue string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq failed: %w", err)
	}

	declareCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	// amqp091 calls do not take a context, so the declare runs in a
	// goroutine and the select bounds the wait.
	done := make(chan error, 1)
	go func() {
		_, declareErr := ch.QueueDeclare(
			queue,
			true,
			false,
			false,
			false,
			nil,
		)
		done <- declareErr
	}()

	select {
	case <-declareCtx.Done():
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq declare timeout: %w", declareCtx.Err())
	case err := <-done:
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %q failed: %w", queue, err)
		}
		return conn, nil
	}
}
