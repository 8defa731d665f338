package stream

import "fmt"

// SendFunc delivers one output increment to the client. Implementations
// flush after writing so the increment is visible immediately.
type SendFunc func(chunk string) error

// Relay couples the two consumers of provider output: the session
// buffer that feeds persistence and the transport that feeds the
// client. Every increment is accumulated before it is sent, so the
// persisted text never trails what the relay agreed to forward.
type Relay struct {
	sess *Session
	send SendFunc
}

func NewRelay(sess *Session, send SendFunc) *Relay {
	return &Relay{sess: sess, send: send}
}

// Forward accumulates the chunk and delivers it to the client. It
// returns ErrCancelled once the session refuses further output, which
// is the cooperative cancellation point between increments. A client
// write failure cancels the session too; the client is gone, so the
// turn winds down the same way an explicit cancel does.
func (r *Relay) Forward(chunk string) error {
	if chunk == "" {
		return nil
	}
	if !r.sess.Append(chunk) {
		return ErrCancelled
	}
	if err := r.send(chunk); err != nil {
		r.sess.Cancel()
		return fmt.Errorf("forward chunk to client: %w", err)
	}
	return nil
}
