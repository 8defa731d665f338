// Package stream owns the in-flight side of a chat turn: the
// per-chat generation session, the registry that enforces one active
// generation per chat, and the relay that fans provider increments out
// to the client while accumulating them for persistence.
package stream

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
)

var (
	// ErrChatBusy is returned by Acquire while another generation for
	// the same chat is still active.
	ErrChatBusy = errors.New("chat already has an active generation")

	// ErrCancelled is returned by the relay once cancellation was
	// requested for the session it forwards for.
	ErrCancelled = errors.New("generation cancelled")
)

const shardCount = 32

type shard struct {
	mu     sync.Mutex
	active map[string]*Session
}

// Registry tracks the active generation session per chat. The map is
// sharded by chat ID so concurrent turns on different chats do not
// contend on a single lock.
type Registry struct {
	shards [shardCount]shard
	tokens atomic.Uint64
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].active = make(map[string]*Session)
	}
	return r
}

func (r *Registry) shardFor(chatID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(chatID))
	return &r.shards[h.Sum32()%shardCount]
}

// Acquire claims the chat for a new generation and returns its
// session. The session token must be presented back to Release; a
// stale releaser with an old token cannot evict a newer session.
// Acquire fails with ErrChatBusy while a previous session for the chat
// is still registered.
func (r *Registry) Acquire(ctx context.Context, chatID, userID, model string) (*Session, error) {
	sh := r.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.active[chatID]; ok {
		return nil, ErrChatBusy
	}
	sess := newSession(ctx, chatID, userID, model, r.tokens.Add(1))
	sh.active[chatID] = sess
	return sess, nil
}

// Release removes the chat's registered session if the token matches
// the one handed out by Acquire. A mismatch means the slot was already
// released and re-acquired by a newer turn, so the entry is left
// alone.
func (r *Registry) Release(chatID string, token uint64) {
	sh := r.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sess, ok := sh.active[chatID]; ok && sess.token == token {
		delete(sh.active, chatID)
	}
}

// Cancel requests cancellation of the chat's active session. It
// reports false when no session is registered or the session already
// reached a terminal state.
func (r *Registry) Cancel(chatID string) bool {
	sh := r.shardFor(chatID)
	sh.mu.Lock()
	sess, ok := sh.active[chatID]
	sh.mu.Unlock()
	if !ok {
		return false
	}
	return sess.Cancel()
}

// Active reports whether the chat currently has a registered session.
func (r *Registry) Active(chatID string) bool {
	sh := r.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.active[chatID]
	return ok
}
