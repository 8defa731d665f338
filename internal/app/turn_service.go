package app

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DEVector-it/mythai.github.io/internal/ai"
	"github.com/DEVector-it/mythai.github.io/internal/model"
	"github.com/DEVector-it/mythai.github.io/internal/plan"
	"github.com/DEVector-it/mythai.github.io/internal/quota"
	"github.com/DEVector-it/mythai.github.io/internal/stream"
)

// UserStore, ChatStore and MessageStore are the persistence surface the
// turn pipeline runs against. The gorm repositories implement them.
type UserStore interface {
	GetByID(id string) (*model.User, error)
}

type ChatStore interface {
	GetByIDAndUserID(chatID, userID string) (*model.Chat, error)
}

type MessageStore interface {
	AppendTurn(userMsg, assistantMsg *model.Message) error
	ListRecentByChatID(chatID string, limit int) ([]model.Message, error)
}

// TurnJournal receives one audit event per finished turn, off the
// request path.
type TurnJournal interface {
	Publish(ctx context.Context, record model.TurnRecord) error
}

// TurnService runs one chat turn end to end: validate, resolve the
// plan and model, claim the chat's generation slot, reserve quota,
// stream from the provider, then persist and journal the result.
type TurnService struct {
	users    UserStore
	chats    ChatStore
	messages MessageStore
	plans    *plan.Registry
	ledger   *quota.Ledger
	sessions *stream.Registry
	provider ai.Provider
	journal  TurnJournal
	cache    HistoryCache
	logger   *zap.Logger

	maxContext   int
	turnTimeout  time.Duration
	systemPrompt string
}

// TurnConfig wires the pipeline together. Journal and Cache may be nil;
// both are best effort.
type TurnConfig struct {
	Users    UserStore
	Chats    ChatStore
	Messages MessageStore
	Plans    *plan.Registry
	Ledger   *quota.Ledger
	Sessions *stream.Registry
	Provider ai.Provider
	Journal  TurnJournal
	Cache    HistoryCache
	Logger   *zap.Logger

	// MaxContext caps how many prior messages enter the prompt.
	MaxContext int
	// TurnTimeout bounds one generation; zero means no deadline.
	TurnTimeout time.Duration
	// SystemPrompt is used when the chat has none of its own.
	SystemPrompt string
}

func NewTurnService(cfg TurnConfig) *TurnService {
	if cfg.MaxContext <= 0 {
		cfg.MaxContext = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = "You are a concise and helpful AI assistant."
	}
	return &TurnService{
		users:        cfg.Users,
		chats:        cfg.Chats,
		messages:     cfg.Messages,
		plans:        cfg.Plans,
		ledger:       cfg.Ledger,
		sessions:     cfg.Sessions,
		provider:     cfg.Provider,
		journal:      cfg.Journal,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		maxContext:   cfg.MaxContext,
		turnTimeout:  cfg.TurnTimeout,
		systemPrompt: cfg.SystemPrompt,
	}
}

type TurnInput struct {
	UserID  string
	ChatID  string
	Content string
	// Model is the requested model ID; empty selects the plan default.
	Model string
}

// TurnResult reports a turn that got as far as the provider call.
// ProviderErr and PersistErr carry failures that happened after
// streaming began, when an HTTP status can no longer express them.
type TurnResult struct {
	Outcome          stream.State
	Model            string
	Text             string
	Partial          bool
	UserMessage      *model.Message
	AssistantMessage *model.Message
	ProviderErr      error
	PersistErr       error
}

// StreamTurn executes one turn, forwarding output increments through
// onChunk. Denials before any output are returned as errors: the
// caller can still answer with a plain status. Once the provider call
// starts the method always returns a TurnResult, and every such turn
// persists at least the user message.
//
// Ordering is deliberate: model validation happens before the chat
// slot is claimed and before quota is reserved, so a denied model or a
// busy chat never consumes a quota unit. The reservation itself sits
// immediately before the provider call and is not refunded afterwards.
func (s *TurnService) StreamTurn(ctx context.Context, input TurnInput, onChunk func(string) error) (*TurnResult, error) {
	if input.UserID == "" || input.ChatID == "" {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	user, err := s.users.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	userPlan, err := s.plans.Resolve(user.Plan)
	if err != nil {
		return nil, err
	}
	modelID, err := s.plans.ModelFor(userPlan, input.Model)
	if err != nil {
		return nil, err
	}

	chat, err := s.chats.GetByIDAndUserID(input.ChatID, input.UserID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}

	sess, err := s.sessions.Acquire(ctx, chat.ID, user.ID, modelID)
	if err != nil {
		return nil, err
	}
	defer s.sessions.Release(chat.ID, sess.Token())

	prompt, err := s.buildPrompt(chat, modelID, content)
	if err != nil {
		sess.Finish(stream.StateFailed)
		return nil, err
	}

	if err := s.ledger.Reserve(user.ID, userPlan.DailyLimit); err != nil {
		sess.Finish(stream.StateFailed)
		return nil, err
	}

	sess.Begin()
	relay := stream.NewRelay(sess, onChunk)

	genCtx := sess.Context()
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(genCtx, s.turnTimeout)
		defer cancel()
	}

	provErr := s.provider.StreamGenerate(genCtx, prompt, relay.Forward)

	outcome := stream.StateCompleted
	switch {
	case sess.CancelRequested():
		outcome = stream.StateCancelled
		provErr = nil
	case provErr != nil:
		outcome = stream.StateFailed
	}
	sess.Finish(outcome)

	text := sess.Text()
	partial := outcome != stream.StateCompleted && text != ""

	now := time.Now()
	userMsg := &model.Message{
		ChatID:    chat.ID,
		Sender:    model.SenderUser,
		Content:   content,
		CreatedAt: now,
	}
	var assistantMsg *model.Message
	if text != "" {
		assistantMsg = &model.Message{
			ChatID:    chat.ID,
			Sender:    model.SenderAssistant,
			Content:   text,
			Partial:   partial,
			CreatedAt: now,
		}
	}

	persistErr := s.messages.AppendTurn(userMsg, assistantMsg)
	if persistErr != nil {
		s.logger.Error("persist turn failed",
			zap.String("chat_id", chat.ID),
			zap.String("outcome", outcome.String()),
			zap.Error(persistErr))
	} else {
		s.invalidateHistory(chat.ID)
	}

	s.publishJournal(model.TurnRecord{
		ChatID:      chat.ID,
		UserID:      user.ID,
		Model:       modelID,
		Outcome:     outcome.String(),
		OutputChars: len(text),
		DurationMS:  sess.Elapsed().Milliseconds(),
		OccurredAt:  now,
	})

	if provErr != nil {
		s.logger.Warn("generation failed",
			zap.String("chat_id", chat.ID),
			zap.String("model", modelID),
			zap.Int("chunks", sess.Chunks()),
			zap.Error(provErr))
	}

	return &TurnResult{
		Outcome:          outcome,
		Model:            modelID,
		Text:             text,
		Partial:          partial,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		ProviderErr:      provErr,
		PersistErr:       persistErr,
	}, nil
}

// CancelTurn requests cancellation of the chat's active generation on
// behalf of its owner. It reports false when nothing was running.
func (s *TurnService) CancelTurn(userID, chatID string) (bool, error) {
	if userID == "" || chatID == "" {
		return false, ErrInvalidInput
	}
	chat, err := s.chats.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return false, err
	}
	if chat == nil {
		return false, ErrChatNotFound
	}
	return s.sessions.Cancel(chatID), nil
}

func (s *TurnService) buildPrompt(chat *model.Chat, modelID, content string) (ai.Prompt, error) {
	recent, err := s.messages.ListRecentByChatID(chat.ID, s.maxContext)
	if err != nil {
		return ai.Prompt{}, err
	}

	history := make([]ai.Turn, 0, len(recent))
	for _, msg := range recent {
		role := ai.RoleUser
		if msg.Sender == model.SenderAssistant {
			role = ai.RoleAssistant
		}
		history = append(history, ai.Turn{Role: role, Content: msg.Content})
	}

	systemPrompt := strings.TrimSpace(chat.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = s.systemPrompt
	}

	return ai.Prompt{
		Model:        modelID,
		SystemPrompt: systemPrompt,
		History:      history,
		UserText:     content,
	}, nil
}

// invalidateHistory runs against a fresh context: the request context
// is already cancelled when a turn ends in cancellation.
func (s *TurnService) invalidateHistory(chatID string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.cache.MarkDirty(ctx, chatID)
	_ = s.cache.DeleteHistory(ctx, chatID)
}

func (s *TurnService) publishJournal(record model.TurnRecord) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.journal.Publish(ctx, record); err != nil {
		s.logger.Warn("publish turn event failed",
			zap.String("chat_id", record.ChatID),
			zap.Error(err))
	}
}
