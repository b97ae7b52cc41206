package jobrunner

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/application/reply"
	"github.com/garyjia/fintel-ai/internal/application/scheduler"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
)

// ChatRunner owns one session's conversation. The assistant is "typing"
// while at least one reply is scheduled but not yet produced.
type ChatRunner struct {
	sessionID string
	sched     scheduler.Scheduler
	publisher port.EventPublisher
	responder reply.Responder
	cfg       Config
	logger    *zap.Logger

	// ctx is cancelled by Close so in-flight responder calls stop early
	ctx  context.Context
	stop context.CancelFunc

	mu       sync.Mutex
	messages []entity.ChatMessage
	pending  map[uint64]scheduler.Task
	seq      uint64
	closed   bool
}

// NewChatRunner creates a conversation that opens with the greeting
func NewChatRunner(sessionID string, sched scheduler.Scheduler, publisher port.EventPublisher, responder reply.Responder, cfg Config, logger *zap.Logger) *ChatRunner {
	if responder == nil {
		responder = reply.Canned{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &ChatRunner{
		sessionID: sessionID,
		sched:     sched,
		publisher: publisher,
		responder: responder,
		cfg:       cfg,
		logger:    logger,
		ctx:       ctx,
		stop:      stop,
		messages: []entity.ChatMessage{{
			ID:     uuid.NewString(),
			Author: entity.AuthorAssistant,
			Text:   reply.Greeting,
			SentAt: sched.Now(),
		}},
		pending: make(map[uint64]scheduler.Task),
	}
}

// SubmitChatMessage records the user's message and schedules the reply.
// Blank text is rejected before anything is recorded.
func (c *ChatRunner) SubmitChatMessage(ctx context.Context, text string) (entity.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return entity.ChatMessage{}, entity.NewValidationError("text", "must not be empty")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return entity.ChatMessage{}, entity.ErrSessionClosed
	}

	msg := entity.ChatMessage{
		ID:     uuid.NewString(),
		Author: entity.AuthorUser,
		Text:   text,
		SentAt: c.sched.Now(),
	}
	c.messages = append(c.messages, msg)

	c.seq++
	key := c.seq
	c.pending[key] = c.sched.Schedule(c.cfg.ReplyDelay, func() { c.produceReply(key, msg) })
	c.mu.Unlock()

	c.publish(ctx, event.NewEvent(event.TypeChatMessageSent, c.sessionID, msg.ID, map[string]interface{}{
		"text": text,
	}))
	return msg, nil
}

// produceReply runs on the scheduler thread. The canned table answers
// inline; any other responder is called off the loop and its answer is
// handed back through the scheduler so appends stay on one thread.
func (c *ChatRunner) produceReply(key uint64, question entity.ChatMessage) {
	if _, ok := c.responder.(reply.Canned); ok {
		c.appendReply(key, question, reply.Produce(question.Text))
		return
	}
	go c.awaitResponder(key, question)
}

func (c *ChatRunner) awaitResponder(key uint64, question entity.ChatMessage) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.ReplyTimeout)
	defer cancel()

	text, err := c.responder.Reply(ctx, question.Text)
	if err != nil {
		c.logger.Warn("Responder failed, using canned reply",
			zap.String("responder", c.responder.Name()),
			zap.Error(err))
		text = reply.Produce(question.Text)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.pending[key] = c.sched.Schedule(0, func() { c.appendReply(key, question, text) })
}

func (c *ChatRunner) appendReply(key uint64, question entity.ChatMessage, text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	answer := entity.ChatMessage{
		ID:     uuid.NewString(),
		Author: entity.AuthorAssistant,
		Text:   text,
		SentAt: c.sched.Now(),
	}
	c.messages = append(c.messages, answer)
	c.mu.Unlock()

	c.publish(context.Background(), event.NewEventWithCorrelation(event.TypeChatReplyProduced, c.sessionID, answer.ID, map[string]interface{}{
		"in_reply_to": question.ID,
		"topic":       string(reply.Classify(question.Text)),
	}, question.ID))
}

// Messages returns the conversation in chronological order
func (c *ChatRunner) Messages() []entity.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]entity.ChatMessage(nil), c.messages...)
}

// Typing reports whether a reply is still outstanding
func (c *ChatRunner) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending) > 0
}

// Conversation snapshots messages, typing state and suggested prompts
func (c *ChatRunner) Conversation() entity.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return entity.Conversation{
		Messages:       append([]entity.ChatMessage(nil), c.messages...),
		Typing:         len(c.pending) > 0,
		QuickQuestions: append([]string(nil), reply.QuickQuestions...),
	}
}

// Close cancels outstanding replies and returns how many were cancelled
func (c *ChatRunner) Close() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}
	c.closed = true
	c.stop()

	n := 0
	for id, task := range c.pending {
		if task.Cancel() {
			n++
		}
		delete(c.pending, id)
	}
	return n
}

func (c *ChatRunner) publish(ctx context.Context, evt *event.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, evt); err != nil {
		c.logger.Error("Failed to publish chat event",
			zap.String("event_type", evt.Type.String()),
			zap.Error(err))
	}
}
