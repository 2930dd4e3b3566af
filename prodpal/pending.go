package prodpal

import (
	"github.com/bwmarrin/discordgo"
	"log/slog"
	"sync"
)

// replyBuffer is the channel capacity for pending reply waiters. The job
// tracker can receive several replies to the same prompt in quick
// succession, so this needs headroom beyond a single message.
const replyBuffer = 16

// replyRegistry routes incoming discord messages that reply to one of the
// bot's prompt messages back to whichever goroutine is waiting on them.
// Waiters register the prompt's message ID and receive replies on a
// buffered channel until they cancel.
type replyRegistry struct {
	mu      sync.Mutex
	waiters map[string]chan *discordgo.Message
	logger  *slog.Logger
}

func newReplyRegistry(logger *slog.Logger) *replyRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &replyRegistry{
		waiters: map[string]chan *discordgo.Message{},
		logger:  logger.With(loggerNameKey, "reply_registry"),
	}
}

// Await registers interest in replies to the given prompt message ID.
// The returned channel receives every reply delivered until Cancel is
// called with the same ID.
func (r *replyRegistry) Await(messageID string) <-chan *discordgo.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.waiters[messageID]
	if !ok {
		ch = make(chan *discordgo.Message, replyBuffer)
		r.waiters[messageID] = ch
	}
	return ch
}

// Cancel removes the waiter for the given prompt message ID. Replies
// arriving afterward are dropped.
func (r *replyRegistry) Cancel(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.waiters, messageID)
}

// Deliver routes a message to the waiter registered for the message it
// replies to. Returns true if a waiter received it.
func (r *replyRegistry) Deliver(m *discordgo.Message) bool {
	if m == nil {
		return false
	}
	referencedID := ""
	if m.MessageReference != nil {
		referencedID = m.MessageReference.MessageID
	} else if m.ReferencedMessage != nil {
		referencedID = m.ReferencedMessage.ID
	}
	if referencedID == "" {
		return false
	}

	r.mu.Lock()
	ch, ok := r.waiters[referencedID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case ch <- m:
		return true
	default:
		r.logger.Warn(
			"dropping reply, waiter buffer full",
			"message_id", m.ID,
			"referenced_message_id", referencedID,
		)
		return false
	}
}

// Pending returns the number of prompts currently awaiting replies.
func (r *replyRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}
