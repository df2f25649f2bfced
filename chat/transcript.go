package chat

import "sync"

// Transcript is the ordered message list of one session. It is safe for
// concurrent use.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
}

// NewTranscript creates a transcript holding msgs.
func NewTranscript(msgs []Message) *Transcript {
	return &Transcript{messages: append([]Message(nil), msgs...)}
}

// Append adds m at the end.
func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
}

// Update applies fn to the message with the given id and returns the
// result. ok is false when no message has that id.
func (t *Transcript) Update(id string, fn func(*Message)) (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.messages {
		if t.messages[i].ID == id {
			fn(&t.messages[i])
			return t.messages[i], true
		}
	}
	return Message{}, false
}

// Messages returns a copy of the messages in order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Clear removes every message.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
