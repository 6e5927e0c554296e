package teams

import "time"

// ConversationEntry is one message produced by one role in one round.
type ConversationEntry struct {
	Round     int       `json:"round"`
	Role      RoleID    `json:"agent"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// LastMessage returns the most recent message produced by role.
func LastMessage(history []ConversationEntry, role RoleID) (ConversationEntry, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == role {
			return history[i], true
		}
	}
	return ConversationEntry{}, false
}

func Clone(history []ConversationEntry) []ConversationEntry {
	if history == nil {
		return nil
	}
	out := make([]ConversationEntry, len(history))
	copy(out, history)
	return out
}
