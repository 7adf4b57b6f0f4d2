package domain

import (
	"time"
)

type ConversationType string

const (
	ConversationNormal ConversationType = "normal"
	ConversationGroup  ConversationType = "group"
)

// Conversation Invariants:
// 1. Membership (normal): exactly 2 participants, fixed at creation.
// 2. Membership (group): at least 1 participant, optional admin among them.
// 3. Type is immutable after creation.
// 4. LastMessage/UpdatedAt move in the same transaction as message insertion.
type Conversation struct {
	ID           string
	Type         ConversationType
	Participants []string
	Admin        string
	GroupName    string
	GroupImage   string
	LastMessage  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *Conversation) IsParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except userID, in stored order.
func (c *Conversation) OtherParticipants(userID string) []string {
	others := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != userID {
			others = append(others, p)
		}
	}
	return others
}

// NormalLookupKey builds the unique key that identifies the single normal
// conversation between two users. The pair is unordered, so the key sorts it.
func NormalLookupKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "normal:" + a + ":" + b
}
