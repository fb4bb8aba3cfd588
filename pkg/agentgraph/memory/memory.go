// Package memory provides per-user conversation storage for graph runs:
// an append-only message log per user behind a three-operation store
// contract, and a factory that maps user identifiers to stores.
package memory

import (
	"errors"
)

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks a message written by the end user.
	RoleUser Role = "user"

	// RoleAssistant marks a message produced by the assistant.
	RoleAssistant Role = "assistant"

	// RoleTool marks a message carrying a tool result.
	RoleTool Role = "tool"
)

// Message is a single conversation entry. Messages are immutable once
// appended; ordering is append order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ConversationStore is the persistence boundary for one user's message log.
// External backing stores implement this same contract so the Factory can
// swap implementations without touching the graph.
//
// Implementations must preserve append order in Messages().
type ConversationStore interface {
	// Append adds a message to the end of the log.
	Append(msg Message) error

	// Messages returns all messages in append order.
	Messages() ([]Message, error)

	// Clear discards all messages.
	Clear() error
}

// Sentinel errors for store and factory operations.
var (
	// ErrInvalidKey indicates an empty or blank user identifier.
	ErrInvalidKey = errors.New("invalid user key")

	// ErrStoreClosed indicates the backing store has been closed.
	ErrStoreClosed = errors.New("conversation store closed")
)
