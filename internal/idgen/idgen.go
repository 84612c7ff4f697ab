package idgen

import (
	"github.com/google/uuid"
)

// ID prefixes for different models
const (
	PrefixPoll       = "poll_"
	PrefixPinSession = "pin_"
)

// NewPoll generates a new poll cycle ID with poll_ prefix
func NewPoll() string {
	return PrefixPoll + uuid.New().String()
}

// NewPinSession generates a new PIN authorization session ID with pin_ prefix
func NewPinSession() string {
	return PrefixPinSession + uuid.New().String()
}

// New generates a generic UUID without prefix (for request IDs)
func New() string {
	return uuid.New().String()
}
