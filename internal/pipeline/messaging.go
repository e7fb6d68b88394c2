package pipeline

import (
	"fmt"
	"slices"
)

// MessagingState tracks a SEND_MESSAGE invocation across the voice boundary.
type MessagingState string

const (
	AwaitingRecipient MessagingState = "AWAITING_RECIPIENT"
	ChatOpened        MessagingState = "CHAT_OPENED"
	AwaitingMessage   MessagingState = "AWAITING_MESSAGE"
	MessageSent       MessagingState = "MESSAGE_SENT"
	Cancelled         MessagingState = "CANCELLED"
)

// transitions lists the legal successors of each non-terminal state.
var transitions = map[MessagingState][]MessagingState{
	AwaitingRecipient: {ChatOpened, MessageSent, Cancelled},
	ChatOpened:        {AwaitingMessage, Cancelled},
	AwaitingMessage:   {MessageSent, Cancelled},
}

// Terminal reports whether no further transition is possible.
func (s MessagingState) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

// CanTransition reports whether s may move to next.
func (s MessagingState) CanTransition(next MessagingState) bool {
	return slices.Contains(transitions[s], next)
}

func (s MessagingState) next(to MessagingState) (MessagingState, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("messaging: illegal transition %s -> %s", s, to)
	}
	return to, nil
}
