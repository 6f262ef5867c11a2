package dialog

import (
	"slices"
	"time"

	"github.com/MrWong99/flightdesk/internal/intent"
)

// Turn is one utterance and the engine's response to it.
type Turn struct {
	Timestamp time.Time       `json:"timestamp"`
	Utterance string          `json:"utterance"`
	Response  string          `json:"response"`
	Intent    intent.Intent   `json:"intent"`
	Entities  intent.Entities `json:"entities"`
}

// turnLog is an append-only sliding window of turns.
type turnLog struct {
	size  int
	turns []Turn
}

func newTurnLog(size int) *turnLog {
	return &turnLog{size: size}
}

func (l *turnLog) append(t Turn) {
	l.turns = append(l.turns, t)
	if over := len(l.turns) - l.size; over > 0 {
		l.turns = slices.Delete(l.turns, 0, over)
	}
}

// exchanges returns the last n turns as classifier history.
func (l *turnLog) exchanges(n int) []intent.Exchange {
	recent := l.turns[max(0, len(l.turns)-n):]
	out := make([]intent.Exchange, len(recent))
	for i, t := range recent {
		out[i] = intent.Exchange{User: t.Utterance, Assistant: t.Response}
	}
	return out
}

func (l *turnLog) snapshot() []Turn {
	return slices.Clone(l.turns)
}
