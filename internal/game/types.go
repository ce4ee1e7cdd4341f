package game

import (
	"time"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"          // start screen, press any button
	PhaseWaiting      Phase = "waiting"       // one player ready, waiting for the other
	PhasePromptSelect Phase = "prompt_select" // starting player picks a topic
	PhaseConversation Phase = "conversation"  // timed misheard conversation
	PhaseReveal       Phase = "reveal"        // earmuffs off, compare notes
	PhaseReset        Phase = "reset"         // cleanup pause before next round
)

// Prompt is one topic card from the per-language pool. Once confirmed it is
// immutable for the rest of the round.
type Prompt struct {
	ID    int    `json:"id"`
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

// Turn is one player's utterance and the altered version the other player
// was shown. Never mutated after creation.
type Turn struct {
	ID        string  `json:"id"`
	Player    int     `json:"player"`
	Original  string  `json:"original"`
	Misheard  string  `json:"misheard"`
	Timestamp float64 `json:"ts"`
}

// Sink receives events emitted by the state machine. The host wires it to
// the connection registry so the engine stays free of any transport code.
type Sink interface {
	PhaseChanged(phase Phase, extra map[string]any)
	TimerTick(remaining float64)
}

// NopSink discards all events. Useful for tests and as a default.
type NopSink struct{}

func (NopSink) PhaseChanged(Phase, map[string]any) {}
func (NopSink) TimerTick(float64)                  {}

func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
