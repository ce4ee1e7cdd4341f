// Package ai defines the two external collaborators the session calls out
// to: speech-to-text, and the misinterpreter that nudges each message so the
// two sides of the conversation drift apart.
package ai

import "context"

// Transcriber converts raw PCM-16 audio into text for the given language.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Paraphraser produces the deliberately altered version of a message.
type Paraphraser interface {
	Paraphrase(ctx context.Context, req ParaphraseRequest) (string, error)
}

// HistoryTurn is one prior exchange, used as drift context.
type HistoryTurn struct {
	Player   int
	Original string
	Misheard string
}

type ParaphraseRequest struct {
	Original string
	History  []HistoryTurn
	Topic    string
	Speaker  int
	Language string
	Strength float64 // 0.0 = nearly faithful, 1.0 = aggressive drift
}

// Message is one chat turn in the provider-neutral prompt format.
type Message struct {
	Role    string
	Content string
}
