// Package pipeline turns a raw audio chunk into a recorded, fanned-out
// conversation turn: decode, transcribe, filter, misinterpret, record,
// deliver. Every failure is logged and swallowed; nothing here may take the
// session down.
package pipeline

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ebisawa/driftaway/internal/ai"
	"github.com/ebisawa/driftaway/internal/config"
	"github.com/ebisawa/driftaway/internal/game"
	"github.com/ebisawa/driftaway/internal/registry"
)

const queueDepth = 16

type job struct {
	role  string
	audio string
}

type Pipeline struct {
	// mu serializes the collaborator calls and the log append across both
	// players, so the paraphraser always sees a turn log consistent with
	// delivery order. Chunks queue here instead of being dropped.
	mu sync.Mutex

	cfg     config.Config
	filters Filters
	game    *game.Game
	reg     *registry.Registry
	stt     ai.Transcriber
	llm     ai.Paraphraser

	// One ordered queue per player, each drained by a single worker, so
	// chunks from one player are processed in the order they arrived.
	queues [2]chan job
}

func New(cfg config.Config, g *game.Game, reg *registry.Registry, stt ai.Transcriber, llm ai.Paraphraser) *Pipeline {
	p := &Pipeline{
		cfg: cfg,
		filters: Filters{
			MinCharsJA:         cfg.MinCharsJA,
			MinWordsEN:         cfg.MinWordsEN,
			CharRepeatFraction: cfg.CharRepeatFraction,
			CharRepeatMinLen:   cfg.CharRepeatMinLen,
			WordRepeatFraction: cfg.WordRepeatFraction,
			WordRepeatMinWords: cfg.WordRepeatMinWords,
			SubstringFraction:  cfg.SubstringFraction,
		},
		game: g,
		reg:  reg,
		stt:  stt,
		llm:  llm,
	}
	for i := range p.queues {
		p.queues[i] = make(chan job, queueDepth)
		go p.drain(p.queues[i])
	}
	return p
}

// Enqueue hands one chunk to the submitting player's queue. Blocks when the
// queue is full, which pauses that player's read loop until the backlog
// clears; chunks are never reordered or dropped for being concurrent.
func (p *Pipeline) Enqueue(role string, audioB64 string) {
	p.queues[playerIndex(role)] <- job{role: role, audio: audioB64}
}

func (p *Pipeline) drain(q <-chan job) {
	for j := range q {
		p.Process(j.role, j.audio)
	}
}

// Process handles one base64 PCM-16 chunk from a player role. Chunks
// arriving outside the conversation phase are dropped.
func (p *Pipeline) Process(role string, audioB64 string) {
	if p.game.Phase() != game.PhaseConversation {
		return
	}
	player := 1 + playerIndex(role)
	other := 3 - player

	if audioB64 == "" {
		return
	}
	audio, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		log.Warn().Int("player", player).Err(err).Msg("invalid base64 audio")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	language := p.game.Language()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.TranscribeTimeout)
	original, err := p.stt.Transcribe(ctx, audio, language)
	cancel()
	if err != nil {
		// Collaborator fault; treat as no speech detected.
		log.Error().Int("player", player).Err(err).Msg("transcription failed")
		return
	}
	original = strings.TrimSpace(original)
	if original == "" {
		return
	}

	if reason, rejected := p.filters.Reject(original, language); rejected {
		log.Debug().Int("player", player).Str("reason", reason).Str("text", clip(original)).Msg("dropping transcription")
		return
	}

	log.Info().Int("player", player).Str("text", original).Msg("player said")

	topic, history := p.game.TurnContext(p.cfg.HistoryWindow)
	req := ai.ParaphraseRequest{
		Original: original,
		History:  toHistory(history),
		Topic:    topic,
		Speaker:  player,
		Language: language,
		Strength: p.cfg.Strength,
	}
	ctx, cancel = context.WithTimeout(context.Background(), p.cfg.ParaphraseTimeout)
	misheard, err := p.llm.Paraphrase(ctx, req)
	cancel()
	if err != nil {
		// Fall back to passing the message along unaltered.
		log.Error().Int("player", player).Err(err).Msg("paraphrase failed, passing original through")
		misheard = original
	}
	misheard = sanitizeAltered(misheard, original)

	log.Info().Int("player", player).Str("text", misheard).Msg("misheard as")

	turn := p.game.AddTurn(player, original, misheard)

	// The other player only ever sees the altered text.
	p.reg.SendTo(playerRole(other), map[string]any{
		"type":  "message",
		"from":  player,
		"text":  misheard,
		"isOwn": false,
	})

	turnMsg := map[string]any{
		"type":     "turn",
		"player":   turn.Player,
		"original": turn.Original,
		"misheard": turn.Misheard,
	}
	p.reg.SendTo("spectator1", turnMsg)
	p.reg.SendTo("spectator2", turnMsg)

	p.reg.SendTo("control", map[string]any{
		"type":     "debug_turn",
		"player":   turn.Player,
		"original": turn.Original,
		"misheard": turn.Misheard,
	})
}

func toHistory(turns []game.Turn) []ai.HistoryTurn {
	out := make([]ai.HistoryTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, ai.HistoryTurn{Player: t.Player, Original: t.Original, Misheard: t.Misheard})
	}
	return out
}

func playerIndex(role string) int {
	if strings.Contains(role, "2") {
		return 1
	}
	return 0
}

func playerRole(player int) string {
	if player == 2 {
		return "player2"
	}
	return "player1"
}

func clip(s string) string {
	if r := []rune(s); len(r) > 80 {
		return string(r[:80])
	}
	return s
}
