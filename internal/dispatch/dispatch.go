// Package dispatch decodes inbound client payloads and routes them to the
// game engine or the audio pipeline. It holds no state of its own; unknown
// actions are ignored.
package dispatch

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ebisawa/driftaway/internal/game"
	"github.com/ebisawa/driftaway/internal/pipeline"
	"github.com/ebisawa/driftaway/internal/registry"
)

// Message is the envelope every client sends: an action tag plus the fields
// that action uses.
type Message struct {
	Action       string `json:"action"`
	Direction    *int   `json:"direction,omitempty"`
	Index        int    `json:"index,omitempty"`
	Audio        string `json:"audio,omitempty"`
	Language     string `json:"language,omitempty"`
	TargetPlayer int    `json:"targetPlayer,omitempty"`
	KeyAction    string `json:"keyAction,omitempty"`
	EventType    string `json:"eventType,omitempty"`
}

type Dispatcher struct {
	game *game.Game
	pipe *pipeline.Pipeline
	reg  *registry.Registry
}

func New(g *game.Game, p *pipeline.Pipeline, reg *registry.Registry) *Dispatcher {
	return &Dispatcher{game: g, pipe: p, reg: reg}
}

// Handle routes one raw inbound payload from the connection with the given
// role. Malformed payloads are logged and dropped.
func (d *Dispatcher) Handle(role string, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Warn().Str("role", role).Err(err).Msg("unparseable client message")
		return
	}

	switch msg.Action {
	case "relay_key":
		// Forward key events verbatim to the target player's screen.
		d.reg.SendTo("player"+strconv.Itoa(msg.TargetPlayer), map[string]any{
			"type":      "remote_key",
			"keyAction": msg.KeyAction,
			"eventType": msg.EventType,
		})

	case "player_ready":
		if strings.HasPrefix(role, "player") {
			if n, err := strconv.Atoi(role[len("player"):]); err == nil {
				d.game.PlayerReady(n)
			}
		} else if role == "control" {
			// Control panel can force-start by readying both.
			d.game.PlayerReady(1)
			d.game.PlayerReady(2)
		}

	case "start_game":
		if d.game.Phase() == game.PhaseIdle {
			d.game.PlayerReady(1)
			d.game.PlayerReady(2)
		}

	case "nav_prompt":
		direction := 1
		if msg.Direction != nil {
			direction = *msg.Direction
		}
		d.game.Navigate(direction)

	case "select_prompt":
		d.game.Confirm()

	case "set_prompt_index":
		d.game.ConfirmIndex(msg.Index)

	case "reroll_prompt":
		d.game.Reroll()

	case "prev_prompt":
		d.game.Prev()

	case "audio_chunk":
		// Queued rather than detached: chunks from one player must be
		// recorded in the order they were sent.
		d.pipe.Enqueue(role, msg.Audio)

	case "force_reveal":
		d.game.ForceReveal()

	case "reset":
		d.game.Reset()

	case "skip_to_conversation":
		// Debug shortcut from the control panel.
		if d.game.Phase() == game.PhasePromptSelect {
			d.game.Confirm()
		}

	case "set_language":
		if d.game.SetLanguage(msg.Language) {
			log.Info().Str("language", msg.Language).Msg("language changed")
			d.reg.Broadcast(map[string]any{"type": "language_change", "language": msg.Language})
		}
	}
}
