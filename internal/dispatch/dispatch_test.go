package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebisawa/driftaway/internal/ai"
	"github.com/ebisawa/driftaway/internal/config"
	"github.com/ebisawa/driftaway/internal/game"
	"github.com/ebisawa/driftaway/internal/pipeline"
	"github.com/ebisawa/driftaway/internal/registry"
)

type stubSTT struct{ text string }

func (s stubSTT) Transcribe(context.Context, []byte, string) (string, error) {
	return s.text, nil
}

type stubParaphraser struct{ text string }

func (s stubParaphraser) Paraphrase(context.Context, ai.ParaphraseRequest) (string, error) {
	return s.text, nil
}

func testConfig() config.Config {
	return config.Config{
		DefaultLanguage:    "en",
		RoundDuration:      time.Minute,
		RevealDuration:     time.Minute,
		ResetPause:         time.Minute,
		TickInterval:       time.Second,
		HistoryWindow:      8,
		MinCharsJA:         4,
		MinWordsEN:         3,
		CharRepeatFraction: 0.4,
		CharRepeatMinLen:   10,
		WordRepeatFraction: 0.6,
		WordRepeatMinWords: 5,
		SubstringFraction:  0.6,
		TranscribeTimeout:  time.Second,
		ParaphraseTimeout:  time.Second,
	}
}

func newHarness(t *testing.T) (*Dispatcher, *game.Game, *registry.Registry) {
	t.Helper()
	loader := func(lang string) (*game.Pool, error) {
		if lang != "en" && lang != "ja" {
			return nil, assert.AnError
		}
		return game.NewPool([]game.Prompt{{ID: 1, Topic: "travel"}, {ID: 2, Topic: "food"}}), nil
	}
	g, err := game.New(testConfig(), loader, nil)
	require.NoError(t, err)
	reg := registry.New()
	pipe := pipeline.New(testConfig(), g, reg, stubSTT{text: "I love going to the beach"}, stubParaphraser{text: "I love going to the harbor"})
	return New(g, pipe, reg), g, reg
}

func send(d *Dispatcher, role string, msg map[string]any) {
	raw, _ := json.Marshal(msg)
	d.Handle(role, raw)
}

func TestPlayerReadyFromPlayerRoles(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "player1", map[string]any{"action": "player_ready"})
	require.Equal(t, game.PhaseWaiting, g.Phase())
	send(d, "player2", map[string]any{"action": "player_ready"})
	require.Equal(t, game.PhasePromptSelect, g.Phase())
}

func TestPlayerReadyFromControlReadiesBoth(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "player_ready"})
	require.Equal(t, game.PhasePromptSelect, g.Phase())
}

func TestPlayerReadyFromSpectatorIgnored(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "spectator1", map[string]any{"action": "player_ready"})
	require.Equal(t, game.PhaseIdle, g.Phase())
}

func TestStartGameOnlyFromIdle(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "start_game"})
	require.Equal(t, game.PhasePromptSelect, g.Phase())

	// once out of idle start_game is inert
	send(d, "control", map[string]any{"action": "start_game"})
	require.Equal(t, game.PhasePromptSelect, g.Phase())
}

func TestPromptNavigationActions(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "player_ready"})

	send(d, "player1", map[string]any{"action": "reroll_prompt"})
	send(d, "player1", map[string]any{"action": "prev_prompt"})
	send(d, "player1", map[string]any{"action": "nav_prompt", "direction": -1})
	require.Equal(t, game.PhasePromptSelect, g.Phase())

	send(d, "player1", map[string]any{"action": "select_prompt"})
	require.Equal(t, game.PhaseConversation, g.Phase())
}

func TestNavPromptDefaultsForward(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "player_ready"})
	// no direction field at all: treated as "next"
	send(d, "player1", map[string]any{"action": "nav_prompt"})
	require.Equal(t, game.PhasePromptSelect, g.Phase())
}

func TestSetPromptIndex(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "player_ready"})
	send(d, "player1", map[string]any{"action": "set_prompt_index", "index": 0})
	require.Equal(t, game.PhaseConversation, g.Phase())
}

func TestForceRevealAndReset(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "player_ready"})
	send(d, "player1", map[string]any{"action": "select_prompt"})
	require.Equal(t, game.PhaseConversation, g.Phase())

	send(d, "control", map[string]any{"action": "force_reveal"})
	require.Equal(t, game.PhaseReveal, g.Phase())

	send(d, "control", map[string]any{"action": "reset"})
	require.Equal(t, game.PhaseReset, g.Phase())
}

func TestSkipToConversation(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "skip_to_conversation"})
	require.Equal(t, game.PhaseIdle, g.Phase(), "inert outside prompt_select")

	send(d, "control", map[string]any{"action": "player_ready"})
	send(d, "control", map[string]any{"action": "skip_to_conversation"})
	require.Equal(t, game.PhaseConversation, g.Phase())
}

func TestRelayKeyForwardsToTargetPlayer(t *testing.T) {
	d, _, reg := newHarness(t)
	p2 := reg.Register("player2")

	send(d, "control", map[string]any{
		"action":       "relay_key",
		"targetPlayer": 2,
		"keyAction":    "select",
		"eventType":    "keydown",
	})

	var m map[string]any
	require.NoError(t, json.Unmarshal(<-p2, &m))
	assert.Equal(t, "remote_key", m["type"])
	assert.Equal(t, "select", m["keyAction"])
	assert.Equal(t, "keydown", m["eventType"])
}

func TestSetLanguageBroadcasts(t *testing.T) {
	d, g, reg := newHarness(t)
	ctrl := reg.Register("control")

	send(d, "control", map[string]any{"action": "set_language", "language": "ja"})
	assert.Equal(t, "ja", g.Language())

	var m map[string]any
	require.NoError(t, json.Unmarshal(<-ctrl, &m))
	assert.Equal(t, "language_change", m["type"])
	assert.Equal(t, "ja", m["language"])
}

func TestSetLanguageUnchangedOrUnknownSilent(t *testing.T) {
	d, g, reg := newHarness(t)
	ctrl := reg.Register("control")

	send(d, "control", map[string]any{"action": "set_language", "language": "en"})
	send(d, "control", map[string]any{"action": "set_language", "language": "xx"})
	assert.Equal(t, "en", g.Language())

	select {
	case data := <-ctrl:
		t.Fatalf("expected no broadcast, got %s", data)
	default:
	}
}

func TestAudioChunkReachesPipeline(t *testing.T) {
	d, g, _ := newHarness(t)
	send(d, "control", map[string]any{"action": "player_ready"})
	send(d, "player1", map[string]any{"action": "select_prompt"})
	require.Equal(t, game.PhaseConversation, g.Phase())

	send(d, "player1", map[string]any{
		"action": "audio_chunk",
		"audio":  base64.StdEncoding.EncodeToString([]byte("pcm")),
	})

	require.Eventually(t, func() bool {
		_, turns := g.TurnContext(0)
		return len(turns) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestUnknownAndMalformedIgnored(t *testing.T) {
	d, g, _ := newHarness(t)
	d.Handle("player1", []byte(`{`))
	send(d, "player1", map[string]any{"action": "definitely_not_a_thing"})
	require.Equal(t, game.PhaseIdle, g.Phase())
}
