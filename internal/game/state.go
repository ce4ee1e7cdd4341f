package game

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ebisawa/driftaway/internal/config"
)

// task is one cancellable background timer (round countdown, reveal
// auto-timeout, or reset pause). Cancelling twice is a no-op.
type task struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newTask() *task {
	ctx, cancel := context.WithCancel(context.Background())
	return &task{ctx: ctx, cancel: cancel}
}

// Game is the single source of truth for one running session. All state is
// guarded by mu; transitions run to completion under the lock, so handlers
// never observe a torn phase/payload pair. Blocking collaborator calls live
// in the pipeline, never here.
type Game struct {
	mu       sync.Mutex
	cfg      config.Config
	sink     Sink
	loadPool func(language string) (*Pool, error)

	phase          Phase
	language       string
	pool           *Pool
	history        []Prompt // prompts browsed during prompt_select, in order
	cursor         int
	choices        []Prompt
	highlight      int
	selected       *Prompt
	startingPlayer int
	ready          map[int]bool
	turns          []Turn
	roundStart     time.Time
	remaining      float64
	timer          *task
}

// New builds a session in the idle phase. loadPool resolves a prompt pool
// for a language code; sink may be nil.
func New(cfg config.Config, loadPool func(string) (*Pool, error), sink Sink) (*Game, error) {
	if sink == nil {
		sink = NopSink{}
	}
	pool, err := loadPool(cfg.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	return &Game{
		cfg:            cfg,
		sink:           sink,
		loadPool:       loadPool,
		phase:          PhaseIdle,
		language:       cfg.DefaultLanguage,
		pool:           pool,
		cursor:         -1,
		startingPlayer: 1 + rand.Intn(2),
		ready:          make(map[int]bool),
		remaining:      round1(cfg.RoundDuration.Seconds()),
	}, nil
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) Language() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.language
}

// PlayerReady marks a player as ready. The first ready enters waiting; once
// both distinct players are ready the session moves to prompt selection.
// Ignored outside idle/waiting, so duplicate signals are harmless.
func (g *Game) PlayerReady(player int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseIdle && g.phase != PhaseWaiting {
		return
	}
	if player != 1 && player != 2 {
		return
	}
	g.ready[player] = true
	if len(g.ready) >= 2 {
		g.enterPromptSelectLocked()
		return
	}
	g.phase = PhaseWaiting
	g.emitLocked(map[string]any{"playersReady": g.readyListLocked()})
}

func (g *Game) enterPromptSelectLocked() {
	g.phase = PhasePromptSelect
	g.history = nil
	g.cursor = -1
	p := g.pool.Pick()
	g.history = append(g.history, p)
	g.cursor = 0
	g.choices = []Prompt{p}
	g.highlight = 0
	g.emitLocked(map[string]any{
		"choices":        g.choices,
		"highlightIndex": 0,
		"startingPlayer": g.startingPlayer,
	})
}

// Reroll shows the next topic: replays forward history if the cursor is
// behind, otherwise draws a fresh prompt and appends it.
func (g *Game) Reroll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePromptSelect {
		return
	}
	if g.cursor < len(g.history)-1 {
		g.cursor++
	} else {
		g.history = append(g.history, g.pool.Pick())
		g.cursor = len(g.history) - 1
	}
	g.showCursorLocked()
}

// Prev steps back to the previously shown topic. History is never
// regenerated; at the start of history it re-emits the current one.
func (g *Game) Prev() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePromptSelect {
		return
	}
	if g.cursor > 0 {
		g.cursor--
	}
	g.showCursorLocked()
}

// Navigate maps a signed direction onto Reroll/Prev.
func (g *Game) Navigate(direction int) {
	if direction >= 0 {
		g.Reroll()
	} else {
		g.Prev()
	}
}

func (g *Game) showCursorLocked() {
	current := g.history[g.cursor]
	g.choices = []Prompt{current}
	g.highlight = 0
	g.emitLocked(map[string]any{
		"choices":        g.choices,
		"highlightIndex": 0,
		"startingPlayer": g.startingPlayer,
	})
}

// Confirm locks in the highlighted prompt and starts the conversation.
func (g *Game) Confirm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePromptSelect {
		return
	}
	p := g.choices[g.highlight]
	g.selected = &p
	g.enterConversationLocked()
}

// ConfirmIndex selects a choice by index (screen tap) and confirms it.
func (g *Game) ConfirmIndex(index int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePromptSelect {
		return
	}
	if index < 0 || index >= len(g.choices) {
		return
	}
	g.highlight = index
	p := g.choices[index]
	g.selected = &p
	g.enterConversationLocked()
}

func (g *Game) enterConversationLocked() {
	g.phase = PhaseConversation
	g.turns = nil
	g.roundStart = time.Now()
	g.remaining = round1(g.cfg.RoundDuration.Seconds())
	g.emitLocked(map[string]any{
		"prompt":         g.selected,
		"duration":       g.cfg.RoundDuration.Seconds(),
		"startingPlayer": g.startingPlayer,
	})
	t := newTask()
	g.timer = t
	go g.runRoundTimer(t)
}

// runRoundTimer recomputes remaining time from the captured start instant
// every tick, so scheduling jitter never accumulates into drift.
func (g *Game) runRoundTimer(t *task) {
	ticker := time.NewTicker(g.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
		}
		g.mu.Lock()
		if g.phase != PhaseConversation || g.timer != t {
			g.mu.Unlock()
			return
		}
		left := g.cfg.RoundDuration - time.Since(g.roundStart)
		if left < 0 {
			left = 0
		}
		g.remaining = round1(left.Seconds())
		g.sink.TimerTick(g.remaining)
		if g.remaining <= 0 {
			// Finishing naturally: clear our own handle so the reveal
			// transition doesn't try to cancel the task that caused it.
			g.timer = nil
			g.enterRevealLocked()
			g.mu.Unlock()
			return
		}
		g.mu.Unlock()
	}
}

// AddTurn appends one exchange to the round's turn log.
func (g *Game) AddTurn(player int, original, misheard string) Turn {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := Turn{
		ID:        uuid.NewString(),
		Player:    player,
		Original:  original,
		Misheard:  misheard,
		Timestamp: now(),
	}
	g.turns = append(g.turns, t)
	return t
}

// ForceReveal ends the conversation early. No-op outside the conversation
// phase.
func (g *Game) ForceReveal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseConversation {
		return
	}
	g.enterRevealLocked()
}

func (g *Game) enterRevealLocked() {
	g.cancelTimerLocked()
	g.phase = PhaseReveal
	g.emitLocked(map[string]any{
		"prompt": g.selected,
		"turns":  g.turnsCopyLocked(),
	})
	t := newTask()
	g.timer = t
	go g.runAfter(t, g.cfg.RevealDuration, PhaseReveal, g.resetLocked)
}

// Reset re-randomizes the starting player and walks through the reset pause
// back to idle. Safe to call from any phase, any number of times.
func (g *Game) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resetLocked()
}

func (g *Game) resetLocked() {
	g.cancelTimerLocked()
	g.startingPlayer = 1 + rand.Intn(2)
	g.phase = PhaseReset
	g.emitLocked(map[string]any{})
	t := newTask()
	g.timer = t
	go g.runAfter(t, g.cfg.ResetPause, PhaseReset, g.finishResetLocked)
}

func (g *Game) finishResetLocked() {
	g.turns = nil
	g.selected = nil
	g.choices = nil
	g.history = nil
	g.cursor = -1
	g.ready = make(map[int]bool)
	g.remaining = round1(g.cfg.RoundDuration.Seconds())
	g.phase = PhaseIdle
	g.emitLocked(map[string]any{})
}

// runAfter fires a locked transition after d, unless the task was cancelled,
// superseded, or the phase moved on in the meantime.
func (g *Game) runAfter(t *task, d time.Duration, want Phase, fire func()) {
	select {
	case <-t.ctx.Done():
		return
	case <-time.After(d):
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != t || g.phase != want {
		return
	}
	g.timer = nil
	fire()
}

func (g *Game) cancelTimerLocked() {
	if g.timer != nil {
		g.timer.cancel()
		g.timer = nil
	}
}

// SetLanguage switches the prompt language and reloads the pool, dropping
// the used-prompt epoch. Returns false when nothing changed.
func (g *Game) SetLanguage(lang string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if lang == g.language {
		return false
	}
	pool, err := g.loadPool(lang)
	if err != nil {
		return false
	}
	g.language = lang
	g.pool = pool
	return true
}

// TurnContext returns the current topic and the most recent window of turns,
// for the paraphrasing collaborator.
func (g *Game) TurnContext(window int) (topic string, history []Turn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.selected != nil {
		topic = g.selected.Topic
	}
	turns := g.turnsCopyLocked()
	if window > 0 && len(turns) > window {
		turns = turns[len(turns)-window:]
	}
	return topic, turns
}

// Snapshot serializes the full session state for (re)connecting clients.
func (g *Game) Snapshot() map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	return map[string]any{
		"phase":          string(g.phase),
		"language":       g.language,
		"prompt":         g.selected,
		"promptChoices":  append([]Prompt(nil), g.choices...),
		"highlightIndex": g.highlight,
		"startingPlayer": g.startingPlayer,
		"remaining":      round1(g.remaining),
		"turns":          g.turnsCopyLocked(),
		"playersReady":   g.readyListLocked(),
	}
}

func (g *Game) turnsCopyLocked() []Turn {
	out := make([]Turn, len(g.turns))
	copy(out, g.turns)
	return out
}

func (g *Game) readyListLocked() []int {
	out := make([]int, 0, len(g.ready))
	for p := range g.ready {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (g *Game) emitLocked(extra map[string]any) {
	g.sink.PhaseChanged(g.phase, extra)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
