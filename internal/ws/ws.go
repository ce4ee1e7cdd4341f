// Package ws is the session host's transport layer: it upgrades one
// websocket per role, feeds inbound messages to the dispatcher, and turns
// state-machine events into broadcasts.
package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ebisawa/driftaway/internal/config"
	"github.com/ebisawa/driftaway/internal/dispatch"
	"github.com/ebisawa/driftaway/internal/game"
	"github.com/ebisawa/driftaway/internal/registry"
)

// Broadcaster implements game.Sink by fanning phase and timer events out to
// every connected screen. It must not call back into the Game: events are
// emitted while the engine holds its own lock.
type Broadcaster struct {
	Reg           *registry.Registry
	ExportEnabled bool
	ExportFile    string
}

func (b *Broadcaster) PhaseChanged(phase game.Phase, extra map[string]any) {
	log.Info().Str("phase", string(phase)).Msg("phase change")
	msg := map[string]any{"type": "phase", "phase": string(phase)}
	for k, v := range extra {
		msg[k] = v
	}
	b.Reg.Broadcast(msg)

	if phase == game.PhaseReveal && b.ExportEnabled {
		prompt, _ := extra["prompt"].(*game.Prompt)
		turns, _ := extra["turns"].([]game.Turn)
		// The engine emits while holding its lock; disk I/O happens off to
		// the side on an already-copied payload.
		go func() {
			if err := game.ExportRound(prompt, turns, b.ExportFile); err != nil {
				log.Error().Err(err).Str("file", b.ExportFile).Msg("transcript export failed")
			}
		}()
	}
}

func (b *Broadcaster) TimerTick(remaining float64) {
	b.Reg.Broadcast(map[string]any{"type": "timer", "remaining": remaining})
}

type Server struct {
	cfg      config.Config
	reg      *registry.Registry
	game     *game.Game
	disp     *dispatch.Dispatcher
	upgrader websocket.Upgrader
}

func NewServer(cfg config.Config, reg *registry.Registry, g *game.Game, disp *dispatch.Dispatcher) *Server {
	return &Server{
		cfg:  cfg,
		reg:  reg,
		game: g,
		disp: disp,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 14,
			WriteBufferSize: 1 << 14,
			// Screens live on the installation's LAN.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Mount attaches the websocket endpoint to the gin engine.
func (s *Server) Mount(r *gin.Engine) {
	r.GET("/ws/:role", s.handleWS)
}

func (s *Server) handleWS(c *gin.Context) {
	role := c.Param("role")
	if !registry.ValidRole(role) {
		c.String(http.StatusBadRequest, "unknown role")
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("role", role).Err(err).Msg("websocket upgrade failed")
		return
	}

	out := s.reg.Register(role)

	// Writer pump: drains the registry outbox into the socket. The registry
	// closes the channel when this client is replaced or dropped.
	go func() {
		for data := range out {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Str("role", role).Err(err).Msg("write failed, dropping connection")
				s.reg.Unregister(role, out)
				break
			}
		}
		_ = conn.Close()
	}()

	// Late joiners and reconnects resynchronize from a full snapshot.
	snapshot := s.game.Snapshot()
	snapshot["type"] = "snapshot"
	s.reg.SendTo(role, snapshot)

	defer func() {
		s.reg.Unregister(role, out)
		_ = conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Str("role", role).Err(err).Msg("websocket error")
			}
			return
		}
		s.disp.Handle(role, data)
	}
}
