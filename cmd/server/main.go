package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/ebisawa/driftaway/internal/ai"
	"github.com/ebisawa/driftaway/internal/ai/anthropic"
	"github.com/ebisawa/driftaway/internal/ai/openai"
	"github.com/ebisawa/driftaway/internal/config"
	"github.com/ebisawa/driftaway/internal/dispatch"
	"github.com/ebisawa/driftaway/internal/game"
	"github.com/ebisawa/driftaway/internal/pipeline"
	"github.com/ebisawa/driftaway/internal/registry"
	wsserver "github.com/ebisawa/driftaway/internal/ws"
	staticserver "github.com/ebisawa/driftaway/static"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Drifting Away - two-player misheard-conversation installation server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8888 or PORT env var)

Environment Variables:
  PORT                     Port to listen on (default: 8888)
  DEFAULT_LANGUAGE         Session language, "ja" or "en" (default: ja)
  DRIFTING_LLM_BACKEND     Paraphrase backend: "anthropic" or "openai" (default: anthropic)
  ANTHROPIC_API_KEY        Anthropic API key (required for anthropic backend)
  OPENAI_API_KEY           OpenAI API key (required for transcription and openai backend)
  ROUND_DURATION_SECONDS   Conversation round length (default: 180)
  MISINTERPRET_STRENGTH    Drift aggressiveness 0.0-1.0 (default: 0.83)
  EXPORT_ENABLED           Append round transcripts to a file (default: false)
  EXPORT_FILE              Transcript file path (default: ./driftaway-transcripts.txt)

Screens connect to ws://host:port/ws/{player1,player2,spectator1,spectator2,control}.
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Drifting Away %s\n", version)
		return
	}

	// .env keeps API keys across restarts of the installation machine.
	_ = godotenv.Load()

	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	cfg := config.FromEnv()
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/ws/") {
			return
		}
		zerologlog.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Collaborators
	oa := openai.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.WhisperModel, cfg.OpenAIMaxToken, cfg.SampleRate)
	var paraphraser ai.Paraphraser
	switch strings.ToLower(cfg.LLMBackend) {
	case "openai":
		paraphraser = oa
	case "anthropic":
		paraphraser = anthropic.New(cfg.AnthropicKey, cfg.AnthropicModel, cfg.AnthropicMaxToken)
	default:
		zerologlog.Warn().Str("backend", cfg.LLMBackend).Msg("unknown LLM backend, using anthropic")
		paraphraser = anthropic.New(cfg.AnthropicKey, cfg.AnthropicModel, cfg.AnthropicMaxToken)
	}

	// Session wiring
	reg := registry.New()
	sink := &wsserver.Broadcaster{Reg: reg, ExportEnabled: cfg.ExportEnabled, ExportFile: cfg.ExportFile}
	g, err := game.New(cfg, poolLoader(cfg), sink)
	if err != nil {
		zerologlog.Fatal().Err(err).Msg("failed to start session")
	}
	pipe := pipeline.New(cfg, g, reg, oa, paraphraser)
	disp := dispatch.New(g, pipe, reg)
	wsserver.NewServer(cfg, reg, g, disp).Mount(r)

	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	zerologlog.Info().Str("port", port).Str("language", cfg.DefaultLanguage).Msg("listening")
	if err := r.Run(":" + port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server exited")
	}
}

func poolLoader(cfg config.Config) func(string) (*game.Pool, error) {
	return func(lang string) (*game.Pool, error) {
		switch lang {
		case "ja":
			return game.LoadPool(cfg.PromptsFileJA)
		case "en":
			return game.LoadPool(cfg.PromptsFileEN)
		default:
			return nil, errors.Errorf("no prompt pool for language %q", lang)
		}
	}
}
