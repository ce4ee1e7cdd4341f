package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Game
	DefaultLanguage string
	PromptsFileEN   string
	PromptsFileJA   string
	RoundDuration   time.Duration
	RevealDuration  time.Duration
	ResetPause      time.Duration
	TickInterval    time.Duration
	HistoryWindow   int // turns handed to the paraphraser as context

	// Audio / filters (tuned empirically per language, keep configurable)
	SampleRate         int
	MinCharsJA         int
	MinWordsEN         int
	CharRepeatFraction float64
	CharRepeatMinLen   int
	WordRepeatFraction float64
	WordRepeatMinWords int
	SubstringFraction  float64

	// Collaborators
	LLMBackend        string // "anthropic" | "openai"
	Strength          float64
	AnthropicKey      string
	AnthropicModel    string
	AnthropicMaxToken int
	OpenAIKey         string
	OpenAIBaseURL     string
	OpenAIModel       string
	OpenAIMaxToken    int
	WhisperModel      string
	TranscribeTimeout time.Duration
	ParaphraseTimeout time.Duration

	// Export
	ExportEnabled bool
	ExportFile    string
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8888")

	c.DefaultLanguage = getenv("DEFAULT_LANGUAGE", "ja")
	c.PromptsFileEN = getenv("PROMPTS_FILE", "./static/prompts.json")
	c.PromptsFileJA = getenv("PROMPTS_FILE_JA", "./static/prompts_ja.json")
	c.RoundDuration = seconds("ROUND_DURATION_SECONDS", 180)
	c.RevealDuration = seconds("REVEAL_SECONDS", 5)
	c.ResetPause = seconds("RESET_PAUSE_SECONDS", 5)
	c.TickInterval = seconds("TICK_INTERVAL_SECONDS", 1)
	c.HistoryWindow = getint("HISTORY_WINDOW", 8)

	c.SampleRate = getint("SAMPLE_RATE", 16000)
	c.MinCharsJA = getint("MIN_CHARS_JA", 4)
	c.MinWordsEN = getint("MIN_WORDS_EN", 3)
	c.CharRepeatFraction = getfloat("CHAR_REPEAT_FRACTION", 0.4)
	c.CharRepeatMinLen = getint("CHAR_REPEAT_MIN_LEN", 10)
	c.WordRepeatFraction = getfloat("WORD_REPEAT_FRACTION", 0.6)
	c.WordRepeatMinWords = getint("WORD_REPEAT_MIN_WORDS", 5)
	c.SubstringFraction = getfloat("SUBSTRING_FRACTION", 0.6)

	c.LLMBackend = getenv("DRIFTING_LLM_BACKEND", "anthropic")
	c.Strength = getfloat("MISINTERPRET_STRENGTH", 0.83)
	c.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	c.AnthropicModel = getenv("ANTHROPIC_MODEL", "claude-haiku-4-5-20251001")
	c.AnthropicMaxToken = getint("ANTHROPIC_MAX_TOKENS", 256)
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	c.OpenAIModel = getenv("OPENAI_MODEL", "gpt-4o-mini")
	c.OpenAIMaxToken = getint("OPENAI_MAX_TOKENS", 256)
	c.WhisperModel = getenv("WHISPER_MODEL", "whisper-1")
	c.TranscribeTimeout = seconds("TRANSCRIBE_TIMEOUT_SECONDS", 30)
	c.ParaphraseTimeout = seconds("PARAPHRASE_TIMEOUT_SECONDS", 20)

	c.ExportEnabled = getenv("EXPORT_ENABLED", "false") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "./driftaway-transcripts.txt")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func seconds(k string, def int) time.Duration {
	return time.Duration(getint(k, def)) * time.Second
}
