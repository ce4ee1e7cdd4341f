package pipeline

import (
	"strings"
)

// Rote closing phrases the speech-to-text engine hallucinates from ambient
// noise and trailing politeness. Treated as silence.
var stockPhrases = []string{
	"ご視聴ありがとうございました", "ご利用ありがとうございました", "ありがとうございました", "ご清聴ありがとうございました",
	"ご参加ありがとうございました", "ご来場ありがとうございました", "ご協力ありがとうございました", "ご注文ありがとうございました",
	"ご愛顧ありがとうございました", "ご予約ありがとうございました", "ご回答ありがとうございました", "ご応募ありがとうございました",
	"ご連絡ありがとうございました", "ご報告ありがとうございました", "ご指摘ありがとうございました", "ご案内ありがとうございました",
}

// Filters holds the glitch-detection thresholds. They are tuned empirically
// per spoken language and always come from configuration.
type Filters struct {
	MinCharsJA         int
	MinWordsEN         int
	CharRepeatFraction float64
	CharRepeatMinLen   int
	WordRepeatFraction float64
	WordRepeatMinWords int
	SubstringFraction  float64
}

// charDense reports whether the language counts characters rather than
// space-separated words.
func charDense(language string) bool {
	return language == "ja"
}

// Reject decides whether a transcription is too short, a stock phrase, or
// audio-glitch garbage. It returns a diagnostic reason when rejecting.
func (f Filters) Reject(text, language string) (reason string, rejected bool) {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return "empty", true
	}

	if charDense(language) {
		if len([]rune(clean)) < f.MinCharsJA {
			return "short fragment", true
		}
		for _, phrase := range stockPhrases {
			if clean == phrase {
				return "stock phrase", true
			}
		}
		if f.repeatedChar(clean) {
			return "repeated character glitch", true
		}
	} else {
		words := strings.Fields(clean)
		if len(words) < f.MinWordsEN {
			return "short fragment", true
		}
		if f.repeatedWord(words) {
			return "repeated word glitch", true
		}
	}

	if f.repeatedSubstring(clean) {
		return "repeated substring glitch", true
	}
	return "", false
}

// repeatedChar flags text where a single character accounts for more than
// the configured fraction of a sufficiently long string.
func (f Filters) repeatedChar(s string) bool {
	runes := []rune(s)
	if len(runes) < f.CharRepeatMinLen {
		return false
	}
	counts := make(map[rune]int)
	max := 0
	for _, r := range runes {
		counts[r]++
		if counts[r] > max {
			max = counts[r]
		}
	}
	return float64(max)/float64(len(runes)) > f.CharRepeatFraction
}

// repeatedWord flags word lists dominated by a single (case-folded) word.
func (f Filters) repeatedWord(words []string) bool {
	if len(words) < f.WordRepeatMinWords {
		return false
	}
	counts := make(map[string]int)
	max := 0
	for _, w := range words {
		lw := strings.ToLower(w)
		counts[lw]++
		if counts[lw] > max {
			max = counts[lw]
		}
	}
	return float64(max)/float64(len(words)) > f.WordRepeatFraction
}

// repeatedSubstring flags text whose prefix is a short substring (length
// 2–4) tiled over more than the configured fraction of the whole.
func (f Filters) repeatedSubstring(s string) bool {
	runes := []rune(s)
	n := len(runes)
	for l := 2; l <= 4; l++ {
		reps := n / l
		if reps < 2 {
			continue
		}
		covered := l * reps
		if float64(covered)/float64(n) <= f.SubstringFraction {
			continue
		}
		tile := string(runes[:l])
		if strings.Repeat(tile, reps) == string(runes[:covered]) {
			return true
		}
	}
	return false
}
