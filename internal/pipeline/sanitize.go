package pipeline

import "strings"

// Degenerate paraphrase shapes: list output, multi-line rambling, or a
// refusal instead of a natural sentence. Any of these and the listener gets
// the original text instead.
var refusalMarkers = []string{
	"i can't", "i cannot", "i'm sorry", "i am sorry", "i apologize",
	"as an ai", "as a language model", "申し訳ありません", "お手伝いできません",
}

var bulletPrefixes = []string{"- ", "* ", "• ", "1. ", "1) "}

func sanitizeAltered(altered, original string) string {
	a := strings.TrimSpace(altered)
	if a == "" {
		return original
	}
	if strings.Contains(a, "\n") {
		return original
	}
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(a, p) {
			return original
		}
	}
	lower := strings.ToLower(a)
	for _, m := range refusalMarkers {
		if strings.Contains(lower, m) {
			return original
		}
	}
	return a
}
