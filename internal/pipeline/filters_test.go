package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testFilters() Filters {
	return Filters{
		MinCharsJA:         4,
		MinWordsEN:         3,
		CharRepeatFraction: 0.4,
		CharRepeatMinLen:   10,
		WordRepeatFraction: 0.6,
		WordRepeatMinWords: 5,
		SubstringFraction:  0.6,
	}
}

func TestRejectShortFragments(t *testing.T) {
	f := testFilters()

	tests := []struct {
		name     string
		text     string
		language string
		rejected bool
	}{
		{"ja two chars", "いえ", "ja", true},
		{"ja three chars", "いいえ", "ja", true},
		{"ja long enough", "こんにちは", "ja", false},
		{"en two words", "hello there", "en", true},
		{"en three words", "hello there friend", "en", false},
		{"empty", "   ", "en", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, rejected := f.Reject(tc.text, tc.language)
			assert.Equal(t, tc.rejected, rejected)
		})
	}
}

func TestRejectStockPhrases(t *testing.T) {
	f := testFilters()
	reason, rejected := f.Reject("ご視聴ありがとうございました", "ja")
	assert.True(t, rejected)
	assert.Equal(t, "stock phrase", reason)

	// only exact matches count
	_, rejected = f.Reject("今日はご視聴について話しましょうか", "ja")
	assert.False(t, rejected)
}

func TestRejectRepeatedCharacterGlitch(t *testing.T) {
	f := testFilters()

	// one character repeated across the whole string
	reason, rejected := f.Reject(strings.Repeat("あ", 10), "ja")
	assert.True(t, rejected)
	assert.Equal(t, "repeated character glitch", reason)

	// below the minimum length the check doesn't apply
	_, rejected = f.Reject(strings.Repeat("あ", 6), "ja")
	assert.False(t, rejected)

	// varied text of the same length passes
	_, rejected = f.Reject("今日は海へ行きたいですね", "ja")
	assert.False(t, rejected)
}

func TestRejectRepeatedWordGlitch(t *testing.T) {
	f := testFilters()
	_, rejected := f.Reject("go go go go go stop", "en")
	assert.True(t, rejected)

	_, rejected = f.Reject("i would love to go hiking this weekend", "en")
	assert.False(t, rejected)

	// repetition check needs enough words
	_, rejected = f.Reject("go go stop", "en")
	assert.False(t, rejected)
}

func TestRejectRepeatedSubstringGlitch(t *testing.T) {
	f := testFilters()
	reason, rejected := f.Reject("はいはいはいはいはい", "ja")
	assert.True(t, rejected)
	assert.Equal(t, "repeated character glitch", reason) // caught by the char check first

	// too few words for the word check, but the tiling still shows
	reason, rejected = f.Reject("ab ab ab", "en")
	assert.True(t, rejected)
	assert.Equal(t, "repeated substring glitch", reason)
}

func TestAcceptNormalSpeech(t *testing.T) {
	f := testFilters()
	_, rejected := f.Reject("I love going to the beach", "en")
	assert.False(t, rejected)

	_, rejected = f.Reject("昨日は友達と映画を見に行きました", "ja")
	assert.False(t, rejected)
}
