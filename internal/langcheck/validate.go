// Package langcheck guesses whether a generated reply is written in the
// language that was asked for. The heuristic is permissive: when in doubt the
// reply is accepted.
package langcheck

import (
	"regexp"
	"strings"

	"chefbot/internal/prompt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Reason explains why a reply failed validation.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonAppearsEnglish    Reason = "reply_appears_english"
	ReasonAppearsIndonesian Reason = "reply_appears_indonesian"
)

// Result carries the validation outcome.
type Result struct {
	Valid  bool
	Reason Reason
}

const (
	minWords        = 3
	headLength      = 80
	enoughIndicator = 2
	strongOther     = 4
)

type profile struct {
	indicators   map[string]struct{}
	startPhrases []string
	mismatch     Reason
}

var profiles = map[prompt.Language]profile{
	prompt.Indonesian: {
		indicators: wordSet(
			"yang", "dengan", "adalah", "untuk", "dalam", "ini", "itu", "cara", "bisa", "juga",
			"atau", "akan", "ada", "dari", "pada", "dan", "ke", "di", "oleh", "serta",
			"seperti", "lebih", "sudah", "belum", "harus", "perlu", "dapat", "membuat",
			"memasak", "masakan", "resep", "bahan", "langkah", "menit", "jam", "sajikan",
			"panaskan", "tambahkan", "campurkan", "iris", "potong", "goreng", "rebus",
			"panggang", "kukus", "tumis", "aduk", "angkat", "siap", "selamat", "anda",
			"pertama", "kemudian", "terakhir", "siapkan", "campur", "masukkan", "gunakan",
		),
		startPhrases: []string{"untuk ", "cara ", "pertama", "anda ", "bahan", "langkah", "panaskan", "tambahkan", "campurkan", "sajikan", "memasak"},
		mismatch:     ReasonAppearsIndonesian,
	},
	prompt.English: {
		indicators: wordSet(
			"the", "and", "for", "with", "this", "that", "you", "your", "can", "will",
			"step", "ingredients", "instructions", "minutes", "heat", "add", "mix",
			"cooking", "recipe", "stir", "combine", "serve", "preheat", "until", "into",
			"first", "then", "finally", "place", "bowl", "pan", "oven",
		),
		startPhrases: []string{"to ", "first", "you ", "the ", "heat ", "add ", "mix ", "combine ", "serve ", "step ", "ingredients"},
		mismatch:     ReasonAppearsEnglish,
	},
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Validate checks reply against the expected language.
func Validate(reply string, expected prompt.Language) Result {
	text := cases.Lower(language.Und).String(strings.TrimSpace(reply))
	words := wordPattern.FindAllString(text, -1)
	if len(words) < minWords {
		return Result{Valid: true}
	}

	want, ok := profiles[expected]
	if !ok {
		want = profiles[prompt.English]
		expected = prompt.English
	}
	other := profiles[expected.Counterpart()]

	head := truncateRunes(text, headLength)
	wantCount := countIndicators(words, want.indicators)
	otherCount := countIndicators(words, other.indicators)

	if hasAnyPrefix(head, want.startPhrases) {
		return Result{Valid: true}
	}
	if hasAnyPrefix(head, other.startPhrases) && wantCount < enoughIndicator {
		return Result{Reason: other.mismatch}
	}
	if otherCount >= strongOther && wantCount < enoughIndicator {
		return Result{Reason: other.mismatch}
	}
	// wantCount >= enoughIndicator is valid as well; it is also the default.
	return Result{Valid: true}
}

// countIndicators returns how many distinct indicator words occur in words.
func countIndicators(words []string, indicators map[string]struct{}) int {
	seen := make(map[string]struct{})
	for _, w := range words {
		if _, ok := indicators[w]; ok {
			seen[w] = struct{}{}
		}
	}
	return len(seen)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
