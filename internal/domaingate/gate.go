// Package domaingate decides whether a user message is about cooking, food or
// the kitchen. All checks are lexical; they are cheap, deterministic and
// deliberately imprecise.
package domaingate

import (
	"strings"
	"unicode/utf8"

	"chefbot/internal/prompt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DeniedMessage is returned by the keyword policy for out-of-scope input.
const DeniedMessage = "I'm ChefBot, and I only answer questions about the kitchen and professional cooking. Please ask me something culinary—recipes, techniques, ingredients, or kitchen tips—and I'll be happy to help!"

// Decision is the outcome of a domain check.
type Decision struct {
	Allowed bool
	Message string
}

// Policy classifies a message as in or out of scope. lang selects the
// language of the refusal for policies that localize it.
type Policy interface {
	Check(text string, lang prompt.Language) Decision
}

// PolicyName identifies a Policy implementation in configuration.
type PolicyName string

const (
	PolicyKeyword   PolicyName = "keyword"
	PolicySmallTalk PolicyName = "smalltalk"
)

// New returns the policy registered under name, defaulting to the keyword policy.
func New(name string) Policy {
	switch PolicyName(strings.ToLower(strings.TrimSpace(name))) {
	case PolicySmallTalk:
		return NewSmallTalkPolicy()
	case PolicyKeyword:
		return NewKeywordPolicy()
	default:
		return NewKeywordPolicy()
	}
}

// RedirectMessage is the localized one-line scope reminder.
func RedirectMessage(lang prompt.Language) string {
	if lang == prompt.Indonesian {
		return "Saya ChefBot, asisten dapur Anda. Saya hanya membantu soal masakan—resep, bahan, teknik. Apa yang ingin Anda tanya?"
	}
	return "I'm ChefBot, your kitchen assistant. I only help with cooking—recipes, ingredients, techniques. What would you like to know?"
}

// normalize trims and lowercases with Unicode rules, so "CÓMO" matches "cómo".
// A Caser keeps state, so one is built per call.
func normalize(text string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(text))
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
