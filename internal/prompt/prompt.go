// Package prompt builds the instructions sent to a generation backend for one
// chat turn: the system prompt, the tagged user message and the corrective
// rewrite request used when a reply comes back in the wrong language.
package prompt

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Mode is the topical focus of an answer.
type Mode string

const (
	ModeRecipe     Mode = "recipe"
	ModeIngredient Mode = "ingredient"
	ModeTips       Mode = "tips"
	ModeMenu       Mode = "menu"
)

// Language is the language a reply must be written in.
type Language string

const (
	English    Language = "en"
	Indonesian Language = "id"
)

// ParseMode maps a raw selector to a Mode. Unknown values fall back to recipe.
func ParseMode(raw string) Mode {
	m := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := modeRules[m]; ok {
		return m
	}
	return ModeRecipe
}

// ParseLanguage accepts BCP 47 tags ("id", "id-ID", the legacy "in") and
// returns the supported language with the same base. Anything else is English.
func ParseLanguage(raw string) Language {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "indonesian", "indonesia", "bahasa":
		return Indonesian
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return English
	}
	base, _ := tag.Base()
	if base.String() == string(Indonesian) {
		return Indonesian
	}
	return English
}

// Counterpart returns the other supported language.
func (l Language) Counterpart() Language {
	if l == Indonesian {
		return English
	}
	return Indonesian
}

// Name is the English display name of the language.
func (l Language) Name() string {
	if l == Indonesian {
		return "Indonesian"
	}
	return "English"
}

type languageRule struct {
	primary    string
	reinforce  string
	validation string
	tag        string
	fixSystem  string
	fixIntro   string
	fixOutro   string
}

var languageRules = map[Language]languageRule{
	Indonesian: {
		primary:    "CRITICAL: You MUST respond ONLY in Indonesian (Bahasa Indonesia). Every word, sentence, and paragraph must be in Indonesian. Never use English or any other language.",
		reinforce:  "Jawablah HANYA dalam Bahasa Indonesia. Jangan gunakan bahasa Inggris sama sekali.",
		validation: "Before responding, verify: Is my entire answer in Indonesian? If any part is in English, rewrite it in Indonesian.",
		tag:        "[BAHASA: Indonesia - Jawab HANYA dalam Bahasa Indonesia]",
		fixSystem:  "You are a translator. Rewrite the given text ENTIRELY in Indonesian (Bahasa Indonesia). Preserve all content, structure, and meaning. Use only Indonesian words.",
		fixIntro:   "The following answer was given in English or mixed language. Rewrite it ENTIRELY in Indonesian (Bahasa Indonesia). Keep the same content and structure. Do not use any English words.",
		fixOutro:   "Jawablah ulang seluruhnya dalam Bahasa Indonesia:",
	},
	English: {
		primary:    "CRITICAL: You MUST respond ONLY in English. Every word, sentence, and paragraph must be in English. Never use Indonesian or other languages.",
		reinforce:  "Answer ONLY in English. Do not use Indonesian or any other language.",
		validation: "Before responding, verify: Is my entire answer in English? If any part is in another language, rewrite it in English.",
		tag:        "[LANGUAGE: English - Answer ONLY in English]",
		fixSystem:  "You are a translator. Rewrite the given text ENTIRELY in English. Preserve all content, structure, and meaning. Use only English words.",
		fixIntro:   "The following answer was given in Indonesian or mixed language. Rewrite it ENTIRELY in English. Keep the same content and structure. Do not use any Indonesian words.",
		fixOutro:   "Rewrite entirely in English:",
	},
}

type modeRule struct {
	focus    string
	format   string
	validate string
}

var modeRules = map[Mode]modeRule{
	ModeRecipe: {
		focus:    "Focus on recipes: provide clear step-by-step instructions, ingredient lists, and cooking times.",
		format:   "Use structured format: ingredients list, step-by-step instructions, cooking time. Be specific and actionable.",
		validate: "Your answer must directly address the recipe question with clear steps and ingredients.",
	},
	ModeIngredient: {
		focus:    "Focus on ingredients: explain substitutions, storage, selection, and nutritional aspects.",
		format:   "Use structured format: explain the ingredient, substitutions if asked, storage tips, usage. Be practical.",
		validate: "Your answer must directly address the ingredient question with useful substitutions or information.",
	},
	ModeTips: {
		focus:    "Focus on kitchen tips: techniques, equipment usage, food safety, and professional tricks.",
		format:   "Use clear bullet points or numbered tips. Be concise and actionable.",
		validate: "Your answer must provide practical kitchen tips relevant to the question.",
	},
	ModeMenu: {
		focus:    "Focus on menu planning: meal ideas, pairing suggestions, and balanced meal composition.",
		format:   "Suggest meal ideas with pairing notes. Consider balance and variety.",
		validate: "Your answer must provide menu or meal suggestions relevant to the question.",
	},
}

func ruleFor(lang Language) languageRule {
	if r, ok := languageRules[lang]; ok {
		return r
	}
	return languageRules[English]
}

func modeFor(mode Mode) (Mode, modeRule) {
	if r, ok := modeRules[mode]; ok {
		return mode, r
	}
	return ModeRecipe, modeRules[ModeRecipe]
}

// BuildSystemPrompt assembles the language, mode and content rule blocks, in
// that priority order.
func BuildSystemPrompt(mode Mode, lang Language) string {
	l := ruleFor(lang)
	mode, m := modeFor(mode)

	var b strings.Builder
	b.WriteString("You are ChefBot, a kitchen and cooking expert assistant.\n\n")

	b.WriteString("## RULE 1 - LANGUAGE (HIGHEST PRIORITY)\n")
	b.WriteString(l.primary + "\n")
	b.WriteString(l.reinforce + "\n")
	b.WriteString(l.validation + "\n\n")

	b.WriteString("## RULE 2 - MODE & FORMAT\n")
	fmt.Fprintf(&b, "Current mode: %s\n", mode)
	b.WriteString(m.focus + "\n")
	fmt.Fprintf(&b, "Format: %s\n", m.format)
	fmt.Fprintf(&b, "Validation: %s\n\n", m.validate)

	b.WriteString("## RULE 3 - CONTENT\n")
	b.WriteString("- Answer ONLY about kitchen, cooking, and food topics.\n")
	b.WriteString("- Base your answer directly on the user's question.\n")
	b.WriteString("- Be concise, practical, and encouraging.\n")
	b.WriteString("- If the question is outside cooking, politely say you only help with culinary topics.\n")
	b.WriteString("- Do not provide medical, legal, or general advice.")

	return b.String()
}

// BuildUserMessage prefixes the raw text with machine-readable language and
// mode tags.
func BuildUserMessage(text string, mode Mode, lang Language) string {
	mode, _ = modeFor(mode)
	return fmt.Sprintf("%s [MODE: %s]\n\n%s", ruleFor(lang).tag, mode, text)
}

// LanguageFix holds the two messages of a corrective rewrite request.
type LanguageFix struct {
	System string
	User   string
}

// BuildLanguageFix asks the backend to rewrite reply entirely in lang.
func BuildLanguageFix(reply string, lang Language) LanguageFix {
	l := ruleFor(lang)
	return LanguageFix{
		System: l.fixSystem,
		User:   fmt.Sprintf("%s\n\n---\n%s\n---\n\n%s", l.fixIntro, reply, l.fixOutro),
	}
}
