package domaingate

import (
	"regexp"
	"strings"

	"chefbot/internal/prompt"
)

var smallTalkStart = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|halo|hai|yo|hii|helloo?)\s*[!?.,]*$`),
	regexp.MustCompile(`(?i)^how\s+(are|is|r)\s+(you|it|u)\b`),
	regexp.MustCompile(`(?i)^how'?s\s+(it\s+)?going`),
	regexp.MustCompile(`(?i)^what'?s\s+up`),
	regexp.MustCompile(`(?i)^apa\s+kabar`),
	regexp.MustCompile(`(?i)^good\s+(morning|afternoon|evening|night|day)\b`),
	regexp.MustCompile(`(?i)^(thanks|thank\s+you|thx|ty)\s*[!?.,]*$`),
	regexp.MustCompile(`(?i)^(bye|goodbye|see\s+you|good\s+bye)\s*[!?.,]*$`),
	regexp.MustCompile(`(?i)^(ok|okay|yes|no|yep|nope)\s*[!?.,]*$`),
	regexp.MustCompile(`(?i)^nice\s+to\s+(meet|talk)\s+(you|u)`),
	regexp.MustCompile(`(?i)^how\s+about\s+you\s*[!?.,]*$`),
	regexp.MustCompile(`(?i)^(what|how)\s+(about|are)\s+you\s*[!?.,]*$`),
	regexp.MustCompile(`(?i)^how\s+do\s+you\s+do\b`),
}

var smallTalkAnywhere = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bhow\s+are\s+you\b`),
	regexp.MustCompile(`(?i)\bhow\s+about\s+you\b`),
	regexp.MustCompile(`(?i)\bhow'?s\s+it\s+going\b`),
	regexp.MustCompile(`(?i)\bwhat'?s\s+up\b`),
	regexp.MustCompile(`(?i)\bapa\s+kabar\b`),
	regexp.MustCompile(`(?i)\b(hi|hello|hey)\s*[,!?]?\s*(how|what)`),
	regexp.MustCompile(`(?i)\bhow\s+are\s+things\b`),
	regexp.MustCompile(`(?i)\bhow\s+have\s+you\s+been\b`),
	regexp.MustCompile(`(?i)\bwhat'?s\s+new\b`),
}

var smallTalkCookingWords = []string{
	"recipe", "cook", "food", "ingredient", "kitchen", "meal", "dish", "masak", "resep",
	"bahan", "makanan", "dapur", "menu", "substitute", "storage", "temperature", "baking",
	"sauce", "soup", "salad", "rice", "noodle", "meat", "vegetable", "spice", "herb",
	"make", "bake", "fry", "boil", "grill", "chop", "pasta", "chicken", "beef", "fish",
	"egg", "flour", "sugar", "salt", "oil",
}

const (
	smallTalkScanLimit = 80
	smallTalkMinLen    = 25
)

// SmallTalkPolicy is restrictive: greetings and chit-chat are redirected, and
// short messages need a cooking word to pass.
type SmallTalkPolicy struct{}

// NewSmallTalkPolicy returns the restrictive policy.
func NewSmallTalkPolicy() *SmallTalkPolicy {
	return &SmallTalkPolicy{}
}

// Check redirects chit-chat in lang and lets cooking questions through.
func (p *SmallTalkPolicy) Check(text string, lang prompt.Language) Decision {
	raw := strings.TrimSpace(text)
	lower := normalize(raw)
	deny := Decision{Message: RedirectMessage(lang)}

	for _, re := range smallTalkStart {
		if re.MatchString(raw) {
			return deny
		}
	}

	hasCooking := containsAny(lower, smallTalkCookingWords)
	if len(raw) < smallTalkScanLimit && !hasCooking {
		for _, re := range smallTalkAnywhere {
			if re.MatchString(raw) {
				return deny
			}
		}
	}
	if !hasCooking && runeLen(lower) < smallTalkMinLen {
		return deny
	}
	return Decision{Allowed: true}
}
