package domaingate

import (
	"chefbot/internal/prompt"

	"github.com/armon/go-radix"
)

var cookingKeywords = []string{
	// English
	"cook", "cooking", "kitchen", "recipe", "food", "ingredient", "meal", "dish",
	"bake", "fry", "boil", "grill", "roast", "sauté", "sauce", "seasoning",
	"chef", "culinary", "cuisine", "menu", "prep", "preparation", "knife",
	"oven", "stove", "pan", "pot", "baking", "pastry", "dough", "broth",
	"vegetable", "meat", "fish", "dairy", "herb", "spice", "taste", "flavor",
	"restaurant", "catering", "nutrition", "diet", "breakfast", "lunch", "dinner",
	"dessert", "appetizer", "soup", "salad", "stock", "marinate", "glaze",
	"how to", "what is", "substitute", "temperature", "timer", "storage",
	"rice", "noodle", "pasta", "bread", "flour", "sugar", "salt", "oil",
	"chicken", "egg", "butter", "milk",
	// Indonesian
	"nasi", "goreng", "masak", "memasak", "masakan", "makanan", "resep", "cara",
	"tumis", "rebus", "panggang", "kukus", "sambal", "rendang", "sate", "bakso",
	"mie", "roti", "sayur", "daging", "ayam", "ikan", "bumbu", "rempah",
	"santan", "kecap", "garam", "gula", "merica", "bawang", "cabai",
	"tempe", "tahu", "telur", "soto", "gulai", "opor", "rawon", "sop",
	"kue", "kering", "gorengan", "kerupuk", "lalapan",
	// Spanish / Portuguese
	"cocinar", "receta", "comida", "ingrediente", "arroz", "carne", "pescado",
	// French
	"cuisiner", "recette", "aliment",
}

var questionStarters = []string{
	"how", "what", "why", "when", "where", "which", "can", "could", "would",
	"bagaimana", "apa", "kenapa", "mengapa", "kapan", "dimana", "bisa", "boleh",
	"cómo", "qué", "por qué", "comment", "quoi", "wie", "was",
}

var shortGeneric = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "halo": {}, "hai": {},
	"thanks": {}, "thank you": {}, "terima kasih": {},
	"ok": {}, "ya": {}, "tidak": {}, "please": {}, "tolong": {},
	"help": {}, "bantu": {}, "what": {}, "how": {}, "apa": {}, "bagaimana": {},
	"explain": {}, "jelaskan": {},
}

// minQuestionLen is the length a starter-led question must exceed to count as on-topic.
const minQuestionLen = 10

// KeywordPolicy is permissive: cooking vocabulary, longer questions and short
// greetings are all let through.
type KeywordPolicy struct {
	starters *radix.Tree
}

// NewKeywordPolicy builds the keyword policy with its question-starter index.
func NewKeywordPolicy() *KeywordPolicy {
	tree := radix.New()
	for _, s := range questionStarters {
		tree.Insert(s, struct{}{})
	}
	return &KeywordPolicy{starters: tree}
}

// Check allows text that looks like a cooking question or a short greeting.
func (p *KeywordPolicy) Check(text string, _ prompt.Language) Decision {
	normalized := normalize(text)
	if runeLen(normalized) < 2 {
		return Decision{Message: DeniedMessage}
	}
	if containsAny(normalized, cookingKeywords) {
		return Decision{Allowed: true}
	}
	if p.startsWithQuestion(normalized) && runeLen(normalized) > minQuestionLen {
		return Decision{Allowed: true}
	}
	if _, ok := shortGeneric[normalized]; ok {
		return Decision{Allowed: true}
	}
	return Decision{Message: DeniedMessage}
}

// startsWithQuestion reports whether text is a starter, or a starter followed by a space.
func (p *KeywordPolicy) startsWithQuestion(text string) bool {
	found := false
	p.starters.WalkPath(text, func(starter string, _ interface{}) bool {
		if len(text) == len(starter) || text[len(starter)] == ' ' {
			found = true
		}
		return found
	})
	return found
}
