package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Рекламные хвосты, которые hosted-провайдер дописывает к ответам.
var footerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)Want (?:the )?best roleplay experience\?.*`),
	regexp.MustCompile(`(?is)Try our premium.*?experience.*`),
}

// Ответы-любезности вместо кулинарного ответа.
var greetingReplyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^hello!?\s*(i'?m|i am)\s+(doing\s+)?well`),
	regexp.MustCompile(`(?i)^hi!?\s*(i'?m|i am)\s+(doing\s+)?well`),
	regexp.MustCompile(`(?i)^hey!?\s*(i'?m|i am)\s+(doing\s+)?well`),
	regexp.MustCompile(`(?i)i'?m\s+(doing\s+)?well,?\s*thank\s+you`),
	regexp.MustCompile(`(?i)how\s+about\s+you\s*[!?.,]*\s*$`),
	regexp.MustCompile(`(?i)^(hello|hi|hey)!?\s*[!?.,]*\s*$`),
	regexp.MustCompile(`(?i)^(i'?m|i am)\s+(fine|good|great|well|doing\s+well)`),
	regexp.MustCompile(`(?i)thank\s+you\s+for\s+asking`),
	regexp.MustCompile(`(?i)nice\s+to\s+(meet|talk)\s+you`),
}

const greetingReplyMaxLen = 200

// stripFooters удаляет рекламные хвосты и обрезает пробелы.
func stripFooters(text string) string {
	for _, re := range footerPatterns {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// isGreetingReply распознаёт короткий ответ-приветствие.
func isGreetingReply(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || utf8.RuneCountInString(t) > greetingReplyMaxLen {
		return false
	}
	for _, re := range greetingReplyPatterns {
		if re.MatchString(t) {
			return true
		}
	}
	return false
}
