package language

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Code is one of the languages the assistant answers in.
type Code string

const (
	English Code = "en"
	French  Code = "fr"
	Arabic  Code = "ar"
)

// Default is used when nothing more specific is detected.
const Default = English

// Supported lists the codes in display order.
func Supported() []Code {
	return []Code{English, French, Arabic}
}

// Parse normalises a UI language tag such as "fr-FR" or "AR".
func Parse(raw string) (Code, bool) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	switch Code(tag) {
	case English, French, Arabic:
		return Code(tag), true
	default:
		return Default, false
	}
}

// frenchMarkers are common French greetings, politeness words and question
// words. Matching is case-insensitive on whole words only.
var frenchMarkers = []string{
	"bonjour", "bonsoir", "salut", "coucou", "comment", "merci",
	"s'il vous plaît", "s'il vous plait", "s'il te plaît", "s'il te plait",
	"oui", "non", "quel", "quelle", "quels", "quelles", "combien", "pourquoi",
	"prix", "mariage",
}

// Detect classifies text by script first, then by French marker words.
func Detect(text string) Code {
	if containsArabic(text) {
		return Arabic
	}
	if containsMarker(normalize(text), frenchMarkers) {
		return French
	}
	return Default
}

func containsArabic(text string) bool {
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	lowered := strings.ToLower(text)
	return strings.NewReplacer("’", "'", "ʼ", "'").Replace(lowered)
}

func containsMarker(text string, markers []string) bool {
	for _, marker := range markers {
		if containsWord(text, marker) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in text bounded by non-letters on
// both sides. regexp's \b is ASCII-only and would miss "plaît".
func containsWord(text, word string) bool {
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], word)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(word)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
