package dictation

import (
	"regexp"
	"strings"
)

var (
	// blankRegex matches a [bracketed] token; the first "]" closes it,
	// nested brackets are not supported.
	blankRegex = regexp.MustCompile(`\[([^\]]+)\]`)

	// wordContextRegex splits a bracketed token into (prefix)(word)(suffix):
	// the prefix/suffix are runs of whitespace and punctuation that belong to
	// the surrounding text, the word is a run of letters (accented included),
	// digits, apostrophes and hyphens.
	wordContextRegex = regexp.MustCompile(
		`^([\s,.;:!?\-—'"«»]*)([0-9a-zA-Záàâãäéèêëíìîïóòôõöúùûüç` +
			`ÁÀÂÃÄÉÈÊËÍÌÎÏÓÒÔÕÖÚÙÛÜÇ'\-]+)([\s,.;:!?\-—'"«»]*)$`)
)

// ParseText converts authored dictation text with [word] markup into the
// ordered segment list. Text between brackets becomes FixedText segments and
// each bracketed token becomes a Blank whose content is the core word;
// punctuation found inside the brackets is pushed out to the neighboring
// FixedText segments (a trailing suffix is owed to the text that follows).
// An unmatched "[" is treated as literal text. Empty input yields no segments.
func ParseText(text string) []Segment {
	var segments []Segment
	order := 1

	emit := func(kind SegmentKind, content string) {
		segments = append(segments, Segment{Order: order, Kind: kind, Content: content})
		order++
	}

	matches := blankRegex.FindAllStringSubmatchIndex(text, -1)
	lastIndex := 0

	for i, m := range matches {
		rawContent := text[m[2]:m[3]]
		prefix, word, suffix := splitWordContext(rawContent)

		// text before the blank, plus any punctuation prefix extracted from it
		before := text[lastIndex:m[0]] + prefix
		if before != "" {
			emit(FixedText, before)
		}

		// the blank keeps the word's original capitalization; grading normalizes
		emit(Blank, word)

		lastIndex = m[1]

		// a suffix belongs to the text run that follows, up to the next blank
		if suffix != "" {
			nextStart := len(text)
			if i+1 < len(matches) {
				nextStart = matches[i+1][0]
			}
			if lastIndex < len(text) {
				emit(FixedText, suffix+text[lastIndex:nextStart])
				lastIndex = nextStart
			} else {
				emit(FixedText, suffix)
			}
		}
	}

	// remaining tail after the last blank
	if lastIndex < len(text) {
		emit(FixedText, text[lastIndex:])
	}

	return segments
}

// splitWordContext extracts the core word of a bracketed token and returns the
// surrounding punctuation/whitespace as (prefix, word, suffix).
// Example: ", Gato. " -> (", ", "Gato", ". ").
// When the token holds no letters at all it falls back to plain whitespace
// trimming, treating whatever remains as the word.
func splitWordContext(content string) (prefix, word, suffix string) {
	if m := wordContextRegex.FindStringSubmatch(content); m != nil {
		return m[1], m[2], m[3]
	}

	word = strings.TrimSpace(content)
	if word == "" {
		return "", content, ""
	}
	i := strings.Index(content, word)
	return content[:i], word, content[i+len(word):]
}
