package dictation

import (
	"math"
	"strings"
)

// accentFold maps each accented Latin vowel (and ç) to its base letter.
// Comparisons that must ignore accentuation run on the folded forms.
var accentFold = buildAccentFold(
	"áàâãäéèêëíìîïóòôõöúùûüçÁÀÂÃÄÉÈÊËÍÌÎÏÓÒÔÕÖÚÙÛÜÇ",
	"aaaaaeeeeiiiiooooouuuucAAAAAEEEEIIIIOOOOOUUUUC",
)

func buildAccentFold(accented, plain string) map[rune]rune {
	acc, pln := []rune(accented), []rune(plain)
	m := make(map[rune]rune, len(acc))
	for i, r := range acc {
		m[r] = pln[i]
	}
	return m
}

// Normalize trims surrounding whitespace and folds to lower case;
// two answers are considered equal when their normalized forms match.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StripAccents replaces each accented Latin letter (and ç) with its base
// letter; every other character passes through unchanged.
func StripAccents(s string) string {
	return strings.Map(func(r rune) rune {
		if base, ok := accentFold[r]; ok {
			return base
		}
		return r
	}, s)
}

// Classify compares a submitted answer against the expected word and reports
// whether it is correct and, when it is not, which orthographic error was
// made. The rules form a strict, ordered cascade: the first satisfied rule
// wins, and last-letter rules always run before first-letter rules, so a word
// wrong at both ends is classified by its last-letter error.
func Classify(expected, submitted string) (bool, ErrorKind) {
	subNorm := Normalize(submitted)
	expNorm := Normalize(expected)

	if subNorm == expNorm {
		return true, KindNone
	}

	// an empty answer is an omission, before anything else
	if subNorm == "" {
		return false, KindOmission
	}

	sub := []rune(StripAccents(subNorm))
	exp := []rune(StripAccents(expNorm))

	// last-letter shapes, only for words of at least 3 letters
	if len(sub) >= 3 && len(exp) >= 3 {
		if kind, ok := classifyEnd(sub, exp, subNorm, expNorm); ok {
			return false, kind
		}
	}

	if kind, ok := classifyStart(sub, exp); ok {
		return false, kind
	}

	// equal once accents are stripped: the only mistake is accentuation
	if runesEqual(sub, exp) {
		return false, KindAccent
	}

	// same length with letters differing anywhere
	if len(sub) == len(exp) {
		var diffs int
		for i := range sub {
			if sub[i] != exp[i] {
				diffs++
			}
		}
		if diffs > 0 {
			return false, KindSpelling
		}
	}

	// close in length and sharing most letters: still a spelling error
	lengthDiff := len(sub) - len(exp)
	if lengthDiff < 0 {
		lengthDiff = -lengthDiff
	}
	if lengthDiff <= 2 {
		shorter := len(sub)
		if len(exp) < shorter {
			shorter = len(exp)
		}
		if shorter > 0 && float64(sharedRuneCount(sub, exp))/float64(shorter) >= 0.7 {
			return false, KindSpelling
		}
	}

	// too different to classify precisely
	return false, KindOmission
}

// classifyEnd applies the last-letter rules, in priority order.
// sub/exp are accent-stripped; subNorm/expNorm keep their accents so that the
// s/ç confusion can still be told apart after folding.
func classifyEnd(sub, exp []rune, subNorm, expNorm string) (ErrorKind, bool) {
	lastSub, lastExp := sub[len(sub)-1], exp[len(exp)-1]
	penSub, penExp := sub[len(sub)-2], exp[len(exp)-2]

	// last two letters swapped (bola > boal)
	if len(sub) == len(exp) &&
		lastSub == penExp && penSub == lastExp &&
		runesEqual(sub[:len(sub)-2], exp[:len(exp)-2]) {
		return KindEndInversion, true
	}

	// last letter dropped (gato > gat)
	if len(sub) == len(exp)-1 && runesEqual(sub, exp[:len(exp)-1]) {
		return KindEndDeletion, true
	}

	// s doubled into ss, or ss collapsed into s (três > tress)
	if len(sub) == len(exp)+1 &&
		lastSub == 's' && penSub == 's' && lastExp == 's' &&
		runesEqual(sub[:len(sub)-2], exp[:len(exp)-1]) {
		return KindEndConfusionSSS, true
	}
	if len(sub) == len(exp)-1 &&
		lastSub == 's' && lastExp == 's' && penExp == 's' &&
		runesEqual(sub[:len(sub)-1], exp[:len(exp)-2]) {
		return KindEndConfusionSSS, true
	}

	// spurious trailing h (alô > aloh); must run before the generic insertion
	if len(sub) == len(exp)+1 && lastSub == 'h' &&
		runesEqual(sub[:len(sub)-1], exp) {
		return KindEndSpuriousH, true
	}

	// extra letter appended (casa > casaa)
	if len(sub) == len(exp)+1 && runesEqual(exp, sub[:len(sub)-1]) {
		return KindEndInsertion, true
	}

	// last letter replaced (bom > bon)
	if len(sub) == len(exp) && lastSub != lastExp &&
		runesEqual(sub[:len(sub)-1], exp[:len(exp)-1]) {
		// sound-alike confusions are told apart on the unfolded letters,
		// since ç folds to c
		subR, expR := []rune(subNorm), []rune(expNorm)
		a, b := subR[len(subR)-1], expR[len(expR)-1]
		switch {
		case (a == 's' && b == 'z') || (a == 'z' && b == 's'):
			return KindEndConfusionSZ, true
		case (a == 's' && b == 'x') || (a == 'x' && b == 's'):
			return KindEndConfusionSX, true
		case (a == 's' && b == 'ç') || (a == 'ç' && b == 's'):
			return KindEndConfusionSC, true
		}
		return KindEndSubstitution, true
	}

	return "", false
}

// classifyStart applies the first-letter rules, in priority order,
// on the accent-stripped forms.
func classifyStart(sub, exp []rune) (ErrorKind, bool) {
	// missing initial h (homem > omem)
	if len(exp) > 0 && exp[0] == 'h' &&
		len(sub) > 0 && sub[0] != 'h' &&
		runesEqual(exp[1:], sub) {
		return KindStartIrregularH, true
	}

	// spurious initial h (ontem > hontem)
	if len(sub) > 0 && sub[0] == 'h' &&
		len(exp) > 0 && exp[0] != 'h' &&
		runesEqual(sub[1:], exp) {
		return KindStartIrregularH, true
	}

	// s/c swapped before e/i (cidade > sidade)
	if len(sub) > 1 && len(exp) > 1 {
		firstSub, firstExp := sub[0], exp[0]
		secondSub, secondExp := sub[1], exp[1]
		if (firstSub == 's' || firstSub == 'c') &&
			(firstExp == 's' || firstExp == 'c') &&
			firstSub != firstExp &&
			(secondSub == 'e' || secondSub == 'i') &&
			secondSub == secondExp &&
			runesEqual(sub[1:], exp[1:]) {
			return KindStartContextualSC, true
		}
	}

	// first letter dropped (teste > este)
	if len(sub) == len(exp)-1 && runesEqual(exp[1:], sub) {
		return KindStartDeletion, true
	}

	// extra letter prepended (teste > oteste)
	if len(sub) == len(exp)+1 && runesEqual(sub[1:], exp) {
		return KindStartInsertion, true
	}

	// first letter replaced (teste > deste)
	if len(sub) == len(exp) && len(sub) > 0 &&
		sub[0] != exp[0] && runesEqual(sub[1:], exp[1:]) {
		return KindStartSubstitution, true
	}

	return "", false
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sharedRuneCount counts the distinct runes of a that also occur in b.
func sharedRuneCount(a, b []rune) int {
	inB := make(map[rune]bool, len(b))
	for _, r := range b {
		inB[r] = true
	}
	seen := make(map[rune]bool, len(a))
	var count int
	for _, r := range a {
		if inB[r] && !seen[r] {
			seen[r] = true
			count++
		}
	}
	return count
}

// Round2 rounds a score to 2 decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
