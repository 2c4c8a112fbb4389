// Package normalize provides evasion-resistant text normalization. All
// functions are pure and deterministic; Normalize is idempotent.
package normalize

import (
	"strings"
	"unicode"
)

// leetMap reverses the common digit-for-letter substitutions used to slip
// blocked terms past keyword rules.
var leetMap = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'7': 't',
	'8': 'b',
}

// typoFixes maps known evasion typos to their corrections. In Normalize a fix
// applies only next to a diet-context word; Hyper applies them everywhere.
var typoFixes = map[string]string{
	"weak":     "week",
	"wek":      "week",
	"dite":     "diet",
	"deit":     "diet",
	"mael":     "meal",
	"brekfast": "breakfast",
	"lunsh":    "lunch",
	"dinr":     "dinner",
}

// typoContext lists the neighbor words that license a scoped typo fix.
var typoContext = map[string]bool{
	"diet": true, "meal": true, "plan": true, "food": true,
	"eat": true, "fast": true, "chart": true, "menu": true,
}

// bridgeTerms are the terms checked when separators are stripped out of a
// token (m-e-a-l, m*al). The list mixes intent vocabulary and blocked
// vocabulary so both evasion styles resolve to the plain term.
var bridgeTerms = []string{
	"meal", "plan", "diet", "week", "chart", "food",
	"breakfast", "lunch", "dinner", "snack",
	"sex", "porn", "nude", "naked", "nsfw",
	"suicide", "overdose",
}

var bridgeTermSet = func() map[string]bool {
	m := make(map[string]bool, len(bridgeTerms))
	for _, t := range bridgeTerms {
		m[t] = true
	}
	return m
}()

// Normalize runs the full pipeline: lowercase, collapse 3+ repeated
// characters to 2, reverse leet substitutions, scoped typo correction, strip
// mid-word separators that bridge letters of a blocked term, and collapse
// whitespace. Total function; never fails.
func Normalize(text string) string {
	tokens := tokenize(text)
	for i, tok := range tokens {
		tokens[i] = debridge(deleet(tok))
	}
	applyTypos(tokens, true)
	return strings.Join(tokens, " ")
}

// Hyper is the hyper-normalized variant: Normalize plus unconditional typo
// correction. Used by the classifier as a third rule-matching input.
func Hyper(text string) string {
	tokens := tokenize(Normalize(text))
	applyTypos(tokens, false)
	return strings.Join(tokens, " ")
}

// Key is the canonical cache key for a query text. The embedding cache must
// key exactly the way the normalizer lowercases and trims, or hit rate
// silently degrades.
func Key(text string) string {
	return Normalize(text)
}

// tokenize lowercases, collapses repeat runs, and splits on whitespace.
func tokenize(text string) []string {
	return strings.Fields(collapseRepeats(strings.ToLower(text)))
}

// collapseRepeats reduces runs of 3 or more identical runes to 2.
func collapseRepeats(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run <= 2 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// deleet reverses digit substitutions, but only in tokens that contain at
// least one letter. Pure numbers ("150", "2026") pass through untouched.
func deleet(token string) string {
	hasLetter := false
	hasLeetDigit := false
	for _, r := range token {
		if unicode.IsLetter(r) {
			hasLetter = true
		}
		if _, ok := leetMap[r]; ok {
			hasLeetDigit = true
		}
	}
	if !hasLetter || !hasLeetDigit {
		return token
	}

	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if sub, ok := leetMap[r]; ok {
			b.WriteRune(sub)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// debridge strips non-alphanumeric separators inserted mid-word when the
// stripped token lands on (or one edit away from) a bridge term. Tokens with
// legitimate internal punctuation ("gluten-free") are left alone because the
// stripped form matches nothing.
func debridge(token string) string {
	stripped := stripSeparators(token)
	if stripped == token || len(stripped) < 3 {
		return token
	}
	if bridgeTermSet[stripped] {
		return stripped
	}
	// A separator may stand in for a substituted letter (m*al). One edit of
	// slack is enough; more would start correcting unrelated words.
	for _, term := range bridgeTerms {
		if levenshtein(stripped, term) == 1 {
			return term
		}
	}
	return token
}

func stripSeparators(token string) string {
	var b strings.Builder
	b.Grow(len(token))
	for _, r := range token {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// applyTypos corrects known evasion typos in place. When scoped is true a fix
// applies only if an adjacent token is diet-context vocabulary.
func applyTypos(tokens []string, scoped bool) {
	for i, tok := range tokens {
		fix, ok := typoFixes[tok]
		if !ok {
			continue
		}
		if scoped && !adjacentContext(tokens, i) {
			continue
		}
		tokens[i] = fix
	}
}

func adjacentContext(tokens []string, i int) bool {
	if i > 0 && typoContext[tokens[i-1]] {
		return true
	}
	if i+1 < len(tokens) && typoContext[tokens[i+1]] {
		return true
	}
	return false
}
