package heuristics

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)), // combining marks, emoji variation selectors
			runes.Remove(runes.In(unicode.Cf)), // zero-width joiners and friends
			width.Fold,
		)
	},
}

// fold applies the normalization chain and trims surrounding space.
func fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.TrimSpace(out)
}

// words splits s into folded word tokens. Any rune that is not a letter or
// digit separates words, and a lower-to-upper case change starts a new word
// so "btnDecline" and "btn_decline" tokenize alike.
func words(s string) []string {
	var (
		out  []string
		cur  []rune
		prev rune
	)
	flush := func() {
		if len(cur) > 0 {
			if w := fold(string(cur)); w != "" {
				out = append(out, w)
			}
			cur = cur[:0]
		}
	}
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r):
			flush()
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return out
}

// term is a compiled pattern. Word terms match as a contiguous word
// sequence; symbol terms (no letters or digits) match the whole folded text.
type term struct {
	raw    string
	words  []string
	symbol string
}

func compile(raw string) (term, bool) {
	t := term{raw: raw, words: words(raw)}
	if len(t.words) == 0 {
		t.symbol = fold(raw)
		if t.symbol == "" {
			return term{}, false
		}
	}
	return t, true
}

func (t term) match(text string, textWords []string) bool {
	if t.symbol != "" {
		return fold(text) == t.symbol
	}
	n := len(t.words)
	for i := 0; i+n <= len(textWords); i++ {
		ok := true
		for j := 0; j < n; j++ {
			if textWords[i+j] != t.words[j] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func compileAll(raws []string) []term {
	out := make([]term, 0, len(raws))
	for _, r := range raws {
		if t, ok := compile(r); ok {
			out = append(out, t)
		}
	}
	return out
}

// firstMatch returns the raw form of the first term matching text.
func firstMatch(terms []term, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	ws := words(text)
	for _, t := range terms {
		if t.match(text, ws) {
			return t.raw, true
		}
	}
	return "", false
}
