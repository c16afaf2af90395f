// Package smartpunct turns ASCII punctuation into its typographic Unicode
// counterparts: dashes, ellipses, and direction-aware curly quotes.
//
// The quote rules follow the SmartyPants heuristics. Go's regexp package has
// no lookaround, so rules that depend on the following character are written
// as small rune scanners rather than patterns.
package smartpunct

import (
	"regexp"
	"unicode"
)

// Typographic replacements.
const (
	EmDash        = "—"
	EnDash        = "–"
	Ellipsis      = "…"
	LeftSingle    = '‘'
	RightSingle   = '’'
	LeftDouble    = '“'
	RightDouble   = '”'
	runeEmDash    = '—'
	runeEnDash    = '–'
	asciiSingle   = '\''
	asciiDouble   = '"'
	asciiPunctSet = "!\"#$%'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Precompiled patterns for the fixed-width rules.
var (
	emDashPattern   = regexp.MustCompile(`---`)
	enDashPattern   = regexp.MustCompile(`--`)
	ellipsisPattern = regexp.MustCompile(`\.\.\.`)
)

// Normalize applies Dashes, Ellipses, and Quotes in that order.
func Normalize(text string) string {
	text = Dashes(text)
	text = Ellipses(text)
	return Quotes(text)
}

// Dashes converts "---" to an em dash and "--" to an en dash.
// The em dash runs first, otherwise every "---" would become an en dash
// followed by a stray hyphen.
func Dashes(text string) string {
	text = emDashPattern.ReplaceAllLiteralString(text, EmDash)
	return enDashPattern.ReplaceAllLiteralString(text, EnDash)
}

// Ellipses converts "..." to a horizontal ellipsis.
func Ellipses(text string) string {
	return ellipsisPattern.ReplaceAllLiteralString(text, Ellipsis)
}

// Quotes converts straight single and double quotes into curly quotes.
func Quotes(text string) string {
	if !containsQuote(text) {
		return text
	}

	rs := []rune(text)
	for _, rule := range quoteRules {
		rs = substitute(rs, rule)
	}
	return string(rs)
}

// matcher inspects rs at position i. On a match it returns the number of
// runes consumed and their replacement.
type matcher func(rs []rune, i int) (n int, repl []rune, ok bool)

// quoteRules is ordered; later rules only see quotes earlier rules left alone.
var quoteRules = []matcher{
	leadingCloser(asciiSingle, RightSingle),
	leadingCloser(asciiDouble, RightDouble),
	nestedOpeners(asciiDouble, asciiSingle, LeftDouble, LeftSingle),
	nestedOpeners(asciiSingle, asciiDouble, LeftSingle, LeftDouble),
	decadeAbbreviation,
	openerAfterSpaceOrDash(asciiSingle, LeftSingle),
	singleCloserAfterWord,
	singleCloserBeforeSpace,
	remaining(asciiSingle, LeftSingle),
	openerAfterSpaceOrDash(asciiDouble, LeftDouble),
	doubleCloserBeforeSpace,
	doubleCloserAfterWord,
	remaining(asciiDouble, LeftDouble),
}

// substitute applies m left to right without overlapping matches, the way a
// global regexp replacement would.
func substitute(rs []rune, m matcher) []rune {
	out := make([]rune, 0, len(rs))
	for i := 0; i < len(rs); {
		if n, repl, ok := m(rs, i); ok {
			out = append(out, repl...)
			i += n
			continue
		}
		out = append(out, rs[i])
		i++
	}
	return out
}

// leadingCloser closes a quote at the very start of the text when it is
// followed by punctuation that is not itself followed by a word character.
// This catches possessives and contractions split off by inline markup.
func leadingCloser(quote, closer rune) matcher {
	return func(rs []rune, i int) (int, []rune, bool) {
		if i != 0 || rs[0] != quote || len(rs) < 2 || !isASCIIPunct(rs[1]) {
			return 0, nil, false
		}
		if len(rs) > 2 && isWord(rs[2]) {
			return 0, nil, false
		}
		return 1, []rune{closer}, true
	}
}

// nestedOpeners handles a quote immediately followed by the other quote kind
// and a word character, as in: He said, "'Quoted' words."
func nestedOpeners(first, second, firstOpen, secondOpen rune) matcher {
	return func(rs []rune, i int) (int, []rune, bool) {
		if rs[i] != first || at(rs, i+1) != second || !isWord(at(rs, i+2)) {
			return 0, nil, false
		}
		return 2, []rune{firstOpen, secondOpen}, true
	}
}

// decadeAbbreviation keeps the apostrophe in "the '90s" as a closing quote.
func decadeAbbreviation(rs []rune, i int) (int, []rune, bool) {
	if rs[i] != ' ' || at(rs, i+1) != asciiSingle {
		return 0, nil, false
	}
	if !unicode.IsDigit(at(rs, i+2)) || !unicode.IsDigit(at(rs, i+3)) || at(rs, i+4) != 's' {
		return 0, nil, false
	}
	return 2, []rune{' ', RightSingle}, true
}

// openerAfterSpaceOrDash opens a quote preceded by whitespace or a dash and
// followed by a word character.
func openerAfterSpaceOrDash(quote, opener rune) matcher {
	return func(rs []rune, i int) (int, []rune, bool) {
		prev := rs[i]
		if !unicode.IsSpace(prev) && prev != runeEnDash && prev != runeEmDash {
			return 0, nil, false
		}
		if at(rs, i+1) != quote || !isWord(at(rs, i+2)) {
			return 0, nil, false
		}
		return 2, []rune{prev, opener}, true
	}
}

// singleCloserAfterWord closes a single quote that follows a closing-context
// character and is not followed by whitespace, a possessive "s", or a digit.
func singleCloserAfterWord(rs []rune, i int) (int, []rune, bool) {
	prev := rs[i]
	if !isCloseContext(prev) || at(rs, i+1) != asciiSingle {
		return 0, nil, false
	}
	next := at(rs, i+2)
	if unicode.IsSpace(next) || unicode.IsDigit(next) || isPossessiveS(rs, i+2) {
		return 0, nil, false
	}
	return 2, []rune{prev, RightSingle}, true
}

// singleCloserBeforeSpace closes any single quote followed by whitespace or a
// possessive "s".
func singleCloserBeforeSpace(rs []rune, i int) (int, []rune, bool) {
	if rs[i] != asciiSingle {
		return 0, nil, false
	}
	if !unicode.IsSpace(at(rs, i+1)) && !isPossessiveS(rs, i+1) {
		return 0, nil, false
	}
	return 1, []rune{RightSingle}, true
}

// doubleCloserBeforeSpace closes a double quote followed by whitespace.
func doubleCloserBeforeSpace(rs []rune, i int) (int, []rune, bool) {
	if rs[i] != asciiDouble || !unicode.IsSpace(at(rs, i+1)) {
		return 0, nil, false
	}
	return 1, []rune{RightDouble}, true
}

// doubleCloserAfterWord closes a double quote preceded by a closing-context
// character.
func doubleCloserAfterWord(rs []rune, i int) (int, []rune, bool) {
	prev := rs[i]
	if !isCloseContext(prev) || at(rs, i+1) != asciiDouble {
		return 0, nil, false
	}
	return 2, []rune{prev, RightDouble}, true
}

// remaining treats every quote still unmatched as an opening quote.
func remaining(quote, opener rune) matcher {
	return func(rs []rune, i int) (int, []rune, bool) {
		if rs[i] != quote {
			return 0, nil, false
		}
		return 1, []rune{opener}, true
	}
}

// at returns rs[i], or 0 past the end of the text.
func at(rs []rune, i int) rune {
	if i < 0 || i >= len(rs) {
		return 0
	}
	return rs[i]
}

// isWord matches the \w character class.
func isWord(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// isCloseContext reports whether a quote after r should close: anything but
// whitespace, an opening bracket, or a hyphen.
func isCloseContext(r rune) bool {
	switch r {
	case 0, ' ', '\t', '\r', '\n', '[', '{', '(', '-':
		return false
	}
	return true
}

// isPossessiveS reports whether rs[i] is an "s" ending a word.
func isPossessiveS(rs []rune, i int) bool {
	return at(rs, i) == 's' && !isWord(at(rs, i+1))
}

func isASCIIPunct(r rune) bool {
	for _, p := range asciiPunctSet {
		if r == p {
			return true
		}
	}
	return false
}

func containsQuote(text string) bool {
	for _, r := range text {
		if r == asciiSingle || r == asciiDouble {
			return true
		}
	}
	return false
}
