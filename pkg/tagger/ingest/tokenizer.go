package ingest

import (
	"unicode"
	"unicode/utf8"
)

// DefaultBoundary is the punctuation stripped from the edges of a word:
// full stop, comma, parentheses and straight or curly quotation marks.
const DefaultBoundary = ".,()\"'‘’“”"

// Token is a word of the source text together with its location.
// Start and End are code point offsets, End exclusive. StartByte and EndByte
// address the same range in the UTF-8 encoding of the text.
type Token struct {
	Text      string
	Start     int
	End       int
	Position  int
	StartByte int
	EndByte   int
}

// Tokenizer splits text into position-tracked word tokens.
// A Tokenizer is immutable and may be shared between goroutines.
type Tokenizer struct {
	boundary map[rune]struct{}
}

// NewTokenizer creates a tokenizer that strips the runes of boundary from the
// edges of each word. An empty boundary falls back to DefaultBoundary.
func NewTokenizer(boundary string) *Tokenizer {
	if boundary == "" {
		boundary = DefaultBoundary
	}
	set := make(map[rune]struct{}, utf8.RuneCountInString(boundary))
	for _, r := range boundary {
		set[r] = struct{}{}
	}
	return &Tokenizer{boundary: set}
}

// Tokenize splits text on whitespace and trims boundary punctuation from each
// chunk. Offsets always refer to the untouched input, so whitespace of any
// width and stripped punctuation are transparent to callers.
func (t *Tokenizer) Tokenize(text string) []Token {
	var tokens []Token

	chunkStart, chunkRune := -1, 0
	runeIdx := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if chunkStart >= 0 {
				tokens = t.appendChunk(tokens, text, chunkStart, i, chunkRune, runeIdx)
				chunkStart = -1
			}
		} else if chunkStart < 0 {
			chunkStart, chunkRune = i, runeIdx
		}
		runeIdx++
	}

	// Don't forget the last chunk
	if chunkStart >= 0 {
		tokens = t.appendChunk(tokens, text, chunkStart, len(text), chunkRune, runeIdx)
	}

	return tokens
}

// appendChunk trims the chunk text[sb:eb] (code points sr..er) and appends the
// remainder as a token, if anything is left.
func (t *Tokenizer) appendChunk(tokens []Token, text string, sb, eb, sr, er int) []Token {
	for sb < eb {
		trimmed := false

		r, size := utf8.DecodeRuneInString(text[sb:eb])
		if t.isBoundary(r) && !(r == '(' && opensGroup(text[sb:eb])) {
			sb += size
			sr++
			trimmed = true
		}
		if sb >= eb {
			break
		}

		r, size = utf8.DecodeLastRuneInString(text[sb:eb])
		if t.isBoundary(r) && !(r == ')' && closesGroup(text[sb:eb])) {
			eb -= size
			er--
			trimmed = true
		}

		if !trimmed {
			break
		}
	}

	if sb >= eb {
		return tokens
	}

	return append(tokens, Token{
		Text:      text[sb:eb],
		Start:     sr,
		End:       er,
		Position:  len(tokens),
		StartByte: sb,
		EndByte:   eb,
	})
}

func (t *Tokenizer) isBoundary(r rune) bool {
	_, ok := t.boundary[r]
	return ok
}

// opensGroup reports whether the leading '(' of s is closed inside the word
// rather than by its final rune, as in "(CH3)2N".
func opensGroup(s string) bool {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i+1 < len(s)
			}
		}
	}
	return false
}

// closesGroup reports whether the trailing ')' of s matches a '(' that is not
// the first rune, as in "Na(+)".
func closesGroup(s string) bool {
	depth := 0
	for i := len(s); i > 0; {
		r, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
		switch r {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i > 0
			}
		}
	}
	return false
}

// Words returns the token texts of s in order. It is the splitter used to
// normalize vocabulary phrases the same way as annotated text.
func (t *Tokenizer) Words(s string) []string {
	tokens := t.Tokenize(s)
	if len(tokens) == 0 {
		return nil
	}
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = tok.Text
	}
	return words
}
