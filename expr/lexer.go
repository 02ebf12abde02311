package expr

import (
	"strconv"
	"unicode/utf8"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokName
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPow // "^" or "**"
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokIllegal
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNumber:
		return "number"
	case tokName:
		return "name"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokPow:
		return "'**'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokDot:
		return "'.'"
	}
	return "illegal token"
}

type token struct {
	kind tokenKind
	pos  int    // byte offset in source.
	text string // literal text of token.
	num  float64
}

// lexer splits a formula into tokens. It is single pass and never backtracks
// more than one rune.
type lexer struct {
	src string
	pos int
}

func (l *lexer) next() token {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: l.pos}
	}
	start := l.pos
	c := l.src[l.pos]
	single := func(k tokenKind) token {
		l.pos++
		return token{kind: k, pos: start, text: l.src[start:l.pos]}
	}
	switch {
	case c == '+':
		return single(tokPlus)
	case c == '-':
		return single(tokMinus)
	case c == '*':
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == '*' {
			l.pos += 2
			return token{kind: tokPow, pos: start, text: "**"}
		}
		return single(tokStar)
	case c == '/':
		return single(tokSlash)
	case c == '^':
		return single(tokPow)
	case c == '(':
		return single(tokLParen)
	case c == ')':
		return single(tokRParen)
	case c == ',':
		return single(tokComma)
	case c == '.':
		if l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			return l.number()
		}
		return single(tokDot)
	case isDigit(c):
		return l.number()
	case isLetter(c):
		for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
			l.pos++
		}
		return token{kind: tokName, pos: start, text: l.src[start:l.pos]}
	}
	_, width := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += width
	return token{kind: tokIllegal, pos: start, text: l.src[start:l.pos]}
}

// number scans a decimal literal with optional fraction and exponent.
func (l *lexer) number() token {
	start := l.pos
	l.digits()
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		l.digits()
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.digits()
		} else {
			l.pos = save // "2e" is the number 2 followed by the name e.
		}
	}
	text := l.src[start:l.pos]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{kind: tokIllegal, pos: start, text: text}
	}
	return token{kind: tokNumber, pos: start, text: text, num: v}
}

func (l *lexer) digits() {
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}
