// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// A TokenKind identifies the lexical class of a token.
type TokenKind int

// All token kinds produced by the lexer.
const (
	TokenEOL TokenKind = iota
	TokenIdent
	TokenNumber
	TokenDirective
	TokenColon
	TokenEquals
	TokenHash
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenComment
	TokenIllegal
)

var tokenKindName = []string{
	"EOL",
	"IDENT",
	"NUMBER",
	"DIRECTIVE",
	":",
	"=",
	"#",
	",",
	"(",
	")",
	"COMMENT",
	"ILLEGAL",
}

func (k TokenKind) String() string {
	return tokenKindName[k]
}

// A Token is a single lexical element of a source line. Line numbers are
// 1-based and columns are 0-based byte offsets into the line. Tokens are
// immutable once produced.
type Token struct {
	Kind   TokenKind
	Text   string // raw text of the token
	Value  int    // parsed value for number tokens
	Radix  int    // 16, 10 or 2 for number tokens
	Line   int
	Column int
}

// Digits returns the number of digit characters in a number token,
// excluding any radix prefix.
func (t Token) Digits() int {
	if t.Radix == 10 {
		return len(t.Text)
	}
	return len(t.Text) - 1
}

// lexLine scans one line of source text into tokens. It never fails:
// unrecognized characters become TokenIllegal tokens, which the parser
// reports as syntax errors. The returned sequence always ends with a
// TokenEOL token.
func lexLine(text string, line int) []Token {
	var tokens []Token
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case whitespace(c):
			i++

		case comment(c):
			// A semicolon comment consumes the remainder of the line. The
			// text is kept for diagnostic context.
			tokens = append(tokens, Token{Kind: TokenComment, Text: text[i:], Line: line, Column: i})
			i = len(text)

		case alpha(c):
			j := i + 1
			for j < len(text) && identifierChar(text[j]) {
				j++
			}
			tokens = append(tokens, Token{Kind: TokenIdent, Text: text[i:j], Line: line, Column: i})
			i = j

		case c == '.':
			j := i + 1
			for j < len(text) && alpha(text[j]) {
				j++
			}
			kind := TokenDirective
			if j == i+1 {
				kind = TokenIllegal
			}
			tokens = append(tokens, Token{Kind: kind, Text: text[i:j], Line: line, Column: i})
			i = j

		case c == '$':
			tok, n := lexNumber(text[i:], line, i, 16, hexadecimal)
			tokens = append(tokens, tok)
			i += n

		case c == '%':
			tok, n := lexNumber(text[i:], line, i, 2, binarynum)
			tokens = append(tokens, tok)
			i += n

		case decimal(c):
			j := i
			v := 0
			for j < len(text) && decimal(text[j]) {
				v = clampValue(v*10 + int(text[j]-'0'))
				j++
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: text[i:j], Value: v, Radix: 10, Line: line, Column: i})
			i = j

		default:
			kind := TokenIllegal
			switch c {
			case ':':
				kind = TokenColon
			case '=':
				kind = TokenEquals
			case '#':
				kind = TokenHash
			case ',':
				kind = TokenComma
			case '(':
				kind = TokenLeftParen
			case ')':
				kind = TokenRightParen
			}
			tokens = append(tokens, Token{Kind: kind, Text: text[i : i+1], Line: line, Column: i})
			i++
		}
	}

	tokens = append(tokens, Token{Kind: TokenEOL, Line: line, Column: len(text)})
	return tokens
}

// lexNumber scans a radix-prefixed number starting at the prefix
// character. A prefix with no digits following it yields an illegal
// token.
func lexNumber(text string, line, col, radix int, digit func(c byte) bool) (Token, int) {
	j := 1
	v := 0
	for j < len(text) && digit(text[j]) {
		v = clampValue(v*radix + int(hexchar(text[j])))
		j++
	}
	if j == 1 {
		return Token{Kind: TokenIllegal, Text: text[:1], Line: line, Column: col}, 1
	}
	return Token{Kind: TokenNumber, Text: text[:j], Value: v, Radix: radix, Line: line, Column: col}, j
}

// Values larger than can ever be valid are clamped so that absurdly long
// literals cannot overflow. Range checks catch them later.
func clampValue(v int) int {
	if v > 0xffffff {
		return 0xffffff
	}
	return v
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return (c >= '0' && c <= '9')
}

func comment(c byte) bool {
	return c == ';'
}

func hexadecimal(c byte) bool {
	return decimal(c) || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

func binarynum(c byte) bool {
	return c == '0' || c == '1'
}

func identifierChar(c byte) bool {
	return alpha(c) || decimal(c) || c == '_'
}

func hexchar(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
