// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"

	"github.com/mos6502/asm65/cpu"
)

// Label and constant names share one validation rule: letter start,
// alphanumeric or underscore thereafter, at most 32 characters.
const maxNameLen = 32

func normalizeName(name string) string {
	return strings.ToUpper(name)
}

func validName(name string) bool {
	if len(name) == 0 || len(name) > maxNameLen {
		return false
	}
	if !alpha(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !identifierChar(name[i]) {
			return false
		}
	}
	return true
}

// A ConstAssign is the parsed form of a NAME = VALUE line. The value
// tokens are validated in pass 1, which requires a single literal number.
type ConstAssign struct {
	Name    string // case-normalized name
	NameTok Token
	Value   []Token
}

// A DirectiveKind identifies an assembler directive.
type DirectiveKind int

const (
	DirOrigin DirectiveKind = iota
	DirByte
	DirWord
)

// A Directive is a parsed .org, .byte or .word line. Args holds the raw
// operand tokens; Values is filled in by pass 1 once the operands have
// been validated.
type Directive struct {
	Kind   DirectiveKind
	Tok    Token
	Args   []Token
	Values []int
}

// An Operand is the parameter of an instruction: a provisional addressing
// mode guess plus a single term, either a literal value or a symbol
// reference.
type Operand struct {
	Guess    cpu.Mode // addressing mode guessed from the operand shape
	Ident    string   // symbol reference; empty for literal operands
	Value    int      // literal value when Ident is empty
	ForceAbs bool     // hex literal wider than 2 digits forces absolute
	Tok      Token    // term token, used for error spans
}

func (o *Operand) setTerm(t Token) {
	o.Tok = t
	if t.Kind == TokenNumber {
		o.Value = t.Value
		o.ForceAbs = t.Radix == 16 && t.Digits() > 2
	} else {
		o.Ident = strings.ToUpper(t.Text)
	}
}

// A ParsedLine is the structured form of one source line. At most one of
// Const, Label/Mnemonic, or Directive is populated. A line that failed to
// parse is kept as a skip marker so later lines still parse and the two
// passes can ignore it.
type ParsedLine struct {
	LineNo      int
	Const       *ConstAssign
	Label       string
	LabelTok    Token
	Mnemonic    string
	MnemonicTok Token
	Operand     *Operand
	Directive   *Directive
	Comment     string
	EndCol      int // column just past the last content token
	Skip        bool
}

// lineTok picks a token suitable for reporting a line-level error.
func lineTok(ln *ParsedLine) Token {
	switch {
	case ln.Mnemonic != "":
		return ln.MnemonicTok
	case ln.Directive != nil:
		return ln.Directive.Tok
	default:
		return ln.LabelTok
	}
}

// Lex and parse every source line, populating the parsed-line list.
// Parsing never aborts: malformed lines are reported and marked as skip
// markers.
func (a *assembler) parseSource() {
	for i, text := range strings.Split(a.source, "\n") {
		a.parseLine(lexLine(strings.TrimSuffix(text, "\r"), i+1))
	}
}

// Parse a single line's tokens into at most one ParsedLine. Detection
// order matters: comment first, then constant assignment, then label,
// then directive, then instruction.
func (a *assembler) parseLine(tokens []Token) {
	ln := &ParsedLine{LineNo: tokens[0].Line}

	toks := tokens[:len(tokens)-1] // drop EOL
	if n := len(toks); n > 0 && toks[n-1].Kind == TokenComment {
		ln.Comment = toks[n-1].Text
		toks = toks[:n-1]
	}
	if len(toks) == 0 {
		// Blank or comment-only line.
		return
	}

	last := toks[len(toks)-1]
	ln.EndCol = last.Column + len(last.Text)
	defer func() { a.lines = append(a.lines, ln) }()

	for _, t := range toks {
		if t.Kind == TokenIllegal {
			a.addError(t, SyntaxError, "unexpected character '%s'", t.Text)
			ln.Skip = true
			return
		}
	}

	eq, colon := -1, -1
	for i, t := range toks {
		if t.Kind == TokenEquals && eq < 0 {
			eq = i
		}
		if t.Kind == TokenColon && colon < 0 {
			colon = i
		}
	}

	if eq >= 0 && (colon < 0 || eq < colon) {
		a.parseConstant(ln, toks, eq)
		return
	}

	if colon >= 0 {
		if colon != 1 || toks[0].Kind != TokenIdent {
			a.addError(toks[colon], SyntaxError, "unexpected ':'")
			ln.Skip = true
			return
		}
		if !validName(toks[0].Text) {
			a.addError(toks[0], InvalidLabel, "invalid label '%s'", toks[0].Text)
			ln.Skip = true
			return
		}
		ln.Label = strings.ToUpper(toks[0].Text)
		ln.LabelTok = toks[0]
		toks = toks[2:]
		if len(toks) == 0 {
			return
		}
		if toks[0].Kind == TokenDirective {
			a.addError(toks[0], SyntaxError, "directive not allowed after a label")
			ln.Skip = true
			return
		}
	}

	if toks[0].Kind == TokenDirective {
		a.parseDirective(ln, toks)
		return
	}

	if toks[0].Kind != TokenIdent {
		a.addError(toks[0], SyntaxError, "unexpected '%s'", toks[0].Text)
		ln.Skip = true
		return
	}

	ln.Mnemonic = strings.ToUpper(toks[0].Text)
	ln.MnemonicTok = toks[0]
	a.parseOperand(ln, toks[1:])
}

// Parse a NAME = VALUE constant assignment.
func (a *assembler) parseConstant(ln *ParsedLine, toks []Token, eq int) {
	if eq == 0 {
		a.addError(toks[0], SyntaxError, "constant assignment is missing a name")
		ln.Skip = true
		return
	}
	if eq != 1 || toks[0].Kind != TokenIdent {
		a.addError(toks[0], SyntaxError, "malformed constant assignment")
		ln.Skip = true
		return
	}
	if !validName(toks[0].Text) {
		a.addError(toks[0], InvalidLabel, "invalid constant name '%s'", toks[0].Text)
		ln.Skip = true
		return
	}
	value := toks[eq+1:]
	if len(value) == 0 {
		a.addError(toks[eq], SyntaxError, "constant assignment is missing a value")
		ln.Skip = true
		return
	}
	ln.Const = &ConstAssign{
		Name:    strings.ToUpper(toks[0].Text),
		NameTok: toks[0],
		Value:   value,
	}
}

// Parse a directive line. Operand values are validated in pass 1; this
// only checks the comma-separated shape.
func (a *assembler) parseDirective(ln *ParsedLine, toks []Token) {
	var kind DirectiveKind
	switch strings.ToLower(toks[0].Text) {
	case ".org":
		kind = DirOrigin
	case ".byte":
		kind = DirByte
	case ".word":
		kind = DirWord
	default:
		a.addError(toks[0], InvalidDirective, "unknown directive '%s'", toks[0].Text)
		ln.Skip = true
		return
	}

	var args []Token
	expectValue := true
	for _, t := range toks[1:] {
		if expectValue {
			if t.Kind != TokenNumber && t.Kind != TokenIdent {
				a.addError(t, InvalidDirective, "malformed operand in '%s' directive", toks[0].Text)
				ln.Skip = true
				return
			}
			args = append(args, t)
			expectValue = false
		} else {
			if t.Kind != TokenComma {
				a.addError(t, InvalidDirective, "expected ',' in '%s' directive", toks[0].Text)
				ln.Skip = true
				return
			}
			expectValue = true
		}
	}
	if expectValue {
		a.addError(toks[0], InvalidDirective, "missing operand in '%s' directive", toks[0].Text)
		ln.Skip = true
		return
	}
	if kind == DirOrigin && len(args) != 1 {
		a.addError(toks[0], InvalidDirective, "'%s' takes exactly one operand", toks[0].Text)
		ln.Skip = true
		return
	}

	ln.Directive = &Directive{Kind: kind, Tok: toks[0], Args: args}
}

// Parse the operand tokens following a mnemonic and guess the addressing
// mode from their shape. The guess is refined into a concrete mode by the
// zero-page/absolute width rule when the instruction is matched.
func (a *assembler) parseOperand(ln *ParsedLine, toks []Token) {
	o := &Operand{Guess: cpu.IMP}
	ln.Operand = o
	if len(toks) == 0 {
		return
	}

	bad := func(t Token) {
		a.addError(t, InvalidOperand, "malformed operand")
		ln.Skip = true
	}
	term := func(t Token) bool {
		return t.Kind == TokenNumber || t.Kind == TokenIdent
	}
	register := func(t Token, name string) bool {
		return t.Kind == TokenIdent && strings.EqualFold(t.Text, name)
	}

	switch {
	case toks[0].Kind == TokenHash:
		if len(toks) != 2 || !term(toks[1]) {
			bad(toks[0])
			return
		}
		o.Guess = cpu.IMM
		o.setTerm(toks[1])

	case toks[0].Kind == TokenLeftParen:
		if len(toks) < 3 || !term(toks[1]) {
			bad(toks[0])
			return
		}
		switch {
		case len(toks) == 3 && toks[2].Kind == TokenRightParen:
			o.Guess = cpu.IND
		case len(toks) == 5 && toks[2].Kind == TokenComma &&
			register(toks[3], "X") && toks[4].Kind == TokenRightParen:
			o.Guess = cpu.IDX
		case len(toks) == 5 && toks[2].Kind == TokenRightParen &&
			toks[3].Kind == TokenComma && register(toks[4], "Y"):
			o.Guess = cpu.IDY
		default:
			bad(toks[0])
			return
		}
		o.setTerm(toks[1])

	case term(toks[0]):
		switch {
		case len(toks) == 1:
			if register(toks[0], "A") {
				o.Guess = cpu.ACC
				o.Tok = toks[0]
			} else {
				o.Guess = cpu.ABS
				o.setTerm(toks[0])
			}
		case len(toks) == 3 && toks[1].Kind == TokenComma && register(toks[2], "X"):
			o.Guess = cpu.ABX
			o.setTerm(toks[0])
		case len(toks) == 3 && toks[1].Kind == TokenComma && register(toks[2], "Y"):
			o.Guess = cpu.ABY
			o.setTerm(toks[0])
		default:
			bad(toks[0])
			return
		}

	default:
		bad(toks[0])
	}
}
