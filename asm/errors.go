// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "fmt"

// An ErrorKind classifies an assembly error.
type ErrorKind int

// All error kinds reported by the assembler.
const (
	SyntaxError ErrorKind = iota
	InvalidLabel
	InvalidMnemonic
	InvalidOperand
	RangeError
	InvalidDirective
	UndefinedLabel
	DuplicateLabel
	UndefinedConstant
	DuplicateConstant
	NameCollision
	InvalidConstantValue
)

var errorKindName = []string{
	"syntax error",
	"invalid label",
	"invalid mnemonic",
	"invalid operand",
	"range error",
	"invalid directive",
	"undefined label",
	"duplicate label",
	"undefined constant",
	"duplicate constant",
	"name collision",
	"invalid constant value",
}

func (k ErrorKind) String() string {
	return errorKindName[k]
}

// An Error describes a single problem found during assembly. Line numbers
// are 1-based; Column, SpanStart and SpanEnd are 0-based byte offsets into
// the source line, with SpanStart <= SpanEnd, so a caller can underline
// the offending text without re-parsing.
type Error struct {
	Kind      ErrorKind
	Line      int
	Column    int
	SpanStart int
	SpanEnd   int
	Message   string
}

func (e Error) Error() string {
	return fmt.Sprintf("line %d, col %d: %s", e.Line, e.Column+1, e.Message)
}

// An ErrorList is the complete, ordered collection of errors found during
// one assemble call.
type ErrorList []Error

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// Append an error associated with a token to the assembler's error state.
func (a *assembler) addError(tok Token, kind ErrorKind, format string, args ...any) {
	end := tok.Column + len(tok.Text)
	if end < tok.Column {
		end = tok.Column
	}
	a.errors = append(a.errors, Error{
		Kind:      kind,
		Line:      tok.Line,
		Column:    tok.Column,
		SpanStart: tok.Column,
		SpanEnd:   end,
		Message:   fmt.Sprintf(format, args...),
	})
}
