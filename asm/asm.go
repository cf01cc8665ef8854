// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass 6502 assembler. It translates
// assembly source text into machine code, a symbol table, and a
// bidirectional source-to-address map. Assembly is a pure function of
// its input: there is no I/O and no state shared between calls, so the
// package is safe for concurrent use and for embedding in no-OS targets.
package asm

import (
	"sort"

	"github.com/mos6502/asm65/cpu"
)

// The assembler is a state object used during the assembly of machine
// code from assembly code. All state is allocated fresh per call and
// owned exclusively by that call.
type assembler struct {
	source   string              // the source text passed to Assemble
	instSet  *cpu.InstructionSet // read-only instruction metadata
	origin   int                 // requested origin
	pc       int                 // the address cursor
	lines    []*ParsedLine       // parsed line records, in source order
	symbols  *SymbolTable        // labels and constants, one namespace
	chunks   []chunk             // emitted code, one chunk per origin
	cur      *chunk              // chunk currently being emitted into
	code     []byte              // final assembled buffer
	smap     *SourceMap          // address<->source mapping
	warnings []string            // non-fatal diagnostics
	errors   ErrorList           // errors accumulated across all phases
}

// Output is the result of a successful assembly: the emitted bytes, the
// finished symbol table in definition order, the source map, and any
// non-fatal warnings. It is produced only when zero errors were
// collected; assembly never yields a partial buffer.
type Output struct {
	Code      []byte
	Symbols   []*Symbol
	SourceMap *SourceMap
	Warnings  []string
}

// LookupSymbol returns the value of the named label or constant.
func (o *Output) LookupSymbol(name string) (uint16, bool) {
	n := normalizeName(name)
	for _, s := range o.Symbols {
		if s.Name == n {
			return uint16(s.Value), true
		}
	}
	return 0, false
}

// GetSourceLocation returns the source location that emitted the byte at
// the given address.
func (o *Output) GetSourceLocation(addr uint16) (SourceLocation, bool) {
	return o.SourceMap.GetSourceLocation(int(addr))
}

// GetAddressRange returns the address range emitted by the given source
// line.
func (o *Output) GetAddressRange(line int) (AddressRange, bool) {
	return o.SourceMap.GetAddressRange(line)
}

// Assemble assembles 6502 source text with the address cursor starting
// at 0. On failure it returns the complete ordered list of every error
// found, as an ErrorList, and no output.
func Assemble(source string) (*Output, error) {
	return assemble(source, 0)
}

// AssembleWithOrigin is Assemble with the address cursor starting at
// origin instead of 0.
func AssembleWithOrigin(source string, origin uint16) (*Output, error) {
	return assemble(source, int(origin))
}

// ValidateLabel applies the shared name-validation rule (letter start,
// alphanumeric or underscore, at most 32 characters) without requiring a
// full assemble call.
func ValidateLabel(name string) error {
	if validName(name) {
		return nil
	}
	return Error{
		Kind:    InvalidLabel,
		Line:    1,
		SpanEnd: len(name),
		Message: "invalid label '" + name + "'",
	}
}

func assemble(source string, origin int) (*Output, error) {
	a := &assembler{
		source:  source,
		instSet: cpu.GetInstructionSet(),
		origin:  origin,
		symbols: newSymbolTable(),
		smap:    newSourceMap(),
	}

	// Lex and parse every line first, then run pass 1. Both phases
	// recover locally from errors so that a single problem never masks
	// the rest. Pass 2 runs only on a clean pass 1: usage-time errors
	// against an invalid symbol table would just cascade.
	a.parseSource()
	a.runPass1()
	if len(a.errors) == 0 {
		a.runPass2()
	}

	if len(a.errors) > 0 {
		sort.SliceStable(a.errors, func(i, j int) bool {
			if a.errors[i].Line != a.errors[j].Line {
				return a.errors[i].Line < a.errors[j].Line
			}
			return a.errors[i].Column < a.errors[j].Column
		})
		return nil, a.errors
	}

	return &Output{
		Code:      a.code,
		Symbols:   a.symbols.Symbols(),
		SourceMap: a.smap,
		Warnings:  a.warnings,
	}, nil
}
