// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"sort"

	"github.com/mos6502/asm65/cpu"
)

// A chunk is a run of contiguous bytes starting at a fixed address. Each
// .org directive begins a new chunk.
type chunk struct {
	start int
	data  []byte
}

// Pass 2 walks the parsed lines again with a completed symbol table,
// resolves operand identifiers, applies the addressing-mode rule,
// validates ranges, and emits bytes. It only runs after a clean pass 1.
func (a *assembler) runPass2() {
	a.pc = a.origin
	a.startChunk(a.pc)

	for _, ln := range a.lines {
		if ln.Skip || ln.Const != nil {
			continue
		}
		switch {
		case ln.Directive != nil:
			a.applyDirective(ln)
		case ln.Mnemonic != "":
			a.encodeInstruction(ln)
		}
	}

	a.finishOutput()
}

func (a *assembler) startChunk(addr int) {
	a.chunks = append(a.chunks, chunk{start: addr})
	a.cur = &a.chunks[len(a.chunks)-1]
}

func (a *assembler) emit(b ...byte) {
	a.cur.data = append(a.cur.data, b...)
	a.pc += len(b)
}

// Apply a directive: .org resets the cursor and opens a new chunk;
// .byte and .word emit the values already validated in pass 1.
func (a *assembler) applyDirective(ln *ParsedLine) {
	d := ln.Directive
	start := a.pc
	switch d.Kind {
	case DirOrigin:
		a.pc = d.Values[0]
		a.startChunk(a.pc)
		return
	case DirByte:
		for _, v := range d.Values {
			a.emit(byte(v))
		}
	case DirWord:
		for _, v := range d.Values {
			a.emit(byte(v), byte(v>>8))
		}
	}
	a.mapLine(ln, start, a.pc)
}

// Encode one instruction: resolve the operand, match the addressing
// mode, validate ranges, and emit the opcode plus 0-2 operand bytes,
// little-endian for two-byte operands.
func (a *assembler) encodeInstruction(ln *ParsedLine) {
	o := ln.Operand

	value := o.Value
	if o.Ident != "" {
		sym, ok := a.symbols.Lookup(o.Ident)
		if !ok {
			a.addError(o.Tok, UndefinedLabel, "undefined label '%s'", o.Ident)
			return
		}
		if sym.Kind == SymbolConstant && sym.Line > ln.LineNo {
			a.addError(o.Tok, UndefinedConstant,
				"constant '%s' used before its definition on line %d", o.Ident, sym.Line)
			return
		}
		value = sym.Value
	}

	inst := a.matchInstruction(ln, a.instSet.GetInstructions(ln.Mnemonic))
	start := a.pc

	switch {
	case inst.Mode == cpu.REL:
		// Signed offset from the address of the following instruction.
		offset := value - (start + int(inst.Length))
		if offset < -128 || offset > 127 {
			a.addError(o.Tok, RangeError,
				"branch target out of range: offset %d not in -128..127", offset)
			return
		}
		a.emit(inst.Opcode, byte(offset))

	case inst.Mode == cpu.IMM:
		if value > 0xff {
			a.addError(o.Tok, RangeError, "immediate value $%X out of range 0..$FF", value)
			return
		}
		a.emit(inst.Opcode, byte(value))

	case inst.Length == 1:
		a.emit(inst.Opcode)

	case inst.Length == 2:
		a.emit(inst.Opcode, byte(value))

	default:
		if value > 0xffff {
			a.addError(o.Tok, RangeError, "operand value $%X out of range 0..$FFFF", value)
			return
		}
		a.emit(inst.Opcode, byte(value), byte(value>>8))
	}

	a.mapLine(ln, start, a.pc)
}

// Record a source-map entry for an emitted unit.
func (a *assembler) mapLine(ln *ParsedLine, start, end int) {
	tok := lineTok(ln)
	a.smap.add(start, end, SourceLocation{
		Line:   ln.LineNo,
		Column: tok.Column,
		Length: ln.EndCol - tok.Column,
	})
}

// Assemble the final byte buffer from the emitted chunks, ordered from
// the lowest to the highest written address with gaps collapsed.
// Overlapping segments are a warning, not an error.
func (a *assembler) finishOutput() {
	var chunks []chunk
	for _, c := range a.chunks {
		if len(c.data) > 0 {
			chunks = append(chunks, c)
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].start < chunks[j].start
	})

	a.code = a.code[:0]
	for i, c := range chunks {
		if i > 0 {
			prev := chunks[i-1]
			if prev.start+len(prev.data) > c.start {
				a.warnings = append(a.warnings, fmt.Sprintf(
					"segment at $%04X overlaps segment at $%04X", c.start, prev.start))
			}
		}
		a.code = append(a.code, c.data...)
	}
	if len(a.code) == 0 {
		a.warnings = append(a.warnings, "no bytes emitted")
	}

	a.smap.finalize()
}
