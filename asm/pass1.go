// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/mos6502/asm65/cpu"

// Pass 1 walks the parsed lines in source order, defining constants
// immediately, assigning each label the current address, and advancing
// the address cursor by the size of each instruction or directive.
// Definition-time errors are recorded without halting the pass.
func (a *assembler) runPass1() {
	a.pc = a.origin
	for _, ln := range a.lines {
		if ln.Skip {
			continue
		}
		if ln.Const != nil {
			a.defineConstant(ln)
			continue
		}
		// A label marks the address of whatever follows it on the line,
		// so it is defined before the cursor advances.
		if ln.Label != "" {
			a.defineSymbol(ln.LabelTok, ln.Label, a.pc, SymbolLabel, ln.LineNo)
		}
		switch {
		case ln.Directive != nil:
			a.sizeDirective(ln)
		case ln.Mnemonic != "":
			a.sizeInstruction(ln)
		}
		if a.pc > 0x10000 {
			a.addError(lineTok(ln), RangeError, "address cursor advanced past $FFFF")
			a.pc = a.origin
		}
	}
}

// Define a constant. Constants must be literal numbers in the range
// 0..65535; they never reference symbols and never support forward
// references.
func (a *assembler) defineConstant(ln *ParsedLine) {
	c := ln.Const
	if len(c.Value) != 1 || c.Value[0].Kind != TokenNumber {
		a.addError(c.Value[0], InvalidConstantValue,
			"constant '%s' must be a literal number", c.Name)
		return
	}
	v := c.Value[0].Value
	if v > 0xffff {
		a.addError(c.Value[0], InvalidConstantValue,
			"constant '%s' value $%X out of range 0..$FFFF", c.Name, v)
		return
	}
	a.defineSymbol(c.NameTok, c.Name, v, SymbolConstant, ln.LineNo)
}

func (a *assembler) defineSymbol(tok Token, name string, value int, kind SymbolKind, line int) {
	err := a.symbols.Define(name, value, kind, line)
	if de, ok := err.(*DefineError); ok {
		a.addError(tok, de.Kind, "%s '%s' already defined as a %s on line %d",
			kind, name, de.Prev.Kind, de.Prev.Line)
	}
}

// Resolve a directive's operands and advance the cursor by its size.
// Values are validated here so that pass 2 can emit them blindly.
func (a *assembler) sizeDirective(ln *ParsedLine) {
	d := ln.Directive
	d.Values = d.Values[:0]

	limit := 0xff
	if d.Kind != DirByte {
		limit = 0xffff
	}

	for _, arg := range d.Args {
		v, ok := a.directiveValue(arg)
		if !ok {
			continue
		}
		if v > limit {
			a.addError(arg, RangeError, "value $%X out of range 0..$%X", v, limit)
			continue
		}
		d.Values = append(d.Values, v)
	}
	if len(d.Values) != len(d.Args) {
		ln.Skip = true
		return
	}

	switch d.Kind {
	case DirOrigin:
		a.pc = d.Values[0]
	case DirByte:
		a.pc += len(d.Values)
	case DirWord:
		a.pc += 2 * len(d.Values)
	}
}

// A directive operand is a literal number or a previously defined
// constant. Labels are not accepted: their values may not be known yet.
func (a *assembler) directiveValue(arg Token) (int, bool) {
	if arg.Kind == TokenNumber {
		return arg.Value, true
	}
	sym, ok := a.symbols.Lookup(normalizeName(arg.Text))
	if !ok {
		a.addError(arg, UndefinedConstant, "undefined constant '%s'", arg.Text)
		return 0, false
	}
	if sym.Kind != SymbolConstant {
		a.addError(arg, InvalidDirective, "label '%s' not allowed in a directive", arg.Text)
		return 0, false
	}
	return sym.Value, true
}

// Determine an instruction's size from the metadata table and a
// provisional addressing-mode guess, then advance the cursor. Operand
// identifiers need not resolve yet; only the byte length matters here.
func (a *assembler) sizeInstruction(ln *ParsedLine) {
	variants := a.instSet.GetInstructions(ln.Mnemonic)
	if variants == nil {
		a.addError(ln.MnemonicTok, InvalidMnemonic, "invalid mnemonic '%s'", ln.Mnemonic)
		ln.Skip = true
		return
	}
	inst := a.matchInstruction(ln, variants)
	if inst == nil {
		a.addError(ln.MnemonicTok, InvalidOperand,
			"invalid addressing mode for mnemonic '%s'", ln.Mnemonic)
		ln.Skip = true
		return
	}
	a.pc += int(inst.Length)
}

// operandWidth returns the operand's encoded size in bytes, applying the
// zero-page/absolute disambiguation rule. The decision depends only on
// the operand text and on constants defined earlier in the source, so
// pass 1 and pass 2 always agree. Labels always measure two bytes.
func (a *assembler) operandWidth(ln *ParsedLine) int {
	o := ln.Operand
	switch {
	case o.ForceAbs:
		return 2
	case o.Ident != "":
		sym, ok := a.symbols.Lookup(o.Ident)
		if ok && sym.Kind == SymbolConstant && sym.Line <= ln.LineNo && sym.Value <= 0xff {
			return 1
		}
		return 2
	case o.Value <= 0xff:
		return 1
	default:
		return 2
	}
}

// Given a line's mnemonic variants and operand, select the best
// instruction match. Prefer the shortest encoding.
func (a *assembler) matchInstruction(ln *ParsedLine, variants []*cpu.Instruction) *cpu.Instruction {
	width := a.operandWidth(ln)
	guess := ln.Operand.Guess

	bestqual := 3
	var found *cpu.Instruction
	for _, inst := range variants {
		match, qual := false, 0
		switch {
		case inst.Mode == cpu.IMP:
			match, qual = guess == cpu.IMP, 0
		case inst.Mode == cpu.ACC:
			match, qual = guess == cpu.IMP || guess == cpu.ACC, 0
		case guess == cpu.IMP || guess == cpu.ACC:
			match = false
		case inst.Mode == cpu.IMM:
			match, qual = guess == cpu.IMM, 1
		case inst.Mode == cpu.REL:
			match, qual = guess == cpu.ABS, 1
		case inst.Mode == cpu.ZPG:
			match, qual = guess == cpu.ABS && width == 1, 1
		case inst.Mode == cpu.ZPX:
			match, qual = guess == cpu.ABX && width == 1, 1
		case inst.Mode == cpu.ZPY:
			match, qual = guess == cpu.ABY && width == 1, 1
		case inst.Mode == cpu.ABS:
			match, qual = guess == cpu.ABS, 2
		case inst.Mode == cpu.ABX:
			match, qual = guess == cpu.ABX, 2
		case inst.Mode == cpu.ABY:
			match, qual = guess == cpu.ABY, 2
		case inst.Mode == cpu.IND:
			match, qual = guess == cpu.IND, 2
		case inst.Mode == cpu.IDX:
			match, qual = guess == cpu.IDX && width == 1, 1
		case inst.Mode == cpu.IDY:
			match, qual = guess == cpu.IDY && width == 1, 1
		}
		if match && qual < bestqual {
			bestqual, found = qual, inst
		}
	}
	return found
}
