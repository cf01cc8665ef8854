// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6502 instruction set disassembler. It is a
// stateless table lookup over the shared instruction metadata and cannot
// fail: illegal opcodes decode as .byte directives.
package disasm

import (
	"fmt"

	"github.com/mos6502/asm65/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"#$%s",    // IMM
	"",        // IMP
	"$%s",     // REL
	"$%s",     // ZPG
	"$%s,X",   // ZPX
	"$%s,Y",   // ZPY
	"$%s",     // ABS
	"$%s,X",   // ABX
	"$%s,Y",   // ABY
	"($%s)",   // IND
	"($%s,X)", // IDX
	"($%s),Y", // IDY
	"A",       // ACC
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the byte slice,
// interpreted as a little-endian value.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble decodes the instruction at offset within code, where code
// is the image loaded at address origin. It returns the text of the
// disassembled instruction and the offset of the following instruction.
func Disassemble(code []byte, offset int, origin uint16) (line string, next int) {
	set := cpu.GetInstructionSet()

	opcode := code[offset]
	inst := set.Lookup(opcode)
	if inst == nil || offset+int(inst.Length) > len(code) {
		return fmt.Sprintf(".byte $%02X", opcode), offset + 1
	}

	next = offset + int(inst.Length)
	operand := code[offset+1 : next]

	if inst.Mode == cpu.REL {
		// Convert the relative offset to an absolute address.
		addr := int(origin) + next + int(operand[0])
		if operand[0] > 0x7f {
			addr -= 256
		}
		operand = []byte{byte(addr), byte(addr >> 8)}
	}

	switch inst.Mode {
	case cpu.IMP:
		line = inst.Name
	case cpu.ACC:
		line = inst.Name + " A"
	default:
		line = fmt.Sprintf("%s "+modeFormat[inst.Mode], inst.Name, hexString(operand))
	}
	return line, next
}

// DisassembleAll decodes an entire code image loaded at origin, one
// instruction per returned line.
func DisassembleAll(code []byte, origin uint16) []string {
	var lines []string
	for offset := 0; offset < len(code); {
		var line string
		line, offset = Disassemble(code, offset, origin)
		lines = append(lines, line)
	}
	return lines
}
