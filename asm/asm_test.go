// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

var hexdigits = "0123456789ABCDEF"

func hexOf(code []byte) string {
	b := make([]byte, len(code)*2)
	for i, j := 0, 0; i < len(code); i, j = i+1, j+2 {
		v := code[i]
		b[j+0] = hexdigits[v>>4]
		b[j+1] = hexdigits[v&0x0f]
	}
	return string(b)
}

func checkASM(t *testing.T, source string, expected string) *Output {
	t.Helper()
	out, err := Assemble(source)
	if err != nil {
		t.Fatalf("unexpected errors: %v", err)
	}
	if s := hexOf(out.Code); s != expected {
		t.Errorf("code doesn't match expected")
		t.Errorf("got: %s", s)
		t.Errorf("exp: %s", expected)
	}
	return out
}

func checkErrors(t *testing.T, source string, kinds ...ErrorKind) ErrorList {
	t.Helper()
	out, err := Assemble(source)
	if err == nil {
		t.Fatalf("expected errors, got none (code %s)", hexOf(out.Code))
	}
	var list ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("expected ErrorList, got %T", err)
	}
	if out != nil {
		t.Errorf("expected nil output alongside errors")
	}
	for _, want := range kinds {
		found := false
		for _, e := range list {
			if e.Kind == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected a %s error, got %v", want, list)
		}
	}
	return list
}

func TestBasic(t *testing.T) {
	checkASM(t, "LDA #$42\nSTA $8000\nJMP $8000", "A9428D00804C0080")
}

func TestAddressingIMM(t *testing.T) {
	asm := `
	LDA #$20
	LDX #$20
	LDY #$20
	ADC #$20
	SBC #$20
	CMP #$20
	CPX #$20
	CPY #$20
	AND #$20
	ORA #$20
	EOR #$20`

	checkASM(t, asm, "A920A220A0206920E920C920E020C020292009204920")
}

func TestAddressingABS(t *testing.T) {
	asm := `
	LDA $2000
	LDX $2000
	LDY $2000
	STA $2000
	STX $2000
	STY $2000
	ADC $2000
	SBC $2000
	CMP $2000
	CPX $2000
	CPY $2000
	BIT $2000
	AND $2000
	ORA $2000
	EOR $2000
	INC $2000
	DEC $2000
	JMP $2000
	JSR $2000
	ASL $2000
	LSR $2000
	ROL $2000
	ROR $2000`

	checkASM(t, asm, "AD0020AE0020AC00208D00208E00208C00206D0020ED0020CD0020"+
		"EC0020CC00202C00202D00200D00204D0020EE0020CE00204C00202000200E0020"+
		"4E00202E00206E0020")
}

func TestAddressingZPG(t *testing.T) {
	asm := `
	LDA $20
	LDX $20
	LDY $20
	STA $20
	STX $20
	STY $20
	ADC $20
	SBC $20
	CMP $20
	CPX $20
	CPY $20
	BIT $20
	AND $20
	ORA $20
	EOR $20
	INC $20
	DEC $20
	ASL $20
	LSR $20
	ROL $20
	ROR $20`

	checkASM(t, asm, "A520A620A4208520862084206520E520C520E420C42024202520"+
		"05204520E620C6200620462026206620")
}

func TestAddressingIndexed(t *testing.T) {
	asm := `
	LDA $2000,X
	LDA $2000,Y
	LDA $20,X
	LDX $20,Y
	LDA ($20,X)
	LDA ($20),Y
	JMP ($2000)`

	checkASM(t, asm, "BD0020B90020B520B620A120B1206C0020")
}

func TestAccumulator(t *testing.T) {
	checkASM(t, "ASL\nASL A\nLSR\nROL\nROR A", "0A0A4A2A6A")
}

func TestImmediateFormats(t *testing.T) {
	// $FF, 255 and %11111111 are the same value in three radixes.
	checkASM(t, "LDA #$FF\nLDA #255\nLDA #%11111111", "A9FFA9FFA9FF")
}

func TestZeroPageDisambiguation(t *testing.T) {
	// A 2-digit hex operand selects zero-page; 4 digits force absolute.
	checkASM(t, "STA $80", "8580")
	checkASM(t, "STA $0080", "8D8000")
}

func TestOnlyAbsoluteForm(t *testing.T) {
	// JMP has no zero-page form; a byte-sized operand still assembles
	// using the only mode the mnemonic supports.
	checkASM(t, "JMP $80", "4C8000")
}

func TestLabelOperandsEncodeAbsolute(t *testing.T) {
	// Labels always encode with the absolute form, even when the label's
	// address would fit in a byte. Pass 1 sizes forward references before
	// their values are known, so label widths never depend on the value.
	checkASM(t, "START:\nLDA START", "AD0000")
}

func TestConstantZeroPage(t *testing.T) {
	// A constant's resolved value follows the same width rule a literal
	// does.
	checkASM(t, "ZP = $80\nSTA ZP", "8580")
	checkASM(t, "ADDR = $8000\nSTA ADDR", "8D0080")
}

func TestLabelScenario(t *testing.T) {
	asm := `.org $8000
START:
  LDX #$00
LOOP:
  INX
  CPX #$10
  BNE LOOP
  JMP START`

	out := checkASM(t, asm, "A200E8E010D0FB4C0080")

	if v, ok := out.LookupSymbol("START"); !ok || v != 0x8000 {
		t.Errorf("START = $%04X, want $8000", v)
	}
	if v, ok := out.LookupSymbol("LOOP"); !ok || v != 0x8002 {
		t.Errorf("LOOP = $%04X, want $8002", v)
	}
	if len(out.Code) != 10 {
		t.Errorf("len(code) = %d, want 10", len(out.Code))
	}
}

func TestForwardLabelReference(t *testing.T) {
	asm := `
	JMP DONE
	NOP
DONE:
	RTS`

	checkASM(t, asm, "4C0400EA60")
}

func TestBranchBackward(t *testing.T) {
	checkASM(t, "LOOP:\nINX\nBNE LOOP", "E8D0FD")
}

func TestBranchRange(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("BEQ FAR\n")
	for i := 0; i < 128; i++ {
		sb.WriteString(".byte 0\n")
	}
	sb.WriteString("FAR:\nNOP\n")
	checkErrors(t, sb.String(), RangeError)
}

func TestBranchRangeLimit(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("BEQ FAR\n")
	for i := 0; i < 127; i++ {
		sb.WriteString(".byte 0\n")
	}
	sb.WriteString("FAR:\nNOP\n")
	out, err := Assemble(sb.String())
	if err != nil {
		t.Fatalf("offset 127 should assemble: %v", err)
	}
	if out.Code[1] != 0x7f {
		t.Errorf("offset byte = $%02X, want $7F", out.Code[1])
	}
}

func TestConstantForwardReferenceFails(t *testing.T) {
	list := checkErrors(t, "LDA #VAL\nVAL = 5", UndefinedConstant)
	if list[0].Line != 1 {
		t.Errorf("error line = %d, want 1", list[0].Line)
	}
}

func TestUndefinedLabel(t *testing.T) {
	checkErrors(t, "JMP NOWHERE", UndefinedLabel)
}

func TestNamespaceUnification(t *testing.T) {
	checkErrors(t, "FOO = 1\nFOO:", NameCollision)
	checkErrors(t, "FOO:\nFOO = 1", NameCollision)
}

func TestDuplicates(t *testing.T) {
	checkErrors(t, "FOO:\nFOO:", DuplicateLabel)
	checkErrors(t, "FOO = 1\nFOO = 2", DuplicateConstant)
}

func TestInvalidMnemonic(t *testing.T) {
	checkErrors(t, "LDQ #$10", InvalidMnemonic)
}

func TestInvalidAddressingMode(t *testing.T) {
	// STA has no immediate form.
	checkErrors(t, "STA #$10", InvalidOperand)
}

func TestInvalidConstantValue(t *testing.T) {
	checkErrors(t, "FOO = BAR", InvalidConstantValue)
	checkErrors(t, "FOO = $10000", InvalidConstantValue)
}

func TestImmediateRange(t *testing.T) {
	checkErrors(t, "LDA #$100", RangeError)
}

func TestInvalidLabelName(t *testing.T) {
	checkErrors(t, strings.Repeat("A", 33)+":", InvalidLabel)
}

func TestSyntaxErrorRecovery(t *testing.T) {
	// A lexical error on one line must not mask errors on later lines.
	list := checkErrors(t, "LDA @$12\nLDQ #$10", SyntaxError, InvalidMnemonic)
	if len(list) < 2 {
		t.Errorf("expected at least 2 errors, got %d", len(list))
	}
}

func TestErrorCompleteness(t *testing.T) {
	asm := `LDQ #$10
FOO = BAR
STA #$10
JMP NOWHERE`

	list := checkErrors(t, asm)
	if len(list) < 3 {
		t.Errorf("expected at least 3 errors, got %d: %v", len(list), list)
	}
	for i := 1; i < len(list); i++ {
		if list[i].Line < list[i-1].Line {
			t.Errorf("errors not ordered by line: %v", list)
		}
	}
}

func TestPass2GatedOnPass1(t *testing.T) {
	// The duplicate label is a pass-1 error, so the undefined label on
	// line 3 (a pass-2 error) must not be reported.
	list := checkErrors(t, "FOO:\nFOO:\nJMP NOWHERE", DuplicateLabel)
	for _, e := range list {
		if e.Kind == UndefinedLabel {
			t.Errorf("pass 2 ran despite pass 1 errors: %v", list)
		}
	}
}

func TestErrorSpans(t *testing.T) {
	list := checkErrors(t, "JMP NOWHERE", UndefinedLabel)
	e := list[0]
	if e.Line != 1 || e.Column != 4 {
		t.Errorf("error at line %d col %d, want line 1 col 4", e.Line, e.Column)
	}
	if e.SpanStart != 4 || e.SpanEnd != 11 {
		t.Errorf("span %d..%d, want 4..11", e.SpanStart, e.SpanEnd)
	}
	if e.Message == "" {
		t.Errorf("empty error message")
	}
}

func TestDirectiveBytes(t *testing.T) {
	checkASM(t, ".byte $01, $FF, %1010, 16", "01FF0A10")
}

func TestDirectiveWords(t *testing.T) {
	checkASM(t, ".word $1234, $FF, 256", "3412FF000001")
}

func TestDirectiveConstants(t *testing.T) {
	checkASM(t, "SIZE = $10\n.byte SIZE, SIZE", "1010")
}

func TestDirectiveRange(t *testing.T) {
	checkErrors(t, ".byte 256", RangeError)
	checkErrors(t, ".word $10000", RangeError)
}

func TestDirectiveLabelRejected(t *testing.T) {
	checkErrors(t, "FOO:\n.word FOO", InvalidDirective)
}

func TestUnknownDirective(t *testing.T) {
	checkErrors(t, ".align 4", InvalidDirective)
}

func TestOriginDefault(t *testing.T) {
	out := checkASM(t, "START:\nJMP START", "4C0000")
	if v, _ := out.LookupSymbol("START"); v != 0 {
		t.Errorf("default origin = $%04X, want 0", v)
	}
}

func TestAssembleWithOrigin(t *testing.T) {
	out, err := AssembleWithOrigin("START:\nJMP START", 0xC000)
	if err != nil {
		t.Fatal(err)
	}
	if hexOf(out.Code) != "4C00C0" {
		t.Errorf("code = %s, want 4C00C0", hexOf(out.Code))
	}
}

func TestMultipleOrigins(t *testing.T) {
	asm := `.org $1000
.byte 1, 2
.org $2000
.byte 3`

	out := checkASM(t, asm, "010203")
	if len(out.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", out.Warnings)
	}
}

func TestOriginOutOfOrder(t *testing.T) {
	// Segments are emitted from the lowest to the highest written
	// address regardless of source order.
	asm := `.org $2000
.byte 2
.org $1000
.byte 1`

	checkASM(t, asm, "0102")
}

func TestOverlappingSegmentsWarn(t *testing.T) {
	asm := `.org $1000
.byte 1, 2, 3
.org $1001
.byte 9`

	out := checkASM(t, asm, "01020309")
	if len(out.Warnings) == 0 {
		t.Errorf("expected an overlap warning")
	}
}

func TestComments(t *testing.T) {
	asm := `; leading comment
	LDA #$01 ; load
	RTS      ; done`

	checkASM(t, asm, "A90160")
}

func TestCaseInsensitivity(t *testing.T) {
	checkASM(t, "start:\nlda #$01\njmp START", "A9014C0000")
}

func TestEmptySource(t *testing.T) {
	out, err := Assemble("")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Code) != 0 {
		t.Errorf("expected no code")
	}
	if len(out.Warnings) == 0 {
		t.Errorf("expected a no-bytes warning")
	}
}

func TestDeterminism(t *testing.T) {
	asm := `.org $8000
START:
	LDX #$00
LOOP:
	INX
	BNE LOOP
	JMP START`

	a, err1 := Assemble(asm)
	b, err2 := Assemble(asm)
	if err1 != nil || err2 != nil {
		t.Fatal(err1, err2)
	}
	if !bytes.Equal(a.Code, b.Code) {
		t.Errorf("two assemblies differ: %s vs %s", hexOf(a.Code), hexOf(b.Code))
	}
}

func TestSourceMapQueries(t *testing.T) {
	asm := `.org $8000
LDA #$42
STA $9000`

	out := checkASM(t, asm, "A9428D0090")

	loc, ok := out.GetSourceLocation(0x8000)
	if !ok || loc.Line != 2 {
		t.Errorf("location of $8000 = %+v, want line 2", loc)
	}
	loc, ok = out.GetSourceLocation(0x8003)
	if !ok || loc.Line != 3 {
		t.Errorf("location of $8003 = %+v, want line 3", loc)
	}
	if _, ok = out.GetSourceLocation(0x8005); ok {
		t.Errorf("expected no location past the end of code")
	}

	r, ok := out.GetAddressRange(3)
	if !ok || r.Start != 0x8002 || r.End != 0x8005 {
		t.Errorf("range of line 3 = %+v, want $8002..$8005", r)
	}
	if _, ok = out.GetAddressRange(1); ok {
		t.Errorf(".org emits nothing and should have no range")
	}
}

func TestSymbolOrder(t *testing.T) {
	out := checkASM(t, "A = 1\nB:\nC = 3\nRTS", "60")
	names := make([]string, 0, len(out.Symbols))
	for _, s := range out.Symbols {
		names = append(names, s.Name)
	}
	want := []string{"A", "B", "C"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("symbol order %v, want %v", names, want)
		}
	}
}

func TestValidateLabel(t *testing.T) {
	valid := []string{"A", "loop", "Done_2", strings.Repeat("Z", 32)}
	for _, name := range valid {
		if err := ValidateLabel(name); err != nil {
			t.Errorf("ValidateLabel(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "1abc", "_abc", "has space", "dash-ed", strings.Repeat("Z", 33)}
	for _, name := range invalid {
		err := ValidateLabel(name)
		if err == nil {
			t.Errorf("ValidateLabel(%q) = nil, want error", name)
			continue
		}
		var e Error
		if !errors.As(err, &e) || e.Kind != InvalidLabel {
			t.Errorf("ValidateLabel(%q) = %v, want InvalidLabel", name, err)
		}
	}
}
