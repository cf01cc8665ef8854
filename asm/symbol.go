// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "fmt"

// A SymbolKind distinguishes address labels from literal constants. The
// two kinds share one namespace but obey different reference rules:
// labels may be forward-referenced, constants may not.
type SymbolKind int

const (
	SymbolLabel SymbolKind = iota
	SymbolConstant
)

func (k SymbolKind) String() string {
	if k == SymbolLabel {
		return "label"
	}
	return "constant"
}

// A Symbol is a named value: an address for labels, a literal for
// constants. Symbols are created once and never mutated or removed.
type Symbol struct {
	Name  string     // case-normalized to upper case
	Value int        // 0..65535
	Kind  SymbolKind // label or constant
	Line  int        // 1-based line of the definition
}

// A DefineError reports a rejected symbol definition, carrying the error
// kind to report and the previously defined symbol it conflicts with.
type DefineError struct {
	Kind ErrorKind
	Prev *Symbol
}

func (e *DefineError) Error() string {
	return fmt.Sprintf("%s: conflicts with %s '%s' defined on line %d",
		e.Kind, e.Prev.Kind, e.Prev.Name, e.Prev.Line)
}

// A SymbolTable holds all labels and constants in a single flat
// namespace. Collisions are detected eagerly at definition time.
type SymbolTable struct {
	syms  map[string]*Symbol
	order []*Symbol
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{syms: make(map[string]*Symbol)}
}

// Define adds a symbol to the table. It fails with DuplicateLabel or
// DuplicateConstant when a symbol of the same kind already has the name,
// or with NameCollision when a symbol of the other kind does.
func (st *SymbolTable) Define(name string, value int, kind SymbolKind, line int) error {
	if prev, found := st.syms[name]; found {
		var ek ErrorKind
		switch {
		case prev.Kind != kind:
			ek = NameCollision
		case kind == SymbolLabel:
			ek = DuplicateLabel
		default:
			ek = DuplicateConstant
		}
		return &DefineError{Kind: ek, Prev: prev}
	}

	sym := &Symbol{Name: name, Value: value, Kind: kind, Line: line}
	st.syms[name] = sym
	st.order = append(st.order, sym)
	return nil
}

// Lookup returns the symbol with the given name, if defined.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	sym, ok := st.syms[name]
	return sym, ok
}

// Symbols returns all symbols in definition order.
func (st *SymbolTable) Symbols() []*Symbol {
	return st.order
}
