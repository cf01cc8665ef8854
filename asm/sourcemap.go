package asm

import (
	"encoding/json"
	"io"
	"sort"
)

// A SourceLocation identifies the source text that produced an emitted
// unit: the 1-based line, the 0-based column of its first character, and
// its length in characters.
type SourceLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Length int `json:"length"`
}

// An AddressRange is a half-open range of emitted addresses: Start is
// inclusive, End exclusive.
type AddressRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// An AddressEntry maps an emitted address range back to its source
// location.
type AddressEntry struct {
	Range AddressRange   `json:"range"`
	Loc   SourceLocation `json:"loc"`
}

// A LineEntry maps a source line to the address range it emitted.
type LineEntry struct {
	Line  int          `json:"line"`
	Range AddressRange `json:"range"`
}

// A SourceMap is a bidirectional index between emitted byte addresses and
// originating source locations. Every emitted unit has exactly one entry
// in each direction. Both lists are kept sorted by their keys and queried
// by binary search; the map is immutable once pass 2 completes.
type SourceMap struct {
	Addrs []AddressEntry `json:"addrs"`
	Lines []LineEntry    `json:"lines"`
}

func newSourceMap() *SourceMap {
	return &SourceMap{}
}

func (m *SourceMap) add(start, end int, loc SourceLocation) {
	r := AddressRange{Start: start, End: end}
	m.Addrs = append(m.Addrs, AddressEntry{Range: r, Loc: loc})
	m.Lines = append(m.Lines, LineEntry{Line: loc.Line, Range: r})
}

// Pass 2 emits in source order, which is not address order when .org
// moves the cursor backwards.
func (m *SourceMap) finalize() {
	sort.SliceStable(m.Addrs, func(i, j int) bool {
		return m.Addrs[i].Range.Start < m.Addrs[j].Range.Start
	})
	sort.SliceStable(m.Lines, func(i, j int) bool {
		return m.Lines[i].Line < m.Lines[j].Line
	})
}

// GetSourceLocation returns the source location of the unit containing
// the given address.
func (m *SourceMap) GetSourceLocation(addr int) (SourceLocation, bool) {
	i := sort.Search(len(m.Addrs), func(i int) bool {
		return m.Addrs[i].Range.Start > addr
	})
	if i == 0 {
		return SourceLocation{}, false
	}
	e := m.Addrs[i-1]
	if addr >= e.Range.End {
		return SourceLocation{}, false
	}
	return e.Loc, true
}

// GetAddressRange returns the address range emitted by the given source
// line.
func (m *SourceMap) GetAddressRange(line int) (AddressRange, bool) {
	i := sort.Search(len(m.Lines), func(i int) bool {
		return m.Lines[i].Line >= line
	})
	if i == len(m.Lines) || m.Lines[i].Line != line {
		return AddressRange{}, false
	}
	return m.Lines[i].Range, true
}

// ReadFrom reads the contents of an exported source map file.
func (m *SourceMap) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	err = json.Unmarshal(b, m)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// WriteTo writes the contents of the source map to an output stream.
func (m *SourceMap) WriteTo(w io.Writer) (n int64, err error) {
	b, err := json.Marshal(*m)
	if err != nil {
		return 0, err
	}

	nn, err := w.Write(b)
	return int64(nn), err
}
