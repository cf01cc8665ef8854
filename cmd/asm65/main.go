// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// The asm65 command assembles 6502 source files into flat binary images
// with JSON source maps, and disassembles binary images back into
// source.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/mos6502/asm65/asm"
	"github.com/mos6502/asm65/disasm"
)

var (
	flagOrigin  string
	flagOut     string
	flagMap     string
	flagListing bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "asm65 <source.asm>",
	Short:         "asm65 assembles 6502 assembly source into a flat binary",
	Args:          cobra.ExactArgs(1),
	RunE:          runAssemble,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <image.bin>",
	Short: "disassemble a binary image",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func init() {
	rootCmd.Flags().StringVar(&flagOrigin, "origin", "0", "starting address ($hex or decimal)")
	rootCmd.Flags().StringVar(&flagOut, "out", "", "binary output path (default: source with .bin)")
	rootCmd.Flags().StringVar(&flagMap, "map", "", "source map output path (default: source with .map)")
	rootCmd.Flags().BoolVar(&flagListing, "listing", false, "print an address/bytes/source listing")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "dump the symbol table and source map")

	disasmCmd.Flags().StringVar(&flagOrigin, "origin", "0", "load address of the image ($hex or decimal)")

	rootCmd.AddCommand(disasmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func parseOrigin(s string) (uint16, error) {
	s = strings.TrimSpace(s)
	var v uint64
	var err error
	if strings.HasPrefix(s, "$") {
		v, err = strconv.ParseUint(s[1:], 16, 16)
	} else {
		v, err = strconv.ParseUint(s, 0, 16)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid origin '%s'", s)
	}
	return uint16(v), nil
}

func runAssemble(cmd *cobra.Command, args []string) error {
	path := args[0]
	origin, err := parseOrigin(flagOrigin)
	if err != nil {
		return err
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	out, err := asm.AssembleWithOrigin(string(src), origin)
	if err != nil {
		var list asm.ErrorList
		if errors.As(err, &list) {
			printErrors(path, string(src), list)
			return fmt.Errorf("assembly failed with %d error(s)", len(list))
		}
		return err
	}

	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if flagVerbose {
		pp.Fprintf(os.Stderr, "symbols: %v\n", out.Symbols)
		pp.Fprintf(os.Stderr, "source map: %v\n", out.SourceMap)
	}
	if flagListing {
		printListing(out, string(src))
	}

	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]

	binPath := flagOut
	if binPath == "" {
		binPath = prefix + ".bin"
	}
	if err := os.WriteFile(binPath, out.Code, 0600); err != nil {
		return err
	}

	mapPath := flagMap
	if mapPath == "" {
		mapPath = prefix + ".map"
	}
	mapFile, err := os.OpenFile(mapPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer mapFile.Close()
	if _, err := out.SourceMap.WriteTo(mapFile); err != nil {
		return err
	}

	fmt.Printf("Assembled '%s' to produce '%s' and '%s'.\n",
		filepath.Base(path),
		filepath.Base(binPath),
		filepath.Base(mapPath))
	return nil
}

// Print each error the way an editor would: the diagnostic, the source
// line, and a caret under the offending span.
func printErrors(path, source string, list asm.ErrorList) {
	lines := strings.Split(source, "\n")
	for _, e := range list {
		fmt.Fprintf(os.Stderr, "Error in '%s' line %d, col %d: %s\n",
			path, e.Line, e.Column+1, e.Message)
		if e.Line-1 < len(lines) {
			fmt.Fprintln(os.Stderr, lines[e.Line-1])
			fmt.Fprintf(os.Stderr, "%s^\n", strings.Repeat("-", e.Column))
		}
	}
}

// Print an address/bytes/source listing using the source map. The output
// buffer concatenates emitted chunks in address order, so walking the
// sorted map entries and accumulating their lengths recovers each unit's
// offset into the buffer.
func printListing(out *asm.Output, source string) {
	lines := strings.Split(source, "\n")
	offset := 0
	for _, e := range out.SourceMap.Addrs {
		n := e.Range.End - e.Range.Start
		bytes := out.Code[offset : offset+n]
		offset += n

		text := ""
		if e.Loc.Line-1 < len(lines) {
			text = strings.TrimRight(lines[e.Loc.Line-1], " \t")
		}
		fmt.Printf("%04X-   %-12s %s\n", e.Range.Start, hexString(bytes), text)
	}
}

var hex = "0123456789ABCDEF"

// Return a space-separated hexadecimal representation of a byte slice.
func hexString(b []byte) string {
	if len(b) < 1 {
		return ""
	}

	s := make([]byte, len(b)*3-1)
	i, j := 0, 0
	for n := len(b) - 1; i < n; i, j = i+1, j+3 {
		s[j+0] = hex[(b[i] >> 4)]
		s[j+1] = hex[(b[i] & 0x0f)]
		s[j+2] = ' '
	}
	s[j+0] = hex[(b[i] >> 4)]
	s[j+1] = hex[(b[i] & 0x0f)]
	return string(s)
}

func runDisasm(cmd *cobra.Command, args []string) error {
	origin, err := parseOrigin(flagOrigin)
	if err != nil {
		return err
	}

	code, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	if len(code) > 0x10000 {
		return fmt.Errorf("image exceeds 64K")
	}

	addr := int(origin)
	for offset := 0; offset < len(code); {
		var line string
		start := offset
		line, offset = disasm.Disassemble(code, offset, origin)
		fmt.Printf("%04X-   %-10s %s\n",
			addr+start, hexString(code[start:offset]), line)
	}
	return nil
}
