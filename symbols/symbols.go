// This file is part of forth-vm-sim - https://github.com/Jokymon/forth-vm-sim
//
// Copyright 2022 The forth-vm-sim Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package symbols implements the debug symbol table produced by the
// assembler: named address ranges used to attribute addresses to words.
//
// Symbol files are headerless CSV files with one "name,start,end" row per
// symbol. Addresses are decimal or 0x prefixed hexadecimal. A range includes
// its start address and excludes its end address.
package symbols

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Symbol is a named address range [Start, End).
type Symbol struct {
	Name  string
	Start uint32
	End   uint32
}

// Contains returns true if addr is in [s.Start, s.End).
func (s Symbol) Contains(addr uint32) bool {
	return addr >= s.Start && addr < s.End
}

// Table is an ordered collection of symbols. The zero value is an empty
// table ready to use.
type Table struct {
	syms []Symbol
}

// New returns a table holding the given symbols.
func New(syms ...Symbol) *Table {
	return &Table{syms: append([]Symbol(nil), syms...)}
}

// Add appends s to the table.
func (t *Table) Add(s Symbol) {
	t.syms = append(t.syms, s)
}

// Len returns the number of symbols in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.syms)
}

// Symbols returns the symbols in the table, in insertion order.
func (t *Table) Symbols() []Symbol {
	if t == nil {
		return nil
	}
	return append([]Symbol(nil), t.syms...)
}

// At returns all symbols whose range contains addr, in insertion order. A nil
// table has no symbols.
func (t *Table) At(addr uint32) []Symbol {
	if t == nil {
		return nil
	}
	var r []Symbol
	for _, s := range t.syms {
		if s.Contains(addr) {
			r = append(r, s)
		}
	}
	return r
}

// Names returns the names of the symbols At addr joined with sep.
func (t *Table) Names(addr uint32, sep string) string {
	syms := t.At(addr)
	names := make([]string, len(syms))
	for i, s := range syms {
		names[i] = s.Name
	}
	return strings.Join(names, sep)
}

// Lookup returns the first symbol named name.
func (t *Table) Lookup(name string) (Symbol, bool) {
	if t != nil {
		for _, s := range t.syms {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Symbol{}, false
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	return uint32(v), err
}

// Read reads a symbol table in CSV format from r.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	t := new(Table)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, "symbols")
		}
		line, _ := cr.FieldPos(0)
		start, err := parseAddr(rec[1])
		if err != nil {
			return nil, errors.Wrapf(err, "symbols: line %d: start address", line)
		}
		end, err := parseAddr(rec[2])
		if err != nil {
			return nil, errors.Wrapf(err, "symbols: line %d: end address", line)
		}
		if end < start {
			return nil, errors.Errorf("symbols: line %d: %s ends before it starts", line, rec[0])
		}
		t.Add(Symbol{Name: rec[0], Start: start, End: end})
	}
}

// Load loads a symbol table from the CSV file fileName.
func Load(fileName string) (*Table, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "Load")
	}
	defer f.Close()
	return Read(f)
}

// Write writes the table to w in CSV format with decimal addresses.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, s := range t.syms {
		if err := cw.Write([]string{s.Name, strconv.FormatUint(uint64(s.Start), 10), strconv.FormatUint(uint64(s.End), 10)}); err != nil {
			return errors.Wrap(err, "symbols")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "symbols")
}

// Save writes the table to the file fileName.
func (t *Table) Save(fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "Save")
	}
	if err = t.Write(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "Save")
}
