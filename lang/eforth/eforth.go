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

// Package eforth provides helpers to inspect eForth images running on the
// VM: dictionary walking and machine state dumps.
//
// A dictionary header, as emitted by the assembler's def directive, is laid
// out as follows:
//
//	offset	size	content
//	0	4	address of the previous header, 0 for the first one
//	4	1	name length | flags
//	5	len	name
//
// The code field follows the name.
package eforth

import (
	"github.com/Jokymon/forth-vm-sim/symbols"
	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/pkg/errors"
)

// Header flags, or'ed with the name length.
const (
	FlagImmediate   = 0x80
	FlagCompileOnly = 0x40
	NameMask        = 0x1f // maximum name length
)

// Word is a decoded dictionary header.
type Word struct {
	Name   string
	Flags  byte
	Header uint32 // address of the back link
	CFA    uint32 // address following the name
}

// Immediate returns true if the word has the immediate flag set.
func (w Word) Immediate() bool { return w.Flags&FlagImmediate != 0 }

// CompileOnly returns true if the word has the compile-only flag set.
func (w Word) CompileOnly() bool { return w.Flags&FlagCompileOnly != 0 }

// ReadWord decodes the dictionary header at addr.
func ReadWord(m *vm.Memory, addr uint32) (Word, error) {
	lf, err := m.Byte(addr + 4)
	if err != nil {
		return Word{}, err
	}
	n := lf & NameMask
	name, err := m.Read(addr+5, int(n))
	if err != nil {
		return Word{}, err
	}
	return Word{
		Name:   string(name),
		Flags:  lf &^ NameMask,
		Header: addr,
		CFA:    addr + 5 + uint32(n),
	}, nil
}

// Words walks the dictionary from the header at latest back to the first
// definition and returns the words, most recent first.
func Words(m *vm.Memory, latest uint32) ([]Word, error) {
	var ws []Word
	for addr := latest; ; {
		w, err := ReadWord(m, addr)
		if err != nil {
			return ws, err
		}
		ws = append(ws, w)
		link, err := m.Get32(addr)
		if err != nil {
			return ws, err
		}
		if link == 0 {
			return ws, nil
		}
		if link >= addr {
			return ws, errors.Errorf("dictionary link at %#x points forward to %#x", addr, link)
		}
		addr = link
	}
}

// Latest returns the start of the most recent definition in syms, that is
// the highest symbol start address.
func Latest(syms *symbols.Table) (uint32, bool) {
	var (
		latest uint32
		found  bool
	)
	for _, s := range syms.Symbols() {
		if !found || s.Start > latest {
			latest, found = s.Start, true
		}
	}
	return latest, found
}

// Find looks up name in the dictionary starting at latest. Names are
// compared as is.
func Find(m *vm.Memory, latest uint32, name string) (Word, bool, error) {
	ws, err := Words(m, latest)
	for _, w := range ws {
		if w.Name == name {
			return w, true, nil
		}
	}
	return Word{}, false, err
}
