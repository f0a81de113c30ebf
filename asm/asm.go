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

package asm

import (
	"io"

	"github.com/Jokymon/forth-vm-sim/internal/fvi"
	"github.com/Jokymon/forth-vm-sim/symbols"
	"github.com/Jokymon/forth-vm-sim/vm"
)

// Assemble compiles assembly read from the supplied io.Reader and returns the
// resulting image and error if any.
//
// Then name parameter is used only in error messages to name the source of the
// error. If the io.Reader is a file, name should be the file name.
//
// The returned error, if not nil, can safely be cast to an ErrAsm value that
// will contain up to 10 entries.
func Assemble(name string, r io.Reader) (img []byte, err error) {
	img, _, err = AssembleSymbols(name, r)
	return img, err
}

// AssembleSymbols is like Assemble but also returns the symbol table of the
// words defined with def.
func AssembleSymbols(name string, r io.Reader) ([]byte, *symbols.Table, error) {
	p := newParser()
	if err := p.Parse(name, r); err != nil {
		return nil, nil, err
	}
	return p.out, p.syms, nil
}

// Disassemble writes a disassembly of the instruction at addr in m to the
// specified io.Writer and returns the address of the next instruction and any
// write or memory error.
func Disassemble(m *vm.Memory, addr uint32, w io.Writer) (next uint32, err error) {
	ew, _ := w.(*fvi.ErrWriter)
	if ew == nil {
		ew = fvi.NewErrWriter(w)
	}
	in, err := vm.Decode(m, addr)
	if err != nil {
		return addr, err
	}
	io.WriteString(ew, in.String())
	return addr + in.Len, ew.Err
}

// DisassembleAll writes a listing of the instructions in [from, to) to the
// specified io.Writer. Each line holds the address, the raw instruction bytes
// and the instruction text. When syms is not nil, each symbol starting at an
// address is written as a label line before it. It will return any write or
// memory error.
func DisassembleAll(m *vm.Memory, from, to uint32, syms *symbols.Table, w io.Writer) error {
	ew := fvi.NewErrWriter(w)
	for addr := from; addr < to; {
		for _, s := range syms.At(addr) {
			if s.Start == addr {
				io.WriteString(ew, s.Name)
				io.WriteString(ew, ":\n")
			}
		}
		in, err := vm.Decode(m, addr)
		if err != nil {
			return err
		}
		raw, err := m.Read(addr, int(in.Len))
		if err != nil {
			return err
		}
		line := make([]byte, 0, 48)
		line = appendHex32(line, addr)
		line = append(line, ' ', ' ')
		for i := 0; i < 5; i++ {
			if i < len(raw) {
				line = append(line, digits[raw[i]>>4], digits[raw[i]&0xf], ' ')
			} else {
				line = append(line, ' ', ' ', ' ')
			}
		}
		ew.Write(line)
		io.WriteString(ew, " ")
		io.WriteString(ew, in.String())
		ew.Write([]byte{'\n'})
		if ew.Err != nil {
			return ew.Err
		}
		addr += in.Len
	}
	return nil
}

const digits = "0123456789abcdef"

func appendHex32(b []byte, v uint32) []byte {
	for s := 28; s >= 0; s -= 4 {
		b = append(b, digits[v>>uint(s)&0xf])
	}
	return b
}
