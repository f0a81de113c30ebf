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

// Package fvi holds helpers shared by the VM, the assembler and the command
// line tools.
package fvi

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// ErrWriter is a simple wrapper to track io errors. Write will keep returning
// the last error over and over.
type ErrWriter struct {
	w   io.Writer
	Err error
}

func (w *ErrWriter) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// WriteString writes s.
func (w *ErrWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Hex writes v as lowercase hexadecimal with a 0x prefix.
func (w *ErrWriter) Hex(v uint32) {
	w.WriteString(Hex(v))
}

// HexBytes writes a hex dump of b, 16 bytes per line, each line prefixed with
// the address of its first byte.
func (w *ErrWriter) HexBytes(addr uint32, b []byte) error {
	for len(b) > 0 {
		n := 16
		if n > len(b) {
			n = len(b)
		}
		w.WriteString(Hex(addr))
		w.WriteString(":")
		for _, c := range b[:n] {
			w.Write([]byte{' ', digits[c>>4], digits[c&0xf]})
		}
		w.WriteString("\n")
		addr += uint32(n)
		b = b[n:]
	}
	return w.Err
}

// NewErrWriter returns a new ErrWriter.
func NewErrWriter(w io.Writer) *ErrWriter {
	return &ErrWriter{w, nil}
}

const digits = "0123456789abcdef"

// Hex formats v as lowercase hexadecimal with a 0x prefix and no padding.
func Hex(v uint32) string {
	return "0x" + strconv.FormatUint(uint64(v), 16)
}
