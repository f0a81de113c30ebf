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

package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// DefaultMemorySize is the size in bytes of a memory region created without
// an explicit size.
const DefaultMemorySize = 32768

// ErrImageTooLarge is returned when loading an image that does not fit in the
// target memory. The memory is left untouched.
var ErrImageTooLarge = errors.New("image too large")

// MemoryError is returned by any memory access that falls outside of a
// memory region.
type MemoryError struct {
	Addr uint32 // first address of the faulting access
	Len  int    // number of bytes accessed
	Size int    // capacity of the memory region
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory access fault: %d byte(s) at 0x%x, capacity 0x%x", e.Len, e.Addr, e.Size)
}

// Memory is a fixed size, byte addressable memory region. Multi-byte values
// are stored little-endian.
type Memory struct {
	b []byte
}

// NewMemory returns a zero filled memory region of the given size. If size
// is <= 0, DefaultMemorySize is used.
func NewMemory(size int) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &Memory{b: make([]byte, size)}
}

// Size returns the capacity of the memory region in bytes.
func (m *Memory) Size() int {
	return len(m.b)
}

func (m *Memory) check(addr uint32, n int) error {
	if uint64(addr)+uint64(n) > uint64(len(m.b)) {
		return &MemoryError{Addr: addr, Len: n, Size: len(m.b)}
	}
	return nil
}

// Byte returns the byte at address addr.
func (m *Memory) Byte(addr uint32) (byte, error) {
	if err := m.check(addr, 1); err != nil {
		return 0, err
	}
	return m.b[addr], nil
}

// SetByte stores v at address addr.
func (m *Memory) SetByte(addr uint32, v byte) error {
	if err := m.check(addr, 1); err != nil {
		return err
	}
	m.b[addr] = v
	return nil
}

// Get16 returns the 16 bits value stored at addr.
func (m *Memory) Get16(addr uint32) (uint16, error) {
	if err := m.check(addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.b[addr:]), nil
}

// Put16 stores a 16 bits value at addr.
func (m *Memory) Put16(addr uint32, v uint16) error {
	if err := m.check(addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.b[addr:], v)
	return nil
}

// Get32 returns the 32 bits value stored at addr.
func (m *Memory) Get32(addr uint32) (uint32, error) {
	if err := m.check(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.b[addr:]), nil
}

// Put32 stores a 32 bits value at addr.
func (m *Memory) Put32(addr uint32, v uint32) error {
	if err := m.check(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.b[addr:], v)
	return nil
}

// Read returns a copy of the n bytes starting at addr.
func (m *Memory) Read(addr uint32, n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Errorf("negative read length %d", n)
	}
	if err := m.check(addr, n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, m.b[addr:])
	return b, nil
}

// Load copies image to the start of the memory region. If the image does not
// fit, Load returns ErrImageTooLarge and the memory is left unmodified.
func (m *Memory) Load(image []byte) error {
	if len(image) > len(m.b) {
		return errors.Wrapf(ErrImageTooLarge, "%d bytes, capacity %d", len(image), len(m.b))
	}
	copy(m.b, image)
	return nil
}

// Fill sets every byte of the memory region to v.
func (m *Memory) Fill(v byte) {
	for i := range m.b {
		m.b[i] = v
	}
}
