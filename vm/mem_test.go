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

package vm_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/assert"
)

func TestMemoryLittleEndian(t *testing.T) {
	m := vm.NewMemory(16)
	assert.NoError(t, m.Put32(0, 0x12345678))
	b0, _ := m.Byte(0)
	b3, _ := m.Byte(3)
	assert.Equal(t, byte(0x78), b0)
	assert.Equal(t, byte(0x12), b3)
	v, err := m.Get32(0)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)
	h, err := m.Get16(1)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x3456), h)
	assert.NoError(t, m.Put16(14, 0xbeef))
	b, _ := m.Read(14, 2)
	assert.Equal(t, []byte{0xef, 0xbe}, b)
}

func TestMemoryBounds(t *testing.T) {
	m := vm.NewMemory(8)
	assert.Equal(t, 8, m.Size())
	tests := [...]struct {
		name string
		fn   func() error
	}{
		{"Byte", func() error { _, err := m.Byte(8); return err }},
		{"SetByte", func() error { return m.SetByte(8, 1) }},
		{"Get16", func() error { _, err := m.Get16(7); return err }},
		{"Put16", func() error { return m.Put16(7, 1) }},
		{"Get32", func() error { _, err := m.Get32(5); return err }},
		{"Put32", func() error { return m.Put32(0xfffffffe, 1) }},
		{"Read", func() error { _, err := m.Read(4, 5); return err }},
	}
	for _, test := range tests {
		err := test.fn()
		assert.Error(t, err, test.name)
		_, ok := err.(*vm.MemoryError)
		assert.True(t, ok, test.name)
	}
	assert.NoError(t, m.Put32(4, 0xffffffff))
	_, err := m.Get32(5)
	assert.ErrorContains(t, err, "capacity 0x8")
}

func TestMemoryDefaultSize(t *testing.T) {
	assert.Equal(t, vm.DefaultMemorySize, vm.NewMemory(0).Size())
}

func TestMemoryLoad(t *testing.T) {
	m := vm.NewMemory(4)
	m.Fill(0xaa)
	err := m.Load([]byte{1, 2, 3, 4, 5})
	assert.True(t, errors.Cause(err) == vm.ErrImageTooLarge)
	b, _ := m.Read(0, 4)
	assert.Equal(t, []byte{0xaa, 0xaa, 0xaa, 0xaa}, b)
	assert.NoError(t, m.Load([]byte{1, 2}))
	b, _ = m.Read(0, 4)
	assert.Equal(t, []byte{1, 2, 0xaa, 0xaa}, b)
}

func TestLoadImageFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "image.bin")
	assert.NoError(t, os.WriteFile(name, []byte{0x26, 0x10, 0x41, 0x32, 0x22}, 0o644))

	m := vm.NewMemory(16)
	assert.NoError(t, vm.LoadImageFile(m, name))
	v, _ := m.Get32(1)
	assert.Equal(t, uint32(0x22324110), v)

	small := vm.NewMemory(4)
	err := vm.LoadImageFile(small, name)
	assert.True(t, errors.Cause(err) == vm.ErrImageTooLarge)

	err = vm.LoadImageFile(m, filepath.Join(dir, "missing.bin"))
	assert.Error(t, err)
}
