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
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/retroenv/retrogolib/assert"
)

var (
	getChar   = []byte{0xfe, 0x01, 0x00}
	putChar   = []byte{0xfe, 0x02, 0x00}
	terminate = []byte{0xfe, 0x00, 0x00}
)

func code(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func TestGetCharEcho(t *testing.T) {
	var out bytes.Buffer
	i := setup(t, code(getChar, getChar), vm.State{},
		vm.Input(strings.NewReader("ok")), vm.Output(&out))
	s := step(t, i, vm.Success)
	assert.Equal(t, uint32('o'), s.Registers[vm.Acc1])
	s = step(t, i, vm.Success)
	assert.Equal(t, uint32('k'), s.Registers[vm.Acc1])
	assert.Equal(t, "ok", out.String())
}

func TestGetCharEOF(t *testing.T) {
	i := setup(t, getChar, vm.State{}, vm.Input(strings.NewReader("")))
	step(t, i, vm.Finished)

	// no input at all
	i = setup(t, getChar, vm.State{})
	step(t, i, vm.Finished)
}

func TestGetCharInterrupt(t *testing.T) {
	i := setup(t, code(getChar, getChar), regs{vm.Acc1: 0x55}.state(false),
		vm.Input(strings.NewReader("a\x03b")))
	step(t, i, vm.Success)
	s := step(t, i, vm.Finished)
	assert.Equal(t, uint32('a'), s.Registers[vm.Acc1])
}

func TestPutChar(t *testing.T) {
	var out bytes.Buffer
	c := code([]byte{0x26, 'h', 0, 0, 0}, putChar, []byte{0x26, 0x69, 0x01, 0, 0}, putChar, terminate)
	i := setup(t, c, vm.State{}, vm.Output(&out))
	res, err := i.Run()
	assert.NoError(t, err)
	assert.Equal(t, vm.Finished, res)
	assert.Equal(t, "hi", out.String())
}

func TestPutCharFlush(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	i := setup(t, code([]byte{0x26, '!', 0, 0, 0}, putChar), vm.State{}, vm.Output(w))
	step(t, i, vm.Success)
	step(t, i, vm.Success)
	assert.Equal(t, "!", out.String())
}

func TestDumpWord(t *testing.T) {
	var out bytes.Buffer
	i := setup(t, []byte{0xfe, 0x03, 0x00}, regs{vm.DSP: 0x10}.state(false), vm.Output(&out))
	assert.NoError(t, i.DataStack().Put32(0x10, 0xabcd))
	assert.NoError(t, i.Memory().Put32(0x10, 0x1234))
	step(t, i, vm.Success)
	assert.Equal(t, "[0x10] 0xabcd\n", out.String())

	// shared stacks live in main memory
	out.Reset()
	i = setup(t, []byte{0xfe, 0x03, 0x00}, regs{vm.DSP: 0x10}.state(false), vm.Output(&out), vm.SharedStacks(true))
	assert.NoError(t, i.Memory().Put32(0x10, 0x1234))
	step(t, i, vm.Success)
	assert.Equal(t, "[0x10] 0x1234\n", out.String())
}

func TestDumpRange(t *testing.T) {
	var out bytes.Buffer
	// bounds are swapped when acc1 > acc2
	i := setup(t, []byte{0xfe, 0x04, 0x00}, regs{vm.Acc1: 0x24, vm.Acc2: 0x10}.state(false), vm.Output(&out))
	for a := uint32(0x10); a < 0x24; a++ {
		assert.NoError(t, i.Memory().SetByte(a, byte(a)))
	}
	step(t, i, vm.Success)
	assert.Equal(t,
		"0x10: 10 11 12 13 14 15 16 17 18 19 1a 1b 1c 1d 1e 1f\n"+
			"0x20: 20 21 22 23\n",
		out.String())
}

func TestPushInput(t *testing.T) {
	var out bytes.Buffer
	i := setup(t, code(getChar, getChar, getChar, getChar), vm.State{},
		vm.Input(strings.NewReader("c")),
		vm.Input(strings.NewReader("ab")),
		vm.Output(&out))
	step(t, i, vm.Success)
	step(t, i, vm.Success)
	step(t, i, vm.Success)
	step(t, i, vm.Finished)
	assert.Equal(t, "abc", out.String())
}

func TestTrace(t *testing.T) {
	var tr bytes.Buffer
	i := setup(t, code([]byte{0x00, 0x26, 0x10, 0x41, 0x32, 0x22}, terminate), vm.State{}, vm.Trace(&tr))
	res, err := i.Run()
	assert.NoError(t, err)
	assert.Equal(t, vm.Finished, res)
	assert.Equal(t,
		"0x0\t00\tnop\n"+
			"0x1\t26\tmov %acc1, 0x22324110\n"+
			"0x6\tfe\tifkt 0x0\n",
		tr.String())
}
