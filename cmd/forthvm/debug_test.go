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

package main

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/Jokymon/forth-vm-sim/asm"
	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

// emit lives at 0x5 with its code field at 0xe, start at 0x14.
const debugSource = `
codeblock
	jmp :start
end
def asm(code) EMIT
	mov %wp, %pc
	ifkt #2
	jmp %ret
end
codeblock
start:
	mov %acc1, #0x41
	call :emit_cfa
	pushd %acc1
	ifkt #0
end
`

func debugSession(t *testing.T, commands string) (vm.Result, string, error) {
	t.Helper()
	img, syms, err := asm.AssembleSymbols("debug", strings.NewReader(debugSource))
	assert.NoError(t, err)
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader(commands))
	i, err := vm.New(vm.MemorySize(256), vm.Input(in), vm.Output(&out))
	assert.NoError(t, err)
	assert.NoError(t, i.LoadImage(img))
	res, err := newDebugger(i, syms, in, &out, log.NewTestLogger(t)).run(context.Background())
	return res, out.String(), err
}

func TestDebuggerSession(t *testing.T) {
	res, out, err := debugSession(t, "b 0xe\nc\ns\nl 0x14 2\nw\nc\nj\nq\nc\n")
	assert.NoError(t, err)
	assert.Equal(t, vm.Finished, res)

	expected := []string{
		"Next instruction: jmp 0x14\n",
		"Breakpoint at 0xe set\n",
		"Breakpoint at 0xe\n",
		"Next instruction: mov.w %wp, %pc\n",
		"Wp scopes: emit\n",
		"00000014  26 41 00 00 00  mov %acc1, 0x41\n" +
			"00000019  73 0e 00 00 00  call 0xe\n",
		"EMIT             0xe\n",
		"A",
		"Byte code interpretation successful\n",
		`"dataStack":[65]`,
	}
	for _, s := range expected {
		assert.True(t, strings.Contains(out, s), "missing output: "+s)
	}
	// q ends the session before the last continue
	assert.Equal(t, 1, strings.Count(out, "Byte code interpretation successful"))
}

func TestDebuggerBreakpoints(t *testing.T) {
	_, out, err := debugSession(t, "b emit\nb 0x20\nb\nb 0x20\nb\n")
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out, "Breakpoint at 0x5 set\n"))
	assert.True(t, strings.Contains(out, "0x5 emit\n0x20 \n"))
	assert.True(t, strings.Contains(out, "Breakpoint at 0x20 removed\n>>> 0x5 emit\n>>> "))
}

func TestDebuggerCommands(t *testing.T) {
	res, out, err := debugSession(t, "d 0x14\nd 0x1000\nd nowhere\nl\nh\nfrob\nr\n")
	assert.NoError(t, err)
	assert.Equal(t, vm.Success, res)
	expected := []string{
		"0x14: 26 41 00 00 00 73 0e 00 00 00 a4 fe 00 00 00 00",
		"address 0x1000 out of memory\n",
		`invalid address "nowhere"`,
		"00000000  70 14 00 00 00  jmp 0x14\n" +
			"emit:\n",
		"commands:\n",
		"unknown command",
	}
	for _, s := range expected {
		assert.True(t, strings.Contains(out, s), "missing output: "+s)
	}
}

func TestDebuggerFault(t *testing.T) {
	img, err := asm.Assemble("fault", strings.NewReader("codeblock\n\tmov %acc1, #0x9000\n\tmov.w %acc2, [%acc1]\nend\n"))
	assert.NoError(t, err)
	i, err := vm.New(vm.MemorySize(256))
	assert.NoError(t, err)
	assert.NoError(t, i.LoadImage(img))
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("s\nc\nr\n"))
	res, err := newDebugger(i, nil, in, &out, log.NewTestLogger(t)).run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, vm.Fault, res)
	assert.True(t, strings.Contains(out.String(), "Memory fault: memory access fault"))
	assert.True(t, strings.Contains(out.String(), "at 0x9000, capacity 0x100\n"))
	assert.Equal(t, uint32(5), i.State().Registers[vm.PC])
	assert.True(t, strings.HasSuffix(out.String(), "Next instruction: mov.w %acc2, [%acc1]\n>>> "))
}

func TestDebuggerWordsWithoutSymbols(t *testing.T) {
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("w\n"))
	i, err := vm.New(vm.MemorySize(64))
	assert.NoError(t, err)
	_, err = newDebugger(i, nil, in, &out, log.NewTestLogger(t)).run(context.Background())
	assert.NoError(t, err)
	assert.True(t, strings.Contains(out.String(), "no dictionary symbols loaded\n"))
}

func TestDebuggerCancelled(t *testing.T) {
	src := "codeblock\nl:\n\tjmp :l\nend\n"
	img, err := asm.Assemble("loop", strings.NewReader(src))
	assert.NoError(t, err)
	i, err := vm.New(vm.MemorySize(64))
	assert.NoError(t, err)
	assert.NoError(t, i.LoadImage(img))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	in := bufio.NewReader(strings.NewReader("c\n"))
	_, err = newDebugger(i, nil, in, &bytes.Buffer{}, log.NewTestLogger(t)).run(ctx)
	assert.ErrorContains(t, err, "continue cancelled")
}
