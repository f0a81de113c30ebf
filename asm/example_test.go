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

package asm_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/Jokymon/forth-vm-sim/asm"
	"github.com/Jokymon/forth-vm-sim/vm"
)

// Assembles a small program and runs it.
func ExampleAssemble() {
	code := `
const PUTCHAR = 2

// print @c on the console
macro EMIT(c)
	mov %acc1, @c
	ifkt PUTCHAR
end

codeblock
	EMIT(#0x48)
	EMIT(#0x69)
	EMIT(#0x0a)
	ifkt #0		// terminate
end
`
	img, err := asm.Assemble("hello", strings.NewReader(code))
	if err != nil {
		fmt.Println(err)
		return
	}

	i, err := vm.New(vm.Output(os.Stdout))
	if err == nil {
		err = i.LoadImage(img)
	}
	if err != nil {
		panic(err)
	}
	res, err := i.Run()
	if err != nil {
		panic(err)
	}
	fmt.Println(res, i.InstructionCount())

	// Output:
	// Hi
	// finished 7
}

// Errors point at the offending source position.
func ExampleErrAsm() {
	code := `
codeblock
	jmp :nowhere
	pushd.b %acc1
end
`
	_, err := asm.Assemble("errors", strings.NewReader(code))
	for _, e := range err.(asm.ErrAsm) {
		fmt.Println(e.Pos.Line, e.Msg)
	}

	// Output:
	// 4 pushd only supports word-sized mode
	// 3 missing label definition for nowhere
}

// Dictionary headers show up as labels in a listing when the symbol table is
// provided.
func ExampleDisassembleAll() {
	code := `
macro NEXT()
	jmp [%wp]
end

codeblock
	jmp :hi_cfa
end

def asm(code) HI
	mov %acc1, #0x48
	ifkt #2
	NEXT()
end
`
	img, syms, err := asm.AssembleSymbols("dict", strings.NewReader(code))
	if err != nil {
		fmt.Println(err)
		return
	}
	m := vm.NewMemory(len(img))
	if err = m.Load(img); err != nil {
		panic(err)
	}
	if err = asm.DisassembleAll(m, 0, uint32(len(img)), syms, os.Stdout); err != nil {
		panic(err)
	}

	// Output:
	// 00000000  70 0c 00 00 00  jmp 0xc
	// hi:
	// 00000005  00              nop
	// 00000006  00              nop
	// 00000007  00              nop
	// 00000008  00              nop
	// 00000009  02              <unknown 02>
	// 0000000a  48              <unknown 48>
	// 0000000b  49              <unknown 49>
	// 0000000c  26 48 00 00 00  mov %acc1, 0x48
	// 00000011  fe 02 00        ifkt 0x2
	// 00000014  61              jmp [%wp]
}
