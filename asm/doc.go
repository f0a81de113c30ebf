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

// Package asm provides utility functions to assemble and disassemble VM code.
//
// Source files are line oriented. At the top level, a line is either empty, a
// constant definition, a code block, a macro definition or a dictionary
// definition:
//
//	const NAME = expression
//
//	codeblock
//	    instructions and labels
//	end
//
//	macro NAME(param, ...)
//	    instructions, @param is replaced by the argument
//	end
//
//	def asm[flags](type) [alias ALIAS] NAME
//	    instructions
//	end
//
//	def word[flags](type) [alias ALIAS] NAME
//	    words
//	end
//
// Comments start with // and run to the end of the line.
//
// Supported mnemonics. Registers are written with a % sigil: %ip, %wp, %rsp,
// %dsp, %acc1, %acc2, %ret and %pc. An optional .w or .b suffix selects the
// transfer size; word is the default.
//
//	opcode	asm					description
//	------	---					-----------
//	00	nop					no-op
//	20/21	mov[.w|.b] T, S				T and S are %r or [%r]
//	22/23	mov[.w|.b] [%p++], %v			also [++%p], [%p--] and [--%p]
//	24/25	mov[.w|.b] %v, [%p++]			same pointer forms as above
//	26/27	mov %acc1, expr / mov %acc2, expr	load a 32 bits immediate
//	30	add.w %t, %s1, %s2			t = s1 + s2, sets carry on overflow
//	32	sub.w %t, %s1, %s2			t = s1 - s2, sets carry on borrow
//	34	or.w %t, %s1, %s2
//	36	and.w %t, %s1, %s2
//	38	xor.w %t, %s1, %s2
//	3c	sra.w %r, expr				arithmetic right shift by 0 to 31
//	3e	sll.w %r, expr				logical left shift by 0 to 31
//	60+r	jmp [%r]				jump to the address stored at [%r]
//	68+r	jmp %r					jump to the address in %r
//	70	jmp expr
//	71	jz expr					jump if %acc1 is zero
//	72	jc expr					jump if carry is set
//	73	call expr				%ret = next instruction, then jump
//	a0+r	pushd %r				push on the data stack
//	a8+r	popd %r					pop from the data stack
//	b0+r	pushr %r				push on the return stack
//	b8+r	popr %r					pop from the return stack
//	fe	ifkt expr				host function (16 bits code)
//	ff	illegal
//
// The db and dw directives emit bytes and little-endian 32 bits words. db also
// accepts double quoted strings:
//
//	db "Hello", #0x0a, #0
//	dw :start, #0x1234
//
// Expressions:
//
// Numbers are decimal or 0x prefixed hexadecimal and may be written with a #
// prefix (#0x1234). An identifier is a constant, :name is the address of label
// name and $ is the address of the current instruction. Terms combine with +
// and -:
//
//	dw :entry3 - :entry2
//	jmp $+#5
//
// Labels are defined with name: and may be referenced before their definition,
// except in constant definitions and definition flags.
//
// Macros:
//
// A macro call NAME(args) expands the macro body in place. Inside a macro, a
// label written 'name is local to each expansion.
//
// Dictionary definitions:
//
// def emits an eForth dictionary header: a 32 bits back link to the previous
// header (0 for the first one), one byte holding the name length or'ed with the
// flags, then the name. The labels name_cfa and name_end (lowercase) mark the
// address following the header and the address following the definition. If a
// macro named __DEF<TYPE>_CFA exists, with TYPE the upper cased type, it is
// expanded right after the header, typically to emit the code field.
//
// The body of a def asm is assembled like a code block. The body of a def word
// is a list of words separated by white space, each compiled into a 32 bits
// cell: the code field address of a previously defined word, a number, a
// constant or :label. A word ending with a colon defines a label.
//
// AssembleSymbols returns one symbol per definition (and alias) spanning from
// its header to its end, as used by the debugger.
package asm
