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

// Package vm implements the forth-vm byte-code interpreter.
//
// The VM is a small register machine with eight 32-bit registers (ip, wp, rsp,
// dsp, acc1, acc2, ret and pc) and a carry flag. Code and data live in a flat,
// little-endian, byte addressable main memory. The data and return stacks each
// live in their own memory region unless SharedStacks is set, so that a stack
// overflow cannot corrupt code.
//
// Instructions are one opcode byte followed by zero to four operand bytes.
// Decode is the single decoder used by both the interpreter (Step, Run) and the
// disassembler (Instruction.String, Instance.DisassembleAtPC), so that traces
// always match what executes.
//
// Step returns a Result. Guest program defects never panic: an undefined
// opcode or ifkt function code yields IllegalInstruction, a defined
// instruction failing at run time (such as popping an empty stack) yields
// Error. Out of range memory accesses are host level faults: Step returns
// Fault and a *MemoryError.
//
// The only I/O model is a console byte stream driven by the ifkt instruction.
// Reading the interrupt byte (CTRL-C) or reaching the end of input terminates
// the program with Finished.
package vm
