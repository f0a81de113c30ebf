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

// Opcode is the first byte of an instruction.
type Opcode byte

// VM opcodes. Opcodes followed by a register family occupy 8 consecutive
// values, one per register.
const (
	OpNop      Opcode = 0x00
	OpMovRW    Opcode = 0x20 // register/indirect move, word
	OpMovRB    Opcode = 0x21 // register/indirect move, byte
	OpMovSIDW  Opcode = 0x22 // [ptr±] <- reg, word
	OpMovSIDB  Opcode = 0x23 // [ptr±] <- reg, byte
	OpMovSDIW  Opcode = 0x24 // reg <- [ptr±], word
	OpMovSDIB  Opcode = 0x25 // reg <- [ptr±], byte
	OpMovIAcc1 Opcode = 0x26
	OpMovIAcc2 Opcode = 0x27
	OpAdd      Opcode = 0x30
	OpSub      Opcode = 0x32
	OpOr       Opcode = 0x34
	OpAnd      Opcode = 0x36
	OpXor      Opcode = 0x38
	OpSra      Opcode = 0x3c
	OpSll      Opcode = 0x3e
	OpJmpI     Opcode = 0x60 // + register
	OpJmpD     Opcode = 0x68 // + register
	OpJmp      Opcode = 0x70
	OpJz       Opcode = 0x71
	OpJc       Opcode = 0x72
	OpCall     Opcode = 0x73
	OpPushD    Opcode = 0xa0 // + register
	OpPopD     Opcode = 0xa8 // + register
	OpPushR    Opcode = 0xb0 // + register
	OpPopR     Opcode = 0xb8 // + register
	OpIfkt     Opcode = 0xfe
	OpIllegal  Opcode = 0xff
)

// Register selects one of the VM registers. The value is also the register
// encoding in operand fields.
type Register uint8

// VM registers.
const (
	IP Register = iota
	WP
	RSP
	DSP
	Acc1
	Acc2
	Ret
	PC
	RegisterCount = 8
)

var registerNames = [RegisterCount]string{"ip", "wp", "rsp", "dsp", "acc1", "acc2", "ret", "pc"}

func (r Register) String() string {
	if r < RegisterCount {
		return registerNames[r]
	}
	return "r?"
}

// RegisterByName returns the register with the given name, without sigil.
func RegisterByName(name string) (Register, bool) {
	for i, n := range registerNames {
		if n == name {
			return Register(i), true
		}
	}
	return 0, false
}

// ifkt function codes.
const (
	FnTerminate uint16 = 0x0000
	FnGetChar   uint16 = 0x0001
	FnPutChar   uint16 = 0x0002
	FnDumpWord  uint16 = 0x0003
	FnDumpRange uint16 = 0x0004
)

// InterruptByte is the console input byte that interrupts a running program
// (CTRL-C).
const InterruptByte = 0x03
