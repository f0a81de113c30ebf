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
	"strings"

	"github.com/Jokymon/forth-vm-sim/internal/fvi"
)

// Kind identifies the instruction family of a decoded Instruction.
type Kind int

// Instruction kinds.
const (
	KindUnknown Kind = iota
	KindNop
	KindIllegal
	KindMove      // register/indirect move (Target, Source, *Indirect)
	KindStore     // [Target±] <- Source
	KindLoad      // Target <- [Source±]
	KindLoadImm   // Target <- Imm
	KindALU       // Target <- Src1 op Src2
	KindShift     // Target <- Target shift Imm
	KindJumpInd   // pc <- mem[Target]
	KindJumpReg   // pc <- Target
	KindJump      // pc <- Imm
	KindJumpZero  // pc <- Imm if acc1 == 0
	KindJumpCarry // pc <- Imm if carry
	KindCall      // ret <- pc, pc <- Imm
	KindPushData
	KindPopData
	KindPushReturn
	KindPopReturn
	KindIfkt
)

// Instruction is a decoded instruction. Only the fields relevant to Kind are
// set.
type Instruction struct {
	Kind   Kind
	Op     Opcode
	Len    uint32 // encoded length in bytes, including the opcode
	Byte   bool   // byte sized transfer
	Target Register
	Source Register
	Src2   Register

	TargetIndirect bool
	SourceIndirect bool
	Decrement      bool // pointer adjustment direction for KindStore/KindLoad
	Pre            bool // adjust pointer before the memory access

	Imm uint32 // immediate value, jump target, shift amount or ifkt code
}

var aluNames = map[Opcode]string{
	OpAdd: "add",
	OpSub: "sub",
	OpOr:  "or",
	OpAnd: "and",
	OpXor: "xor",
	OpSra: "sra",
	OpSll: "sll",
}

// operandLen returns the number of operand bytes following op.
func operandLen(op Opcode) uint32 {
	switch op {
	case OpMovRW, OpMovRB, OpMovSIDW, OpMovSIDB, OpMovSDIW, OpMovSDIB, OpSra, OpSll:
		return 1
	case OpAdd, OpSub, OpOr, OpAnd, OpXor, OpIfkt:
		return 2
	case OpMovIAcc1, OpMovIAcc2, OpJmp, OpJz, OpJc, OpCall:
		return 4
	}
	return 0
}

// Decode decodes the instruction at address addr in m. The only possible
// error is a *MemoryError when the opcode or its operands lie outside m.
// Unknown opcodes decode to KindUnknown without error.
func Decode(m *Memory, addr uint32) (Instruction, error) {
	b, err := m.Byte(addr)
	if err != nil {
		return Instruction{}, err
	}
	op := Opcode(b)
	n := operandLen(op)
	ops, err := m.Read(addr+1, int(n))
	if err != nil {
		return Instruction{Op: op}, err
	}
	return decode(op, ops), nil
}

func decode(op Opcode, o []byte) Instruction {
	in := Instruction{Op: op, Len: 1 + uint32(len(o))}
	reg := Register(op & 7)
	switch {
	case op == OpNop:
		in.Kind = KindNop
	case op == OpIllegal:
		in.Kind = KindIllegal
	case op == OpMovRW || op == OpMovRB:
		in.Kind = KindMove
		in.Byte = op == OpMovRB
		in.TargetIndirect = o[0]&0x80 != 0
		in.Target = Register(o[0]>>4) & 7
		in.SourceIndirect = o[0]&0x08 != 0
		in.Source = Register(o[0]) & 7
	case op >= OpMovSIDW && op <= OpMovSDIB:
		in.Kind = KindStore
		if op == OpMovSDIW || op == OpMovSDIB {
			in.Kind = KindLoad
		}
		in.Byte = op == OpMovSIDB || op == OpMovSDIB
		in.Decrement = o[0]&0x80 != 0
		in.Pre = o[0]&0x40 != 0
		in.Target = Register(o[0]>>3) & 7
		in.Source = Register(o[0]) & 7
	case op == OpMovIAcc1 || op == OpMovIAcc2:
		in.Kind = KindLoadImm
		in.Target = Acc1
		if op == OpMovIAcc2 {
			in.Target = Acc2
		}
		in.Imm = le32(o)
	case op == OpAdd || op == OpSub || op == OpOr || op == OpAnd || op == OpXor:
		in.Kind = KindALU
		in.Target = Register(o[0]>>4) & 7
		in.Source = Register(o[0]) & 7
		in.Src2 = Register(o[1]) & 7
	case op == OpSra || op == OpSll:
		in.Kind = KindShift
		in.Target = Register(o[0] >> 5)
		in.Imm = uint32(o[0] & 0x1f)
	case op&0xf8 == OpJmpI:
		in.Kind = KindJumpInd
		in.Target = reg
	case op&0xf8 == OpJmpD:
		in.Kind = KindJumpReg
		in.Target = reg
	case op >= OpJmp && op <= OpCall:
		in.Kind = [...]Kind{KindJump, KindJumpZero, KindJumpCarry, KindCall}[op-OpJmp]
		in.Imm = le32(o)
	case op&0xf8 == OpPushD:
		in.Kind = KindPushData
		in.Target = reg
	case op&0xf8 == OpPopD:
		in.Kind = KindPopData
		in.Target = reg
	case op&0xf8 == OpPushR:
		in.Kind = KindPushReturn
		in.Target = reg
	case op&0xf8 == OpPopR:
		in.Kind = KindPopReturn
		in.Target = reg
	case op == OpIfkt:
		in.Kind = KindIfkt
		in.Imm = uint32(o[0]) | uint32(o[1])<<8
	}
	return in
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func suffix(byteSized bool) string {
	if byteSized {
		return ".b"
	}
	return ".w"
}

func regOperand(r Register, indirect bool) string {
	if indirect {
		return "[%" + r.String() + "]"
	}
	return "%" + r.String()
}

func ptrOperand(r Register, dec, pre bool) string {
	adj := "++"
	if dec {
		adj = "--"
	}
	if pre {
		return "[" + adj + "%" + r.String() + "]"
	}
	return "[%" + r.String() + adj + "]"
}

// String returns the assembler text of the instruction.
func (in Instruction) String() string {
	var b strings.Builder
	switch in.Kind {
	case KindNop:
		return "nop"
	case KindIllegal:
		return "illegal"
	case KindMove:
		b.WriteString("mov" + suffix(in.Byte) + " ")
		b.WriteString(regOperand(in.Target, in.TargetIndirect))
		b.WriteString(", ")
		b.WriteString(regOperand(in.Source, in.SourceIndirect))
	case KindStore:
		b.WriteString("mov" + suffix(in.Byte) + " ")
		b.WriteString(ptrOperand(in.Target, in.Decrement, in.Pre))
		b.WriteString(", %" + in.Source.String())
	case KindLoad:
		b.WriteString("mov" + suffix(in.Byte) + " ")
		b.WriteString("%" + in.Target.String() + ", ")
		b.WriteString(ptrOperand(in.Source, in.Decrement, in.Pre))
	case KindLoadImm:
		return "mov %" + in.Target.String() + ", " + fvi.Hex(in.Imm)
	case KindALU:
		return aluNames[in.Op] + ".w %" + in.Target.String() + ", %" + in.Source.String() + ", %" + in.Src2.String()
	case KindShift:
		return aluNames[in.Op] + ".w %" + in.Target.String() + ", " + fvi.Hex(in.Imm)
	case KindJumpInd:
		return "jmp [%" + in.Target.String() + "]"
	case KindJumpReg:
		return "jmp %" + in.Target.String()
	case KindJump:
		return "jmp " + fvi.Hex(in.Imm)
	case KindJumpZero:
		return "jz " + fvi.Hex(in.Imm)
	case KindJumpCarry:
		return "jc " + fvi.Hex(in.Imm)
	case KindCall:
		return "call " + fvi.Hex(in.Imm)
	case KindPushData:
		return "pushd %" + in.Target.String()
	case KindPopData:
		return "popd %" + in.Target.String()
	case KindPushReturn:
		return "pushr %" + in.Target.String()
	case KindPopReturn:
		return "popr %" + in.Target.String()
	case KindIfkt:
		return "ifkt " + fvi.Hex(in.Imm)
	default:
		return "<unknown " + string([]byte{digits[in.Op>>4], digits[in.Op&0xf]}) + ">"
	}
	return b.String()
}
