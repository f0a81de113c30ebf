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
	"context"
	"math/bits"

	"github.com/Jokymon/forth-vm-sim/internal/fvi"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

func (i *Instance) traceStep(pc uint32, in Instruction) error {
	w := fvi.NewErrWriter(i.trace)
	w.Hex(pc)
	w.Write([]byte{'\t', digits[in.Op>>4], digits[in.Op&0xf], '\t'})
	w.WriteString(in.String())
	w.WriteString("\n")
	return w.Err
}

const digits = "0123456789abcdef"

func (i *Instance) operand(r Register, indirect, byteSized bool) (uint32, error) {
	v := i.state.Registers[r]
	switch {
	case !indirect && byteSized:
		return v & 0xff, nil
	case !indirect:
		return v, nil
	case byteSized:
		b, err := i.mem.Byte(v)
		return uint32(b), err
	default:
		return i.mem.Get32(v)
	}
}

func (i *Instance) store(addr, v uint32, byteSized bool) error {
	if byteSized {
		return i.mem.SetByte(addr, byte(v))
	}
	return i.mem.Put32(addr, v)
}

// adjust returns the access address and the final pointer value of a stack
// style move through pointer p.
func adjust(p uint32, in Instruction) (addr, final uint32) {
	var delta uint32 = CellSize
	if in.Byte {
		delta = 1
	}
	next := p + delta
	if in.Decrement {
		next = p - delta
	}
	if in.Pre {
		return next, next
	}
	return p, next
}

// Step executes the instruction at pc.
//
// Guest program defects are reported through the returned Result. An out of
// range memory access returns Fault along with the *MemoryError. Any other
// non-nil error is a console I/O failure, returned with Error. On Error,
// IllegalInstruction and Fault, pc is left on the offending instruction and no
// other register is modified.
func (i *Instance) Step() (Result, error) {
	res, err := i.step()
	var merr *MemoryError
	if errors.As(err, &merr) {
		res = Fault
	}
	return res, err
}

func (i *Instance) step() (res Result, err error) {
	r := &i.state.Registers
	pc := r[PC]
	in, err := Decode(i.mem, pc)
	if err != nil {
		return Error, err
	}
	if i.trace != nil {
		if err = i.traceStep(pc, in); err != nil {
			return Error, err
		}
	}
	saved := i.state
	defer func() {
		if res == Error || res == IllegalInstruction {
			i.state = saved
		}
	}()
	i.insCount++
	r[PC] = pc + in.Len

	switch in.Kind {
	case KindNop:
	case KindMove:
		v, err := i.operand(in.Source, in.SourceIndirect, in.Byte)
		if err != nil {
			return Error, err
		}
		if in.TargetIndirect {
			if err = i.store(r[in.Target], v, in.Byte); err != nil {
				return Error, err
			}
		} else {
			r[in.Target] = v
		}
	case KindStore:
		v := r[in.Source]
		addr, final := adjust(r[in.Target], in)
		if err = i.store(addr, v, in.Byte); err != nil {
			return Error, err
		}
		r[in.Target] = final
	case KindLoad:
		addr, final := adjust(r[in.Source], in)
		var v uint32
		if in.Byte {
			var b byte
			b, err = i.mem.Byte(addr)
			v = uint32(b)
		} else {
			v, err = i.mem.Get32(addr)
		}
		if err != nil {
			return Error, err
		}
		r[in.Source] = final
		r[in.Target] = v
	case KindLoadImm:
		r[in.Target] = in.Imm
	case KindALU:
		a, b := r[in.Source], r[in.Src2]
		switch in.Op {
		case OpAdd:
			sum, carry := bits.Add32(a, b, 0)
			r[in.Target], i.state.Carry = sum, carry != 0
		case OpSub:
			r[in.Target], i.state.Carry = a-b, b > a
		case OpOr:
			r[in.Target] = a | b
		case OpAnd:
			r[in.Target] = a & b
		case OpXor:
			r[in.Target] = a ^ b
		}
	case KindShift:
		if in.Op == OpSra {
			r[in.Target] = uint32(int32(r[in.Target]) >> in.Imm)
		} else {
			r[in.Target] <<= in.Imm
		}
	case KindJumpInd:
		t, err := i.mem.Get32(r[in.Target])
		if err != nil {
			return Error, err
		}
		r[PC] = t
	case KindJumpReg:
		r[PC] = r[in.Target]
	case KindJump:
		r[PC] = in.Imm
	case KindJumpZero:
		if r[Acc1] == 0 {
			r[PC] = in.Imm
		}
	case KindJumpCarry:
		if i.state.Carry {
			r[PC] = in.Imm
		}
	case KindCall:
		r[Ret] = r[PC]
		r[PC] = in.Imm
	case KindPushData, KindPushReturn:
		m, sp := i.ds, DSP
		if in.Kind == KindPushReturn {
			m, sp = i.rs, RSP
		}
		if err = i.push(m, sp, r[in.Target]); err != nil {
			return Error, err
		}
	case KindPopData, KindPopReturn:
		m, sp := i.ds, DSP
		if in.Kind == KindPopReturn {
			m, sp = i.rs, RSP
		}
		v, err := i.pop(m, sp)
		if err == ErrStackUnderflow {
			i.logger.Debug("Stack underflow",
				log.String("stack", sp.String()),
				log.Hex("pc", pc))
			return Error, nil
		}
		if err != nil {
			return Error, err
		}
		r[in.Target] = v
	case KindIfkt:
		return i.ifkt(uint16(in.Imm))
	default:
		i.logger.Debug("Illegal instruction",
			log.Hex("opcode", byte(in.Op)),
			log.Hex("pc", pc))
		return IllegalInstruction, nil
	}
	return Success, nil
}

// Run executes instructions until a step returns anything but Success.
func (i *Instance) Run() (Result, error) {
	return i.RunContext(context.Background())
}

// RunContext is like Run but also stops when ctx is done, in which case it
// returns Success and the context error.
func (i *Instance) RunContext(ctx context.Context) (Result, error) {
	for {
		select {
		case <-ctx.Done():
			return Success, errors.Wrap(ctx.Err(), "run cancelled")
		default:
		}
		res, err := i.Step()
		if err != nil || res != Success {
			return res, err
		}
	}
}
