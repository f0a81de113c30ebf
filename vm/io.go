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
	"io"

	"github.com/Jokymon/forth-vm-sim/internal/fvi"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

// ErrInterrupted is returned by the console reader when the interrupt byte
// is read.
var ErrInterrupted = errors.New("interrupted")

func (i *Instance) flush() error {
	if f, ok := i.output.(flusher); ok {
		return errors.Wrap(f.Flush(), "flush failed")
	}
	return nil
}

// readByte blocks until a byte is available on the console input. It returns
// io.EOF when input is exhausted and ErrInterrupted on InterruptByte.
func (i *Instance) readByte() (byte, error) {
	if err := i.flush(); err != nil {
		return 0, err
	}
	if i.input == nil {
		return 0, io.EOF
	}
	var b [1]byte
	for {
		n, err := i.input.Read(b[:])
		if n > 0 {
			if b[0] == InterruptByte {
				return 0, ErrInterrupted
			}
			return b[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

func (i *Instance) writeByte(c byte) error {
	if _, err := i.output.Write([]byte{c}); err != nil {
		return errors.Wrap(err, "write failed")
	}
	return i.flush()
}

// ifkt runs the host function code.
func (i *Instance) ifkt(code uint16) (Result, error) {
	r := &i.state.Registers
	switch code {
	case FnTerminate:
		return Finished, nil
	case FnGetChar:
		c, err := i.readByte()
		switch errors.Cause(err) {
		case nil:
		case io.EOF:
			i.logger.Debug("Console input exhausted", log.Hex("pc", r[PC]))
			return Finished, nil
		case ErrInterrupted:
			i.logger.Info("Console interrupted", log.Hex("pc", r[PC]))
			return Finished, nil
		default:
			return Error, err
		}
		r[Acc1] = uint32(c)
		if err = i.writeByte(c); err != nil {
			return Error, err
		}
	case FnPutChar:
		if err := i.writeByte(byte(r[Acc1])); err != nil {
			return Error, err
		}
	case FnDumpWord:
		v, err := i.ds.Get32(r[DSP])
		if err != nil {
			return Error, err
		}
		w := fvi.NewErrWriter(i.output)
		w.WriteString("[")
		w.Hex(r[DSP])
		w.WriteString("] ")
		w.Hex(v)
		w.WriteString("\n")
		if w.Err != nil {
			return Error, w.Err
		}
	case FnDumpRange:
		from, to := r[Acc1], r[Acc2]
		if from > to {
			from, to = to, from
		}
		b, err := i.mem.Read(from, int(to-from))
		if err != nil {
			return Error, err
		}
		if err = fvi.NewErrWriter(i.output).HexBytes(from, b); err != nil {
			return Error, err
		}
	default:
		i.logger.Debug("Unknown ifkt function",
			log.Hex("code", code),
			log.Hex("pc", r[PC]))
		return IllegalInstruction, nil
	}
	return Success, nil
}
