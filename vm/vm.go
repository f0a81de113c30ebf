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

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
)

// Result is the outcome of a single step or of a run.
type Result int

// Step outcomes.
const (
	Success            Result = iota // instruction executed, keep going
	Finished                         // program terminated normally
	Error                            // defined instruction failed at run time
	IllegalInstruction               // undefined opcode or ifkt function code
	Fault                            // out of range memory access, the error is a *MemoryError
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Finished:
		return "finished"
	case Error:
		return "error"
	case IllegalInstruction:
		return "illegal instruction"
	case Fault:
		return "memory fault"
	}
	return "unknown result"
}

// State is a snapshot of the register file and flags.
type State struct {
	Registers [RegisterCount]uint32
	Carry     bool
}

// Instance represents a VM instance.
type Instance struct {
	state    State
	mem      *Memory
	ds       *Memory
	rs       *Memory
	memSize  int
	shared   bool
	insCount int64
	input    io.Reader
	output   io.Writer
	trace    io.Writer
	logger   *log.Logger
}

// Option interface
type Option func(*Instance) error

// MainMemory sets the memory region used for code and data. The default is a
// fresh region of MemorySize bytes.
func MainMemory(m *Memory) Option {
	return func(i *Instance) error {
		if m == nil {
			return errors.New("MainMemory: nil memory")
		}
		i.mem = m
		return nil
	}
}

// DataStack sets the memory region backing the data stack (pushd/popd).
func DataStack(m *Memory) Option {
	return func(i *Instance) error {
		if m == nil {
			return errors.New("DataStack: nil memory")
		}
		i.ds = m
		return nil
	}
}

// ReturnStack sets the memory region backing the return stack (pushr/popr).
func ReturnStack(m *Memory) Option {
	return func(i *Instance) error {
		if m == nil {
			return errors.New("ReturnStack: nil memory")
		}
		i.rs = m
		return nil
	}
}

// SharedStacks makes both stacks live in main memory. Stack regions set with
// DataStack or ReturnStack are ignored.
func SharedStacks(shared bool) Option {
	return func(i *Instance) error { i.shared = shared; return nil }
}

// MemorySize sets the size of the regions created by New. The default is
// DefaultMemorySize.
func MemorySize(size int) Option {
	return func(i *Instance) error {
		if size <= 0 {
			return errors.Errorf("MemorySize: invalid size %d", size)
		}
		i.memSize = size
		return nil
	}
}

// Input pushes the given reader on top of the input stack.
func Input(r io.Reader) Option {
	return func(i *Instance) error { i.PushInput(r); return nil }
}

// Output configures the console output. If w implements
// interface{ Flush() error }, it is flushed after each character output and
// before blocking on input.
func Output(w io.Writer) Option {
	return func(i *Instance) error { i.output = w; return nil }
}

// Trace enables instruction tracing to w. Each step writes the address, the
// opcode byte and the disassembly of the instruction about to execute.
func Trace(w io.Writer) Option {
	return func(i *Instance) error { i.trace = w; return nil }
}

// Logger sets the logger used for diagnostics.
func Logger(l *log.Logger) Option {
	return func(i *Instance) error {
		if l == nil {
			return errors.New("Logger: nil logger")
		}
		i.logger = l
		return nil
	}
}

// SetOptions sets the provided options.
func (i *Instance) SetOptions(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return err
		}
	}
	return nil
}

// New creates a new VM instance with all registers and the carry flag cleared.
//
// Unless set with options, main memory and both stack regions are allocated
// with MemorySize bytes each, console output is discarded and there is no
// console input (getchar finishes the program).
func New(opts ...Option) (*Instance, error) {
	i := &Instance{memSize: DefaultMemorySize}
	if err := i.SetOptions(opts...); err != nil {
		return nil, err
	}
	if i.mem == nil {
		i.mem = NewMemory(i.memSize)
	}
	if i.shared {
		i.ds, i.rs = i.mem, i.mem
	}
	if i.ds == nil {
		i.ds = NewMemory(i.memSize)
	}
	if i.rs == nil {
		i.rs = NewMemory(i.memSize)
	}
	if i.output == nil {
		i.output = io.Discard
	}
	if i.logger == nil {
		i.logger = log.NewWithConfig(log.DefaultConfig())
	}
	return i, nil
}

// State returns a copy of the current register file and flags.
func (i *Instance) State() State {
	return i.state
}

// SetState replaces the register file and flags.
func (i *Instance) SetState(s State) {
	i.state = s
}

// Memory returns the main memory region.
func (i *Instance) Memory() *Memory { return i.mem }

// DataStack returns the memory region backing the data stack.
func (i *Instance) DataStack() *Memory { return i.ds }

// ReturnStack returns the memory region backing the return stack.
func (i *Instance) ReturnStack() *Memory { return i.rs }

// InstructionCount returns the number of instructions executed so far.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}

// LoadImage copies image at address 0 of main memory. An oversized image is
// logged and rejected as a whole.
func (i *Instance) LoadImage(image []byte) error {
	if err := i.mem.Load(image); err != nil {
		i.logger.Error("Image rejected",
			log.Int("size", len(image)),
			log.Int("capacity", i.mem.Size()),
			log.Err(err))
		return err
	}
	return nil
}

// Disassemble returns the assembler text of the instruction at addr in main
// memory.
func (i *Instance) Disassemble(addr uint32) (string, error) {
	in, err := Decode(i.mem, addr)
	if err != nil {
		return "", err
	}
	return in.String(), nil
}

// DisassembleAtPC returns the assembler text of the next instruction to
// execute.
func (i *Instance) DisassembleAtPC() (string, error) {
	return i.Disassemble(i.state.Registers[PC])
}
