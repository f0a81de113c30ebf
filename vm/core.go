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

import "github.com/pkg/errors"

// ErrStackUnderflow is returned by Pop and Rpop when the stack pointer is 0.
var ErrStackUnderflow = errors.New("stack underflow")

// CellSize is the size in bytes of a stack cell.
const CellSize = 4

func (i *Instance) push(m *Memory, sp Register, v uint32) error {
	p := i.state.Registers[sp]
	if err := m.Put32(p, v); err != nil {
		return err
	}
	i.state.Registers[sp] = p + CellSize
	return nil
}

func (i *Instance) pop(m *Memory, sp Register) (uint32, error) {
	p := i.state.Registers[sp]
	if p == 0 {
		return 0, ErrStackUnderflow
	}
	v, err := m.Get32(p - CellSize)
	if err != nil {
		return 0, err
	}
	i.state.Registers[sp] = p - CellSize
	return v, nil
}

// Push pushes v on top of the data stack.
func (i *Instance) Push(v uint32) error {
	return i.push(i.ds, DSP, v)
}

// Pop pops the value on top of the data stack and returns it.
func (i *Instance) Pop() (uint32, error) {
	return i.pop(i.ds, DSP)
}

// Rpush pushes v on top of the return stack.
func (i *Instance) Rpush(v uint32) error {
	return i.push(i.rs, RSP, v)
}

// Rpop pops the value on top of the return stack and returns it.
func (i *Instance) Rpop() (uint32, error) {
	return i.pop(i.rs, RSP)
}

// Depth returns the number of cells on the data stack.
func (i *Instance) Depth() int {
	return int(i.state.Registers[DSP] / CellSize)
}

// Rdepth returns the number of cells on the return stack.
func (i *Instance) Rdepth() int {
	return int(i.state.Registers[RSP] / CellSize)
}
