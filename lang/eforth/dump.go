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

package eforth

import (
	"io"

	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// State is the JSON representation of the machine state written by
// DumpState. Stack cells are listed bottom first, as signed values.
type State struct {
	Registers   map[string]uint32 `json:"registers"`
	Carry       bool              `json:"carry"`
	DataStack   []int32           `json:"dataStack"`
	ReturnStack []int32           `json:"returnStack"`
}

func stackCells(m *vm.Memory, sp uint32) ([]int32, error) {
	cells := make([]int32, 0, sp/vm.CellSize)
	for a := uint32(0); a+vm.CellSize <= sp; a += vm.CellSize {
		v, err := m.Get32(a)
		if err != nil {
			return cells, err
		}
		cells = append(cells, int32(v))
	}
	return cells, nil
}

// Snapshot returns the current state of i.
func Snapshot(i *vm.Instance) (*State, error) {
	st := i.State()
	s := &State{
		Registers: make(map[string]uint32, vm.RegisterCount),
		Carry:     st.Carry,
	}
	for r := vm.Register(0); r < vm.RegisterCount; r++ {
		s.Registers[r.String()] = st.Registers[r]
	}
	var err error
	if s.DataStack, err = stackCells(i.DataStack(), st.Registers[vm.DSP]); err != nil {
		return nil, errors.Wrap(err, "data stack")
	}
	if s.ReturnStack, err = stackCells(i.ReturnStack(), st.Registers[vm.RSP]); err != nil {
		return nil, errors.Wrap(err, "return stack")
	}
	return s, nil
}

// DumpState writes the state of i to w as a single line of JSON.
func DumpState(i *vm.Instance, w io.Writer) error {
	s, err := Snapshot(i)
	if err != nil {
		return err
	}
	return errors.Wrap(json.NewEncoder(w).Encode(s), "state dump")
}
