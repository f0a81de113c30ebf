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

package vm_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/Jokymon/forth-vm-sim/vm"
)

// Shows how to run a program that echoes its console input.
func ExampleInstance_Run() {
	image := []byte{
		0xfe, 0x01, 0x00, // ifkt 0x1 (getchar)
		0x70, 0x00, 0x00, 0x00, 0x00, // jmp 0x0
	}
	i, err := vm.New(
		vm.Input(strings.NewReader("Hello\n")),
		vm.Output(os.Stdout))
	if err == nil {
		err = i.LoadImage(image)
	}
	if err != nil {
		panic(err)
	}
	res, err := i.Run()
	if err != nil {
		panic(err)
	}
	fmt.Println(res)

	// Output:
	// Hello
	// finished
}

// Shows how to single step and inspect the register file.
func ExampleInstance_Step() {
	i, _ := vm.New()
	_ = i.LoadImage([]byte{0x26, 0x10, 0x41, 0x32, 0x22})
	s, _ := i.DisassembleAtPC()
	fmt.Println(s)
	res, err := i.Step()
	if err != nil {
		panic(err)
	}
	st := i.State()
	fmt.Printf("%v acc1=%#x pc=%d\n", res, st.Registers[vm.Acc1], st.Registers[vm.PC])

	// Output:
	// mov %acc1, 0x22324110
	// success acc1=0x22324110 pc=5
}
