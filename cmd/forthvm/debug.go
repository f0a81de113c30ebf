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

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Jokymon/forth-vm-sim/asm"
	"github.com/Jokymon/forth-vm-sim/internal/fvi"
	"github.com/Jokymon/forth-vm-sim/lang/eforth"
	"github.com/Jokymon/forth-vm-sim/symbols"
	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
)

const debugHelp = `commands:
  s, step              execute one instruction
  c, continue          run until a breakpoint or the end of the program
  b, break [ADDR]      toggle a breakpoint at ADDR, list breakpoints without ADDR
  d, dump ADDR         hex dump 48 bytes of main memory at ADDR
  l, list [ADDR [N]]   disassemble N instructions at ADDR (default: pc, 8)
  r, regs              show the registers
  w, words             list the dictionary
  j, json              print the machine state as JSON
  h, help              show this help
  q, quit              leave the debugger
ADDR is a number or a symbol name.
`

const (
	dumpSize  = 3 * 16
	listCount = 8
)

type debugger struct {
	i      *vm.Instance
	syms   *symbols.Table
	in     *bufio.Reader
	out    io.Writer
	logger *log.Logger
	breaks set.Set[uint32]
	res    vm.Result
}

func newDebugger(i *vm.Instance, syms *symbols.Table, in *bufio.Reader, out io.Writer, logger *log.Logger) *debugger {
	return &debugger{
		i:      i,
		syms:   syms,
		in:     in,
		out:    out,
		logger: logger,
		breaks: set.New[uint32](),
	}
}

func (d *debugger) flush() {
	if f, ok := d.out.(interface{ Flush() error }); ok {
		f.Flush()
	}
}

// run reads and executes commands until quit or end of input. It returns
// the result of the last executed instruction.
func (d *debugger) run(ctx context.Context) (vm.Result, error) {
	d.registers()
	for {
		fmt.Fprint(d.out, ">>> ")
		d.flush()
		line, err := d.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return d.res, nil
			}
			return d.res, errors.Wrap(err, "debugger input")
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		quit, err := d.exec(ctx, args)
		if err != nil || quit {
			return d.res, err
		}
	}
}

func (d *debugger) exec(ctx context.Context, args []string) (quit bool, err error) {
	d.logger.Debug("Debugger command", log.String("command", strings.Join(args, " ")))
	switch args[0] {
	case "s", "step":
		if err = d.step(); err != nil {
			return false, err
		}
		d.registers()
	case "c", "continue":
		if err = d.cont(ctx); err != nil {
			return false, err
		}
		d.registers()
	case "b", "break":
		d.toggleBreak(args[1:])
	case "d", "dump":
		d.dump(args[1:])
	case "l", "list":
		d.list(args[1:])
	case "r", "regs":
		d.registers()
	case "w", "words":
		d.words()
	case "j", "json":
		if err = eforth.DumpState(d.i, d.out); err != nil {
			fmt.Fprintf(d.out, "%v\n", err)
		}
	case "h", "help":
		io.WriteString(d.out, debugHelp)
	case "q", "quit":
		return true, nil
	default:
		fmt.Fprintf(d.out, "unknown command %q, type h for help\n", args[0])
	}
	return false, nil
}

func (d *debugger) report(res vm.Result) {
	if msg, ok := resultMessages[res]; ok {
		fmt.Fprintf(d.out, "%s\n", msg)
	}
}

func (d *debugger) step() error {
	res, err := d.i.Step()
	d.res = res
	if res == vm.Fault {
		d.fault(err)
		return nil
	}
	if err != nil {
		return err
	}
	d.report(res)
	return nil
}

// fault reports a memory fault. The faulting instruction is not executed and
// the session goes on.
func (d *debugger) fault(err error) {
	fmt.Fprintf(d.out, "Memory fault: %v\n", err)
}

// cont runs until the program stops or pc hits a breakpoint. The breakpoint
// at the starting pc, if any, is stepped over.
func (d *debugger) cont(ctx context.Context) error {
	for first := true; ; first = false {
		pc := d.i.State().Registers[vm.PC]
		if !first && d.breaks.Contains(pc) {
			fmt.Fprintf(d.out, "Breakpoint at %s\n", fvi.Hex(pc))
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "continue cancelled")
		default:
		}
		res, err := d.i.Step()
		d.res = res
		if res == vm.Fault {
			d.fault(err)
			return nil
		}
		if err != nil {
			return err
		}
		if res != vm.Success {
			d.report(res)
			return nil
		}
	}
}

// address parses a number or a symbol name.
func (d *debugger) address(s string) (uint32, error) {
	if sym, ok := d.syms.Lookup(strings.ToLower(s)); ok {
		return sym.Start, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}

func (d *debugger) toggleBreak(args []string) {
	if len(args) == 0 {
		addrs := make([]uint32, 0, len(d.breaks))
		for a := range d.breaks {
			addrs = append(addrs, a)
		}
		sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
		for _, a := range addrs {
			fmt.Fprintf(d.out, "%s %s\n", fvi.Hex(a), d.syms.Names(a, ", "))
		}
		return
	}
	addr, err := d.address(args[0])
	if err != nil {
		fmt.Fprintf(d.out, "%v\n", err)
		return
	}
	if d.breaks.Contains(addr) {
		d.breaks.Remove(addr)
		fmt.Fprintf(d.out, "Breakpoint at %s removed\n", fvi.Hex(addr))
		return
	}
	d.breaks.Add(addr)
	fmt.Fprintf(d.out, "Breakpoint at %s set\n", fvi.Hex(addr))
}

func (d *debugger) dump(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(d.out, "usage: dump ADDR\n")
		return
	}
	addr, err := d.address(args[0])
	if err != nil {
		fmt.Fprintf(d.out, "%v\n", err)
		return
	}
	m := d.i.Memory()
	if int64(addr) >= int64(m.Size()) {
		fmt.Fprintf(d.out, "address %s out of memory\n", fvi.Hex(addr))
		return
	}
	n := dumpSize
	if rest := m.Size() - int(addr); rest < n {
		n = rest
	}
	b, err := m.Read(addr, n)
	if err == nil {
		err = fvi.NewErrWriter(d.out).HexBytes(addr, b)
	}
	if err != nil {
		fmt.Fprintf(d.out, "%v\n", err)
	}
}

func (d *debugger) list(args []string) {
	from, n := d.i.State().Registers[vm.PC], listCount
	var err error
	if len(args) > 0 {
		if from, err = d.address(args[0]); err != nil {
			fmt.Fprintf(d.out, "%v\n", err)
			return
		}
	}
	if len(args) > 1 {
		if n, err = strconv.Atoi(args[1]); err != nil || n <= 0 {
			fmt.Fprintf(d.out, "invalid count %q\n", args[1])
			return
		}
	}
	m := d.i.Memory()
	to := from
	for k := 0; k < n; k++ {
		in, err := vm.Decode(m, to)
		if err != nil {
			break
		}
		to += in.Len
	}
	if err = asm.DisassembleAll(m, from, to, d.syms, d.out); err != nil {
		fmt.Fprintf(d.out, "%v\n", err)
	}
}

func (d *debugger) words() {
	latest, ok := eforth.Latest(d.syms)
	if !ok {
		fmt.Fprintf(d.out, "no dictionary symbols loaded\n")
		return
	}
	ws, err := eforth.Words(d.i.Memory(), latest)
	for _, w := range ws {
		var flags string
		if w.Immediate() {
			flags += " immediate"
		}
		if w.CompileOnly() {
			flags += " compile-only"
		}
		fmt.Fprintf(d.out, "%-16s %s%s\n", w.Name, fvi.Hex(w.CFA), flags)
	}
	if err != nil {
		fmt.Fprintf(d.out, "%v\n", err)
	}
}

// registers shows the register panel, the symbols in scope for wp and ip and
// the next instruction.
func (d *debugger) registers() {
	st := d.i.State()
	r := &st.Registers
	fmt.Fprintf(d.out, "Pc:  %12x | Dsp:  %12x\n", r[vm.PC], r[vm.DSP])
	fmt.Fprintf(d.out, "Ip:  %12x | Rsp:  %12x\n", r[vm.IP], r[vm.RSP])
	fmt.Fprintf(d.out, "Wp:  %12x | Acc1: %12x\n", r[vm.WP], r[vm.Acc1])
	fmt.Fprintf(d.out, "Ret: %12x | Acc2: %12x\n", r[vm.Ret], r[vm.Acc2])
	fmt.Fprintf(d.out, "Carry: %v\n", st.Carry)
	io.WriteString(d.out, "----------------------\n")
	fmt.Fprintf(d.out, "Wp scopes: %s\n", d.syms.Names(r[vm.WP], ", "))
	fmt.Fprintf(d.out, "Ip scopes: %s\n", d.syms.Names(r[vm.IP], ", "))
	io.WriteString(d.out, "----------------------\n")
	next, err := d.i.DisassembleAtPC()
	if err != nil {
		next = "<" + err.Error() + ">"
	}
	fmt.Fprintf(d.out, "Next instruction: %s\n", next)
}
