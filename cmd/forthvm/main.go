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
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Jokymon/forth-vm-sim/internal/config"
	"github.com/Jokymon/forth-vm-sim/lang/eforth"
	"github.com/Jokymon/forth-vm-sim/symbols"
	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

var errUsage = errors.New("usage")

type options struct {
	image     string
	symbols   string
	size      int
	debug     bool
	trace     bool
	dumpState bool
	noRaw     bool
	verbose   bool
	quiet     bool
	version   bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	var opts options
	flags.StringVar(&opts.image, "i", "", "binary `file` containing byte code")
	flags.StringVar(&opts.symbols, "sym", "", "symbol `file` to load (default: image file name with a .sym extension, if it exists)")
	flags.IntVar(&opts.size, "size", vm.DefaultMemorySize, "size in bytes of main memory and of each stack")
	flags.BoolVar(&opts.debug, "d", false, "start in debugging mode")
	flags.BoolVar(&opts.trace, "trace", false, "trace executed instructions to stderr")
	flags.BoolVar(&opts.dumpState, "dump-state", false, "print the machine state as JSON upon exit")
	flags.BoolVar(&opts.noRaw, "noraw", false, "disable raw terminal IO")
	flags.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	flags.BoolVar(&opts.quiet, "q", false, "only log errors")
	flags.BoolVar(&opts.version, "version", false, "print version information and exit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] [-i] <image file>\n\n", args[0])
		flags.PrintDefaults()
	}

	if err := flags.Parse(args[1:]); err != nil {
		return opts, err
	}
	if opts.version {
		return opts, nil
	}
	if opts.image == "" && flags.NArg() == 1 {
		opts.image = flags.Arg(0)
	} else if flags.NArg() > 0 {
		flags.Usage()
		return opts, errUsage
	}
	if opts.image == "" {
		flags.Usage()
		return opts, errUsage
	}
	return opts, nil
}

// loadSymbols loads the symbol file given on the command line or, failing
// that, the one next to the image if present.
func loadSymbols(opts options) (*symbols.Table, error) {
	name := opts.symbols
	if name == "" {
		name = config.SymbolFile(opts.image)
		if _, err := os.Stat(name); err != nil {
			return nil, nil
		}
	}
	return symbols.Load(name)
}

func newVM(opts options, logger *log.Logger, in io.Reader, out, trace io.Writer) (*vm.Instance, error) {
	vmOpts := []vm.Option{
		vm.MemorySize(opts.size),
		vm.Input(in),
		vm.Output(out),
		vm.Logger(logger),
	}
	if opts.trace {
		vmOpts = append(vmOpts, vm.Trace(trace))
	}
	i, err := vm.New(vmOpts...)
	if err != nil {
		return nil, err
	}
	if err = vm.LoadImageFile(i.Memory(), opts.image); err != nil {
		return nil, err
	}
	return i, nil
}

var resultMessages = map[vm.Result]string{
	vm.Finished:           "Byte code interpretation successful",
	vm.Error:              "Error during byte code interpretation",
	vm.IllegalInstruction: "Interpreter hit invalid instruction",
}

// run loads the image and runs it to completion, or hands it over to the
// debugger.
func run(ctx context.Context, logger *log.Logger, opts options, stdin io.Reader, stdout, stderr io.Writer) (vm.Result, error) {
	out := bufio.NewWriter(stdout)
	defer out.Flush()
	in := bufio.NewReader(stdin)

	i, err := newVM(opts, logger, in, out, stderr)
	if err != nil {
		return vm.Error, err
	}
	syms, err := loadSymbols(opts)
	if err != nil {
		return vm.Error, err
	}
	logger.Debug("Image loaded",
		log.String("image", opts.image),
		log.Int("symbols", syms.Len()))

	var res vm.Result
	if opts.debug {
		res, err = newDebugger(i, syms, in, out, logger).run(ctx)
	} else {
		res, err = i.RunContext(ctx)
		if msg, ok := resultMessages[res]; ok && err == nil {
			fmt.Fprintf(out, "\n%s\n", msg)
		}
	}
	if err == nil && opts.dumpState {
		err = eforth.DumpState(i, out)
	}
	if err != nil {
		logger.Debug("Execution stopped",
			log.Hex("pc", i.State().Registers[vm.PC]),
			log.Int("instructions", int(i.InstructionCount())))
	}
	return res, err
}

func realMain() int {
	opts, err := parseFlags(os.Args, os.Stderr)
	if err == flag.ErrHelp {
		return 0
	}
	if err != nil {
		return 2
	}
	if opts.version {
		fmt.Printf("forthvm version: %s\n", buildinfo.Version(version, commit, date))
		return 0
	}
	logger := config.CreateLogger(opts.verbose, opts.quiet)
	ctx := app.Context()

	if !opts.debug {
		if tearDown := setupIO(opts.noRaw, logger); tearDown != nil {
			defer tearDown()
		}
	}

	res, err := run(ctx, logger, opts, os.Stdin, os.Stdout, os.Stderr)
	switch {
	case errors.Cause(err) == context.Canceled:
		logger.Info("Execution cancelled")
	case err != nil:
		if opts.verbose {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		}
		logger.Error("Execution failed", log.Err(err))
		return 1
	case res == vm.Error || res == vm.IllegalInstruction || res == vm.Fault:
		return 1
	}
	return 0
}

func main() {
	os.Exit(realMain())
}
