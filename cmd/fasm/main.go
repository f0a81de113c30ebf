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
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jokymon/forth-vm-sim/asm"
	"github.com/Jokymon/forth-vm-sim/internal/config"
	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/pkg/errors"
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
	input   string
	output  string
	symbols string
	listing bool
	verbose bool
	quiet   bool
	version bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	var opts options
	flags.StringVar(&opts.output, "o", "", "output image `file` (default: input file name with a .bin extension)")
	flags.StringVar(&opts.symbols, "sym", "", "symbol `file` to write (default: output file name with a .sym extension, written when words are defined)")
	flags.BoolVar(&opts.listing, "l", false, "write a listing of the image to stdout")
	flags.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	flags.BoolVar(&opts.quiet, "q", false, "only log errors")
	flags.BoolVar(&opts.version, "version", false, "print version information and exit")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "usage: %s [options] <source file>\n\n", args[0])
		flags.PrintDefaults()
	}

	if err := flags.Parse(args[1:]); err != nil {
		return opts, err
	}
	if opts.version {
		return opts, nil
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return opts, errUsage
	}
	opts.input = flags.Arg(0)
	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".bin"
	}
	return opts, nil
}

// logAsmErrors logs each assembly error on its own. It reports whether err
// was an assembly error.
func logAsmErrors(logger *log.Logger, err error) bool {
	var errs asm.ErrAsm
	if !errors.As(err, &errs) {
		return false
	}
	for _, e := range errs {
		logger.Error("Assembly error",
			log.String("position", e.Pos.String()),
			log.String("message", e.Msg))
	}
	return true
}

// run assembles the source file and writes the image, the symbol file and
// the optional listing.
func run(logger *log.Logger, opts options, stdout io.Writer) error {
	src, err := os.Open(opts.input)
	if err != nil {
		return errors.Wrap(err, "opening source file")
	}
	defer src.Close()

	img, syms, err := asm.AssembleSymbols(opts.input, bufio.NewReader(src))
	if err != nil {
		return err
	}
	if err = os.WriteFile(opts.output, img, 0o644); err != nil {
		return errors.Wrap(err, "writing image")
	}
	logger.Info("Image written",
		log.String("file", opts.output),
		log.Int("size", len(img)))

	symFile := opts.symbols
	if symFile == "" && syms.Len() > 0 {
		symFile = config.SymbolFile(opts.output)
	}
	if symFile != "" {
		if err = syms.Save(symFile); err != nil {
			return err
		}
		logger.Info("Symbols written",
			log.String("file", symFile),
			log.Int("count", syms.Len()))
	}

	if opts.listing {
		m := vm.NewMemory(len(img))
		if err = m.Load(img); err != nil {
			return err
		}
		out := bufio.NewWriter(stdout)
		if err = asm.DisassembleAll(m, 0, uint32(len(img)), syms, out); err != nil {
			return errors.Wrap(err, "writing listing")
		}
		return out.Flush()
	}
	return nil
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
		fmt.Printf("fasm version: %s\n", buildinfo.Version(version, commit, date))
		return 0
	}
	logger := config.CreateLogger(opts.verbose, opts.quiet)

	if err = run(logger, opts, os.Stdout); err != nil {
		if !logAsmErrors(logger, err) {
			if opts.verbose {
				fmt.Fprintf(os.Stderr, "%+v\n", err)
			}
			logger.Error("Assembly failed", log.Err(err))
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(realMain())
}
