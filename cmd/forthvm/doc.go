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

// The forthvm command line tool loads a byte code image into the VM and runs
// it, or steps through it in an interactive debugger.
//
// Usage:
//
//	forthvm [options] [-i] <image file>
//
//	-d
//		  start in debugging mode
//	-dump-state
//		  print the machine state as JSON upon exit
//	-i file
//		  binary file containing byte code
//	-noraw
//		  disable raw terminal IO
//	-q
//		  only log errors
//	-size int
//		  size in bytes of main memory and of each stack (default 32768)
//	-sym file
//		  symbol file to load (default: image file name with a .sym extension, if it exists)
//	-trace
//		  trace executed instructions to stderr
//	-v
//		  enable debug logging
//	-version
//		  print version information and exit
//
// -noraw: upon startup, forthvm switches the terminal to raw mode unless stdin
// has been redirected. In raw mode, CTRL-C is passed to the program as a 0x03
// byte and ends it the next time it reads from the console.
//
// -dump-state: after the program stops, a single JSON line with the registers,
// the carry flag and the contents of both stacks is written to stdout:
//
//	{"registers":{"acc1":65,...},"carry":false,"dataStack":[65],"returnStack":[]}
//
// -d: the debugger shows the registers, the symbols whose range contains wp
// and ip, and the next instruction, then reads commands from stdin. Type h
// at the prompt for the list of commands.
package main
