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

// The fasm command assembles a source file into a byte code image for
// forthvm. See package asm for the source syntax.
//
// Usage:
//
//	fasm [options] <source file>
//
//	-l
//		  write a listing of the image to stdout
//	-o file
//		  output image file (default: input file name with a .bin extension)
//	-q
//		  only log errors
//	-sym file
//		  symbol file to write (default: output file name with a .sym extension,
//		  written when words are defined)
//	-v
//		  enable debug logging
//	-version
//		  print version information and exit
//
// Assembly errors are logged one per line, with their position in the source
// file. At most 10 errors are reported.
package main
