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
	"os"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/term"
)

// setupIO switches the console to raw IO unless disabled or stdin is not a
// terminal. It returns the function restoring the terminal, or nil.
func setupIO(noRaw bool, logger *log.Logger) (tearDown func()) {
	if noRaw || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	tearDown, err := setRawIO()
	if err != nil {
		logger.Debug("Raw terminal IO not available", log.Err(err))
		return nil
	}
	return tearDown
}
