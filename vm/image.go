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
	"os"

	"github.com/pkg/errors"
)

// LoadImageFile loads the raw binary image fileName at address 0 of m.
//
// Images larger than the memory capacity are rejected before reading and m is
// left untouched. The returned error's cause is then ErrImageTooLarge.
func LoadImageFile(m *Memory, fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return errors.Wrap(err, "LoadImageFile")
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "LoadImageFile")
	}
	sz := st.Size()
	if sz > int64(m.Size()) {
		return errors.Wrapf(ErrImageTooLarge, "LoadImageFile %v: %d bytes, capacity %d", fileName, sz, m.Size())
	}
	b := make([]byte, sz)
	if _, err = io.ReadFull(f, b); err != nil {
		return errors.Wrap(err, "LoadImageFile")
	}
	return m.Load(b)
}
