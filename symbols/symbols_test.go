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

package symbols_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Jokymon/forth-vm-sim/symbols"
	"github.com/retroenv/retrogolib/assert"
)

const table = `docol,0,22
dup,22,40
# nested range
dup_body,32,40
drop,40,0x40
`

func TestRead(t *testing.T) {
	tb, err := symbols.Read(strings.NewReader(table))
	assert.NoError(t, err)
	assert.Equal(t, 4, tb.Len())
	s, ok := tb.Lookup("drop")
	assert.True(t, ok)
	assert.Equal(t, symbols.Symbol{Name: "drop", Start: 40, End: 64}, s)
	_, ok = tb.Lookup("swap")
	assert.False(t, ok)
}

func TestAtEndExclusive(t *testing.T) {
	tb, err := symbols.Read(strings.NewReader(table))
	assert.NoError(t, err)
	tests := [...]struct {
		addr uint32
		want string
	}{
		{0, "docol"},
		{21, "docol"},
		{22, "dup"},
		{32, "dup dup_body"},
		{39, "dup dup_body"},
		{40, "drop"},
		{64, ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, tb.Names(test.addr, " "))
	}
}

func TestReadErrors(t *testing.T) {
	for _, in := range []string{
		"a,1\n",
		"a,x,2\n",
		"a,1,y\n",
		"a,4,2\n",
	} {
		_, err := symbols.Read(strings.NewReader(in))
		assert.Error(t, err, in)
	}
}

func TestNilTable(t *testing.T) {
	var tb *symbols.Table
	assert.Equal(t, 0, tb.Len())
	assert.Equal(t, 0, len(tb.At(0)))
	assert.Equal(t, "", tb.Names(0, ","))
}

func TestSaveLoad(t *testing.T) {
	tb := symbols.New(
		symbols.Symbol{Name: "a", Start: 0, End: 10},
		symbols.Symbol{Name: "b", Start: 10, End: 0x8000})
	var b bytes.Buffer
	assert.NoError(t, tb.Write(&b))
	assert.Equal(t, "a,0,10\nb,10,32768\n", b.String())

	name := filepath.Join(t.TempDir(), "image.sym")
	assert.NoError(t, tb.Save(name))
	tb2, err := symbols.Load(name)
	assert.NoError(t, err)
	assert.Equal(t, tb.Symbols(), tb2.Symbols())
}
