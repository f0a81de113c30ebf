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

package asm

import (
	"strconv"
	"text/scanner"

	"github.com/Jokymon/forth-vm-sim/vm"
	"github.com/pkg/errors"
)

type cursor struct {
	toks []token
	i    int
	p    *parser
	prev token
}

func (c *cursor) peek() token {
	if c.i < len(c.toks) {
		return c.toks[c.i]
	}
	pos := c.prev.pos
	pos.Column += len(c.prev.text)
	return token{tok: scanner.EOF, text: "end of line", pos: pos}
}

func (c *cursor) next() token {
	t := c.peek()
	if c.i < len(c.toks) {
		c.prev = t
		c.i++
	}
	return t
}

func (c *cursor) is(ch rune) bool { return c.peek().tok == ch }

func (c *cursor) eol() bool { return c.i >= len(c.toks) }

func (c *cursor) expect(ch rune) bool {
	t := c.next()
	if t.tok != ch {
		c.p.errorf(t.pos, "expected %q, got %q", string(ch), t.text)
		return false
	}
	return true
}

// end checks that all tokens have been consumed.
func (c *cursor) end() bool {
	if !c.eol() {
		t := c.peek()
		c.p.errorf(t.pos, "unexpected %q at end of line", t.text)
		return false
	}
	return true
}

func (c *cursor) register() (vm.Register, bool) {
	if !c.expect('%') {
		return 0, false
	}
	t := c.next()
	r, ok := vm.RegisterByName(t.text)
	if t.tok != scanner.Ident || !ok {
		c.p.errorf(t.pos, "unknown register %q", t.text)
		return 0, false
	}
	return r, true
}

// registers parses n comma separated registers.
func (c *cursor) registers(n int) ([]vm.Register, bool) {
	rs := make([]vm.Register, n)
	for i := range rs {
		if i > 0 && !c.expect(',') {
			return nil, false
		}
		r, ok := c.register()
		if !ok {
			return nil, false
		}
		rs[i] = r
	}
	return rs, true
}

// args parses macro call arguments up to the closing parenthesis.
func (c *cursor) args() ([][]token, bool) {
	var (
		args  [][]token
		cur   []token
		depth int
	)
	for {
		t := c.next()
		switch {
		case t.tok == scanner.EOF:
			c.p.errorf(t.pos, "missing )")
			return nil, false
		case t.tok == ')' && depth == 0:
			if len(cur) > 0 || len(args) > 0 {
				args = append(args, cur)
			}
			return args, true
		case t.tok == ',' && depth == 0:
			args = append(args, cur)
			cur = nil
			continue
		case t.tok == '(' || t.tok == '[':
			depth++
		case t.tok == ')' || t.tok == ']':
			depth--
		}
		cur = append(cur, t)
	}
}

const (
	opReg = iota // %r
	opInd        // [%r]
	opAdj        // [%r++], [--%r]...
	opImm        // expression
)

type operand struct {
	kind int
	reg  vm.Register
	dec  bool
	pre  bool
	e    *node
}

func (o operand) adjBits() byte {
	var b byte
	if o.dec {
		b |= 0x80
	}
	if o.pre {
		b |= 0x40
	}
	return b
}

// adjust accepts "++" or "--".
func (c *cursor) adjust() (dec, ok bool) {
	t := c.peek()
	if (t.tok == '+' || t.tok == '-') && c.i+1 < len(c.toks) && c.toks[c.i+1].tok == t.tok {
		c.next()
		c.next()
		return t.tok == '-', true
	}
	return false, false
}

func (c *cursor) operand() (operand, bool) {
	switch c.peek().tok {
	case '%':
		r, ok := c.register()
		return operand{kind: opReg, reg: r}, ok
	case '[':
		c.next()
		var o operand
		if dec, ok := c.adjust(); ok {
			o.kind, o.dec, o.pre = opAdj, dec, true
		}
		r, ok := c.register()
		if !ok {
			return o, false
		}
		o.reg = r
		if o.kind != opAdj {
			o.kind = opInd
			if dec, ok := c.adjust(); ok {
				o.kind, o.dec = opAdj, dec
			}
		}
		return o, c.expect(']')
	}
	e := c.expr()
	return operand{kind: opImm, e: e}, e != nil
}

// node is an expression tree node.
type node struct {
	op   rune // 'N' number, 'L' label, '$' current address, 'n' negation, '+' or '-'
	v    uint32
	name string
	pos  scanner.Position
	l, r *node
}

func (n *node) isLabel() bool {
	return n.op == 'L'
}

// eval evaluates the expression. dollar is the value of $. Labels that are
// not yet defined are an error; final selects the error message.
func (n *node) eval(p *parser, dollar uint32, final bool) (uint32, error) {
	switch n.op {
	case 'N':
		return n.v, nil
	case '$':
		return dollar, nil
	case 'L':
		if a, ok := p.addrs[n.name]; ok {
			return a, nil
		}
		if final {
			return 0, errors.Errorf("missing label definition for %s", n.name)
		}
		return 0, errors.Errorf("label %s used before its definition", n.name)
	case 'n':
		v, err := n.l.eval(p, dollar, final)
		return -v, err
	}
	l, err := n.l.eval(p, dollar, final)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(p, dollar, final)
	if err != nil {
		return 0, err
	}
	if n.op == '+' {
		return l + r, nil
	}
	return l - r, nil
}

func (c *cursor) expr() *node {
	l := c.term()
	for l != nil && (c.is('+') || c.is('-')) {
		t := c.next()
		r := c.term()
		if r == nil {
			return nil
		}
		l = &node{op: t.tok, pos: t.pos, l: l, r: r}
	}
	return l
}

func (c *cursor) term() *node {
	t := c.next()
	switch t.tok {
	case '#':
		return c.term()
	case '-':
		e := c.term()
		if e == nil {
			return nil
		}
		return &node{op: 'n', pos: t.pos, l: e}
	case '(':
		e := c.expr()
		if e == nil || !c.expect(')') {
			return nil
		}
		return e
	case '$':
		return &node{op: '$', pos: t.pos}
	case ':':
		n := c.next()
		if n.tok != scanner.Ident {
			c.p.errorf(n.pos, "expected label name, got %q", n.text)
			return nil
		}
		return &node{op: 'L', name: n.text, pos: n.pos}
	case scanner.Int:
		v, err := strconv.ParseUint(t.text, 0, 32)
		if err != nil {
			c.p.errorf(t.pos, "invalid number %s", t.text)
			return nil
		}
		return &node{op: 'N', v: uint32(v), pos: t.pos}
	case scanner.Ident:
		if v, ok := c.p.consts[t.text]; ok {
			return &node{op: 'N', v: v, pos: t.pos}
		}
		c.p.errorf(t.pos, "undefined constant %s", t.text)
		return nil
	}
	c.p.errorf(t.pos, "unexpected %q in expression", t.text)
	return nil
}
