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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/Jokymon/forth-vm-sim/internal/fvi"
	"github.com/Jokymon/forth-vm-sim/lang/eforth"
	"github.com/Jokymon/forth-vm-sim/symbols"
	"github.com/Jokymon/forth-vm-sim/vm"
)

const maxErrors = 10

// Error is a single assembly error.
type Error struct {
	Pos scanner.Position
	Msg string
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// ErrAsm is the error type returned by Assemble. It holds up to 10 errors.
type ErrAsm []Error

func (e ErrAsm) Error() string {
	s := make([]string, len(e))
	for i := range e {
		s[i] = e[i].Error()
	}
	return strings.Join(s, "\n")
}

func isIdentRune(ch rune, i int) bool {
	return ch == '_' || unicode.IsLetter(ch) || i > 0 && (unicode.IsDigit(ch) || ch == '.')
}

type token struct {
	tok  rune
	text string
	pos  scanner.Position
	end  int // offset of the first byte after the token
}

type srcLine struct {
	text string
	pos  scanner.Position
}

type macro struct {
	params []string
	body   []srcLine
	pos    scanner.Position
}

type fixup struct {
	at     uint32
	size   int  // 1, 2 or 4 bytes
	shift  bool // 5 bit shift amount merged into a register operand byte
	what   string
	e      *node
	dollar uint32
}

type definition struct {
	name  string
	alias string
	start uint32
	kind  string
}

type state int

const (
	stTop state = iota
	stCode
	stWords
	stMacro
)

type parser struct {
	out      []byte
	st       state
	labels   map[string]scanner.Position
	addrs    map[string]uint32
	consts   map[string]uint32
	macros   map[string]*macro
	words    map[string]uint32
	prevWord uint32
	fixups   []fixup
	syms     *symbols.Table
	def      *definition
	mac      *macro
	calls    int
	depth    int
	errs     ErrAsm
}

func newParser() *parser {
	return &parser{
		labels: make(map[string]scanner.Position),
		addrs:  make(map[string]uint32),
		consts: make(map[string]uint32),
		macros: make(map[string]*macro),
		words:  make(map[string]uint32),
		syms:   new(symbols.Table),
	}
}

func (p *parser) errorf(pos scanner.Position, format string, args ...interface{}) {
	if len(p.errs) < maxErrors {
		p.errs = append(p.errs, Error{pos, fmt.Sprintf(format, args...)})
	}
}

func (p *parser) pc() uint32 {
	return uint32(len(p.out))
}

func (p *parser) emit(b ...byte) {
	p.out = append(p.out, b...)
}

func (p *parser) emit32(v uint32) {
	p.emit(byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// fix emits a size bytes placeholder resolved once all labels are known.
func (p *parser) fix(size int, e *node, what string, dollar uint32) {
	p.fixups = append(p.fixups, fixup{at: p.pc(), size: size, what: what, e: e, dollar: dollar})
	p.emit(make([]byte, size)...)
}

func (p *parser) tokenize(line string, pos scanner.Position) []token {
	var s scanner.Scanner
	s.Init(strings.NewReader(line))
	s.Filename = pos.Filename
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	s.IsIdentRune = isIdentRune
	s.Error = func(s *scanner.Scanner, msg string) {
		ep := s.Pos()
		ep.Line = pos.Line
		p.errorf(ep, "%s", msg)
	}
	var toks []token
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		tp := s.Position
		tp.Line = pos.Line
		text := s.TokenText()
		toks = append(toks, token{tok, text, tp, tp.Offset + len(text)})
	}
	return toks
}

// Parse does the parsing and compiling.
func (p *parser) Parse(name string, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	pos := scanner.Position{Filename: name}
	for sc.Scan() && len(p.errs) < maxErrors {
		pos.Line++
		pos.Column = 1
		p.line(sc.Text(), pos)
	}
	if err := sc.Err(); err != nil {
		p.errorf(pos, "%v", err)
	}
	if p.st != stTop {
		p.errorf(pos, "missing end")
	}
	p.resolve()
	if len(p.errs) > 0 {
		return p.errs
	}
	return nil
}

// stripComment removes a trailing // comment from a line of words.
func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func (p *parser) line(text string, pos scanner.Position) {
	switch p.st {
	case stMacro:
		if strings.TrimSpace(stripComment(text)) == "end" {
			p.st, p.mac = stTop, nil
			return
		}
		p.mac.body = append(p.mac.body, srcLine{text, pos})
		return
	case stWords:
		fields := strings.Fields(stripComment(text))
		if len(fields) == 1 && fields[0] == "end" {
			p.endDef()
			return
		}
		for _, f := range fields {
			p.word(f, pos)
		}
		return
	}
	toks := p.tokenize(text, pos)
	if len(toks) == 0 {
		return
	}
	if p.st == stCode {
		if len(toks) == 1 && toks[0].text == "end" {
			if p.def != nil {
				p.endDef()
			}
			p.st = stTop
			return
		}
		p.instruction(toks)
		return
	}
	c := &cursor{toks: toks, p: p}
	t := c.next()
	switch t.text {
	case "codeblock":
		p.st = stCode
	case "const":
		n := c.next()
		if n.tok != scanner.Ident {
			p.errorf(n.pos, "const: expected identifier, got %q", n.text)
			return
		}
		if !c.expect('=') {
			return
		}
		e := c.expr()
		if e == nil {
			return
		}
		v, err := e.eval(p, p.pc(), false)
		if err != nil {
			p.errorf(n.pos, "%v", err)
			return
		}
		if _, ok := p.consts[n.text]; ok {
			p.errorf(n.pos, "constant %s redefined", n.text)
		}
		p.consts[n.text] = v
	case "macro":
		p.macroDef(c)
		return
	case "def":
		p.startDef(text, pos)
		return
	default:
		p.errorf(t.pos, "unexpected %q outside of a code block", t.text)
		return
	}
	c.end()
}

func (p *parser) macroDef(c *cursor) {
	n := c.next()
	if n.tok != scanner.Ident {
		p.errorf(n.pos, "macro: expected identifier, got %q", n.text)
		return
	}
	m := &macro{pos: n.pos}
	if !c.expect('(') {
		return
	}
	for !c.is(')') {
		a := c.next()
		if a.tok != scanner.Ident {
			p.errorf(a.pos, "macro %s: expected parameter name, got %q", n.text, a.text)
			return
		}
		m.params = append(m.params, a.text)
		if !c.is(')') && !c.expect(',') {
			return
		}
	}
	c.next()
	if !c.end() {
		return
	}
	if prev, ok := p.macros[n.text]; ok {
		p.errorf(n.pos, "macro %s redefined, previous definition here: %s", n.text, prev.pos)
	}
	p.macros[n.text] = m
	p.mac = m
	p.st = stMacro
}

func (p *parser) defineLabel(name string, pos scanner.Position) {
	if prev, ok := p.labels[name]; ok {
		p.errorf(pos, "label %s redefined, previous definition here: %s", name, prev)
		return
	}
	if _, ok := p.consts[name]; ok {
		p.errorf(pos, "label %s already defined as a constant", name)
		return
	}
	p.labels[name] = pos
	p.addrs[name] = p.pc()
}

func (p *parser) expand(name string, m *macro, args [][]token, pos scanner.Position) {
	if len(args) != len(m.params) {
		p.errorf(pos, "calling macro with %d parameter(s) where %d are expected", len(args), len(m.params))
		return
	}
	if p.depth >= 16 {
		p.errorf(pos, "macro %s: expansion too deep", name)
		return
	}
	p.calls++
	n := p.calls
	p.depth++
	defer func() { p.depth-- }()
	for _, l := range m.body {
		toks := p.tokenize(l.text, l.pos)
		var out []token
		for i := 0; i < len(toks); i++ {
			t := toks[i]
			switch {
			case t.tok == '@' && i+1 < len(toks) && toks[i+1].tok == scanner.Ident:
				i++
				k := indexOf(m.params, toks[i].text)
				if k < 0 {
					p.errorf(toks[i].pos, "unknown macro argument '%s'", toks[i].text)
					return
				}
				out = append(out, args[k]...)
			case t.tok == '\'' && i+1 < len(toks) && toks[i+1].tok == scanner.Ident:
				i++
				lt := toks[i]
				lt.text = "'" + lt.text + "_" + strconv.Itoa(n)
				lt.pos = t.pos
				out = append(out, lt)
			default:
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			p.instruction(out)
		}
	}
}

func indexOf(a []string, s string) int {
	for i := range a {
		if a[i] == s {
			return i
		}
	}
	return -1
}

// adjacent returns true if b immediately follows a.
func adjacent(a, b token) bool {
	return b.pos.Offset == a.end
}

func (p *parser) instruction(toks []token) {
	t := toks[0]
	if t.tok != scanner.Ident {
		p.errorf(t.pos, "unexpected %q", t.text)
		return
	}
	// label definition
	if len(toks) > 1 && toks[1].tok == ':' && adjacent(t, toks[1]) {
		p.defineLabel(t.text, t.pos)
		if len(toks) > 2 {
			p.instruction(toks[2:])
		}
		return
	}
	c := &cursor{toks: toks[1:], p: p, prev: t}
	// macro call
	if c.is('(') {
		c.next()
		m, ok := p.macros[t.text]
		if !ok {
			p.errorf(t.pos, "undefined macro %s", t.text)
			return
		}
		args, ok := c.args()
		if ok && c.end() {
			p.expand(t.text, m, args, t.pos)
		}
		return
	}
	mn, size := t.text, byte(0)
	if i := strings.IndexByte(mn, '.'); i >= 0 {
		switch mn[i+1:] {
		case "w":
			size = 'w'
		case "b":
			size = 'b'
		default:
			p.errorf(t.pos, "invalid size suffix in %s", mn)
			return
		}
		mn = mn[:i]
	}
	wordOnly := func() bool {
		if size == 'b' {
			p.errorf(t.pos, "%s only supports word-sized mode", mn)
			return false
		}
		return true
	}
	at := p.pc()
	switch mn {
	case "nop":
		p.emit(byte(vm.OpNop))
	case "illegal":
		p.emit(byte(vm.OpIllegal))
	case "ifkt":
		e := c.expr()
		if e == nil {
			return
		}
		p.emit(byte(vm.OpIfkt))
		p.fix(2, e, "ifkt", at)
	case "db":
		p.data(c, 1, at)
	case "dw":
		p.data(c, 4, at)
	case "mov":
		p.mov(c, t, size == 'b', at)
	case "add", "sub", "or", "and", "xor":
		if !wordOnly() {
			return
		}
		r, ok := c.registers(3)
		if !ok {
			return
		}
		p.emit(byte(aluOps[mn]), byte(r[0])<<4|byte(r[1]), byte(r[2]))
	case "sra", "sll":
		if !wordOnly() {
			return
		}
		r, ok := c.register()
		if !ok || !c.expect(',') {
			return
		}
		e := c.expr()
		if e == nil {
			return
		}
		p.emit(byte(aluOps[mn]))
		p.fixups = append(p.fixups, fixup{at: p.pc(), size: 1, shift: true, what: mn, e: e, dollar: at})
		p.emit(byte(r) << 5)
	case "jmp":
		o, ok := c.operand()
		if !ok {
			return
		}
		switch o.kind {
		case opReg:
			p.emit(byte(vm.OpJmpD) + byte(o.reg))
		case opInd:
			p.emit(byte(vm.OpJmpI) + byte(o.reg))
		case opImm:
			p.emit(byte(vm.OpJmp))
			p.fix(4, o.e, mn, at)
		default:
			p.errorf(t.pos, "jmp: invalid operand")
			return
		}
	case "jz", "jc", "call":
		e := c.expr()
		if e == nil {
			return
		}
		p.emit(byte(jumpOps[mn]))
		p.fix(4, e, mn, at)
	case "pushd", "popd", "pushr", "popr":
		if !wordOnly() {
			return
		}
		r, ok := c.register()
		if !ok {
			return
		}
		p.emit(byte(stackOps[mn]) + byte(r))
	default:
		p.errorf(t.pos, "opcode '%s' currently not implemented", mn)
		return
	}
	c.end()
}

var aluOps = map[string]vm.Opcode{
	"add": vm.OpAdd,
	"sub": vm.OpSub,
	"or":  vm.OpOr,
	"and": vm.OpAnd,
	"xor": vm.OpXor,
	"sra": vm.OpSra,
	"sll": vm.OpSll,
}

var jumpOps = map[string]vm.Opcode{
	"jz":   vm.OpJz,
	"jc":   vm.OpJc,
	"call": vm.OpCall,
}

var stackOps = map[string]vm.Opcode{
	"pushd": vm.OpPushD,
	"popd":  vm.OpPopD,
	"pushr": vm.OpPushR,
	"popr":  vm.OpPopR,
}

func (p *parser) data(c *cursor, size int, at uint32) {
	what := "db"
	if size == 4 {
		what = "dw"
	}
	for {
		if t := c.peek(); t.tok == scanner.String && size == 1 {
			c.next()
			s, err := strconv.Unquote(t.text)
			if err != nil {
				p.errorf(t.pos, "invalid string %s", t.text)
				return
			}
			p.emit([]byte(s)...)
		} else {
			e := c.expr()
			if e == nil {
				return
			}
			p.fix(size, e, what, at)
		}
		if !c.is(',') {
			return
		}
		c.next()
	}
}

func (p *parser) mov(c *cursor, t token, byteSized bool, at uint32) {
	dst, ok := c.operand()
	if !ok || !c.expect(',') {
		return
	}
	src, ok := c.operand()
	if !ok {
		return
	}
	var sz byte
	if byteSized {
		sz = 1
	}
	switch {
	case src.kind == opImm:
		if dst.kind != opReg || dst.reg != vm.Acc1 && dst.reg != vm.Acc2 {
			if src.e.isLabel() {
				p.errorf(t.pos, "label can only be moved to acc1 or acc2")
			} else {
				p.errorf(t.pos, "immediate value can only be moved to acc1 or acc2")
			}
			return
		}
		if byteSized {
			p.errorf(t.pos, "immediate moves only support word-sized mode")
			return
		}
		op := vm.OpMovIAcc1
		if dst.reg == vm.Acc2 {
			op = vm.OpMovIAcc2
		}
		p.emit(byte(op))
		p.fix(4, src.e, "mov", at)
	case dst.kind == opAdj && src.kind == opReg:
		p.emit(byte(vm.OpMovSIDW)+sz, dst.adjBits()|byte(dst.reg)<<3|byte(src.reg))
	case dst.kind == opReg && src.kind == opAdj:
		p.emit(byte(vm.OpMovSDIW)+sz, src.adjBits()|byte(dst.reg)<<3|byte(src.reg))
	case dst.kind == opAdj || src.kind == opAdj:
		p.errorf(t.pos, "only one argument can be register indirect for mov")
	case dst.kind == opImm:
		p.errorf(t.pos, "cannot move to an immediate value")
	default:
		var b byte
		if dst.kind == opInd {
			b |= 0x80
		}
		if src.kind == opInd {
			b |= 0x08
		}
		p.emit(byte(vm.OpMovRW)+sz, b|byte(dst.reg)<<4|byte(src.reg))
	}
}

func (p *parser) startDef(text string, pos scanner.Position) {
	text = strings.TrimSpace(stripComment(text))
	rest := strings.TrimSpace(strings.TrimPrefix(text, "def"))
	open := strings.IndexByte(rest, '(')
	cl := strings.IndexByte(rest, ')')
	if open < 0 || cl < open {
		p.errorf(pos, "def: expected (type)")
		return
	}
	head, typ := rest[:open], strings.TrimSpace(rest[open+1:cl])
	var flags uint32
	if i := strings.IndexByte(head, '['); i >= 0 {
		j := strings.LastIndexByte(head, ']')
		if j < i {
			p.errorf(pos, "def: missing ]")
			return
		}
		c := &cursor{toks: p.tokenize(head[i+1:j], pos), p: p}
		for !c.eol() {
			e := c.expr()
			if e == nil {
				return
			}
			v, err := e.eval(p, p.pc(), false)
			if err != nil {
				p.errorf(pos, "%v", err)
				return
			}
			flags |= v
			if !c.eol() && !c.expect(',') {
				return
			}
		}
		head = head[:i]
	}
	kind := strings.TrimSpace(head)
	if kind != "asm" && kind != "word" {
		p.errorf(pos, "def: unknown definition kind %q", kind)
		return
	}
	d := &definition{kind: typ}
	switch f := strings.Fields(rest[cl+1:]); {
	case len(f) == 1:
		d.name = f[0]
	case len(f) == 3 && f[0] == "alias":
		d.alias, d.name = f[1], f[2]
	default:
		p.errorf(pos, "def: expected word name")
		return
	}
	if len(d.name) > eforth.NameMask {
		p.errorf(pos, "def %s: name longer than %d characters", d.name, eforth.NameMask)
		return
	}
	if flags&^(eforth.FlagImmediate|eforth.FlagCompileOnly) != 0 {
		p.errorf(pos, "def %s: invalid flags %s", d.name, fvi.Hex(flags))
		return
	}
	d.start = p.pc()
	p.emit32(p.prevWord)
	p.prevWord = d.start
	p.emit(byte(len(d.name)) | byte(flags))
	p.emit([]byte(d.name)...)
	for _, n := range []string{d.name, d.alias} {
		if n != "" {
			p.defineLabel(strings.ToLower(n)+"_cfa", pos)
			p.words[n] = p.pc()
		}
	}
	p.def = d
	if m, ok := p.macros["__DEF"+strings.ToUpper(typ)+"_CFA"]; ok {
		p.expand("__DEF"+strings.ToUpper(typ)+"_CFA", m, nil, pos)
	}
	if kind == "asm" {
		p.st = stCode
	} else {
		p.st = stWords
	}
}

func (p *parser) endDef() {
	d := p.def
	end := p.pc()
	for _, n := range []string{d.name, d.alias} {
		if n != "" {
			n = strings.ToLower(n)
			p.defineLabel(n+"_end", p.labels[n+"_cfa"])
			p.syms.Add(symbols.Symbol{Name: n, Start: d.start, End: end})
		}
	}
	p.def = nil
	p.st = stTop
}

func parseNumber(s string) (uint32, bool) {
	s = strings.TrimPrefix(s, "#")
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil || v < -1<<31 || v > 1<<32-1 {
		return 0, false
	}
	return uint32(v), true
}

// word compiles one word of a colon definition body.
func (p *parser) word(w string, pos scanner.Position) {
	if cfa, ok := p.words[w]; ok {
		p.emit32(cfa)
		return
	}
	switch {
	case len(w) > 1 && strings.HasSuffix(w, ":"):
		p.defineLabel(w[:len(w)-1], pos)
	case len(w) > 1 && w[0] == ':':
		p.fix(4, &node{op: 'L', name: w[1:], pos: pos}, "word", p.pc())
	default:
		if v, ok := parseNumber(w); ok {
			p.emit32(v)
		} else if v, ok := p.consts[w]; ok {
			p.emit32(v)
		} else {
			p.errorf(pos, "word '%s' not found in current dictionary", w)
		}
	}
}

func (p *parser) resolve() {
	for _, f := range p.fixups {
		v, err := f.e.eval(p, f.dollar, true)
		if err != nil {
			p.errorf(f.e.pos, "%v", err)
			continue
		}
		switch {
		case f.shift:
			if v > 31 {
				p.errorf(f.e.pos, "%s: shift amount %s out of range", f.what, fvi.Hex(v))
				continue
			}
			p.out[f.at] |= byte(v)
		case f.size == 1:
			if v > 0xff && -v > 0x80 {
				p.errorf(f.e.pos, "constant %s is too big for %s", fvi.Hex(v), f.what)
				continue
			}
			p.out[f.at] = byte(v)
		case f.size == 2:
			if v > 0xffff && -v > 0x8000 {
				p.errorf(f.e.pos, "constant %s is too big for %s", fvi.Hex(v), f.what)
				continue
			}
			p.out[f.at], p.out[f.at+1] = byte(v), byte(v>>8)
		default:
			p.out[f.at], p.out[f.at+1], p.out[f.at+2], p.out[f.at+3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
		}
	}
}

