package compiler

import (
	"fmt"

	"github.com/loxlang/lox/lang/heap"
	"github.com/loxlang/lox/lang/scanner"
	"github.com/loxlang/lox/lang/token"
	"github.com/loxlang/lox/lang/types"
)

// maxLocalsUpvaluesParamsConstants is the one-byte-operand ceiling spec.md
// §4.2 places on locals, upvalues, parameters, array literal elements and
// constant-pool entries per function.
const maxLocalsUpvaluesParamsConstants = 256

// Error is a single compile-time diagnostic: spec.md §7 format is
// "[line N] Error[ at '<lex>'|at end]: <msg>".
type Error struct {
	Line    int
	Where   string // "" (no token context), "at end", or "at '<lex>'"
	Message string
}

func (e *Error) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[line %d] Error: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error %s: %s", e.Line, e.Where, e.Message)
}

// functionType distinguishes the kind of function currently being
// compiled, which changes how slot 0 and `return` are handled.
type functionType int

const (
	typeFunction functionType = iota
	typeInitializer
	typeMethod
	typeScript
)

// uninitialized marks a declared-but-not-yet-assigned local (spec.md §3):
// reading it inside its own initializer is an error.
const uninitialized = -1

type local struct {
	name       string
	depth      int
	isCaptured bool
}

type upvalueRef struct {
	index   byte
	isLocal bool
}

// funcState is one function body's worth of lexical-scope bookkeeping; it
// forms a parent chain mirroring the nesting of function declarations
// (spec.md §4.2 "Each function body compiles into its own Compiler
// record that forms a parent chain").
type funcState struct {
	enclosing *funcState
	fn        *types.Function
	fnType    functionType

	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler is the single-pass Pratt compiler: parsing and bytecode
// emission happen in the same pass, with no intermediate AST (spec.md §4.2).
type Compiler struct {
	heap    *heap.Heap
	scanner *scanner.Scanner

	current  token.Token
	previous token.Token

	hadError  bool
	panicMode bool
	errs      []error

	cur   *funcState
	class *classState
}

// Compile compiles source into a top-level script Function. On failure it
// returns the errors collected up to and including every synchronized
// recovery point (spec.md §4.2 "Error recovery"); no bytecode from a failed
// compile should be executed.
func Compile(h *heap.Heap, source string) (*types.Function, []error) {
	c := &Compiler{heap: h, scanner: scanner.New(source)}
	c.pushFunc(typeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endFunc()
	if c.hadError {
		return nil, c.errs
	}
	return fn, nil
}

// --- function compiler stack -------------------------------------------------

func (c *Compiler) pushFunc(fnType functionType, name string) {
	fn := c.heap.NewFunction()
	if name != "" {
		fn.Name = c.heap.NewString(name)
	}
	fs := &funcState{enclosing: c.cur, fn: fn, fnType: fnType}
	// Slot 0 is reserved: `this` inside methods/initializers, an empty
	// sentinel everywhere else (spec.md §4.2).
	slot0 := local{depth: 0}
	if fnType == typeMethod || fnType == typeInitializer {
		slot0.name = "this"
	}
	fs.locals = append(fs.locals, slot0)
	c.cur = fs
}

func (c *Compiler) endFunc() *types.Function {
	c.emitReturn()
	fn := c.cur.fn
	fn.UpvalueCount = len(c.cur.upvalues)
	c.cur = c.cur.enclosing
	return fn
}

func (c *Compiler) chunk() *types.Chunk { return &c.cur.fn.Chunk }

// --- token stream -------------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.Scan()
		if c.current.Kind != token.ILLEGAL {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind token.Kind) bool { return c.current.Kind == kind }

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

// --- error reporting & recovery -------------------------------------------

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch tok.Kind {
	case token.EOF:
		where = "at end"
	case token.ILLEGAL:
		// lexeme already carries the scanner's own message
	default:
		where = fmt.Sprintf("at '%s'", tok.Lexeme)
	}
	c.errs = append(c.errs, &Error{Line: tok.Line, Where: where, Message: msg})
}

// synchronize discards tokens until a statement boundary, matching
// spec.md §4.2 "Error recovery".
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}

// --- bytecode emission ----------------------------------------------------

func (c *Compiler) emitByte(b byte) { c.chunk().Write(b, c.previous.Line) }

func (c *Compiler) emitOp(op Opcode) { c.emitByte(byte(op)) }

func (c *Compiler) emitOpByte(op Opcode, operand byte) {
	c.emitByte(byte(op))
	c.emitByte(operand)
}

func (c *Compiler) emitReturn() {
	if c.cur.fnType == typeInitializer {
		c.emitOpByte(OpGetLocal, 0) // `return this;` implicitly, for init()
	} else {
		c.emitOp(OpNil)
	}
	c.emitOp(OpReturn)
}

// makeConstant adds v to the current chunk's constant pool, enforcing the
// 256-entry limit (spec.md §4.2).
func (c *Compiler) makeConstant(v types.Value) byte {
	if len(c.chunk().Constants) >= maxLocalsUpvaluesParamsConstants {
		c.error("too many constants in one chunk")
		return 0
	}
	return byte(c.chunk().AddConstant(v))
}

func (c *Compiler) emitConstant(v types.Value) {
	c.emitOpByte(OpConstant, c.makeConstant(v))
}

// identifierConstant interns name and returns its constant-pool index,
// reusing an existing entry for the same string when one is already in
// the pool (spec.md §4.2 "Identifier interning"): a linear scan bounded by
// the 256-entry per-chunk limit.
func (c *Compiler) identifierConstant(name string) byte {
	interned := c.heap.NewString(name)
	for i, v := range c.chunk().Constants {
		if v.IsObjType(types.ObjStringT) && v.AsObj() == types.Object(interned) {
			return byte(i)
		}
	}
	return c.makeConstant(types.ObjValue(interned))
}

func (c *Compiler) emitJump(op Opcode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("too much code to jump over")
	}
	c.chunk().Code[offset] = byte(jump>>8) & 0xff
	c.chunk().Code[offset+1] = byte(jump) & 0xff
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("loop body too large")
	}
	c.emitByte(byte(offset>>8) & 0xff)
	c.emitByte(byte(offset) & 0xff)
}
