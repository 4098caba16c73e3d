package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loxlang/lox/lang/compiler"
	"github.com/loxlang/lox/lang/heap"
)

func compile(t *testing.T, source string) (*compiler.Error, []string) {
	t.Helper()
	h := heap.New()
	fn, errs := compiler.Compile(h, source)
	if len(errs) > 0 {
		return errs[0].(*compiler.Error), nil
	}
	return nil, compiler.Disassemble(fn)
}

func TestArithmeticPrecedence(t *testing.T) {
	_, listing := compile(t, "1 + 2 * 3;")
	require.NotNil(t, listing)
	assert.Contains(t, listing[0], "OP_CONSTANT 0 '1'")
	assert.Contains(t, listing[1], "OP_CONSTANT 1 '2'")
	assert.Contains(t, listing[2], "OP_CONSTANT 2 '3'")
	assert.Contains(t, listing[3], "OP_MULTIPLY")
	assert.Contains(t, listing[4], "OP_ADD")
	assert.Contains(t, listing[5], "OP_POP")
}

// TestLexicalScopeLocalsVsGlobals grounds spec.md §8 "Lexical scope": a
// block-scoped local compiles to GET_LOCAL, never touching the globals
// table, while a same-named top-level variable does.
func TestLexicalScopeLocalsVsGlobals(t *testing.T) {
	_, listing := compile(t, `
		var x = 1;
		{
			var x = 2;
			print x;
		}
		print x;
	`)
	require.NotNil(t, listing)

	foundLocalGet := false
	foundGlobalGet := false
	for _, line := range listing {
		if strings.Contains(line, "OP_GET_LOCAL") {
			foundLocalGet = true
		}
		if strings.Contains(line, "OP_GET_GLOBAL") {
			foundGlobalGet = true
		}
	}
	assert.True(t, foundLocalGet, "inner x should resolve to a local slot")
	assert.True(t, foundGlobalGet, "outer x should resolve to a global")
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	_, listing := compile(t, `
		fun outer() {
			var x = 1;
			fun inner() {
				return x;
			}
			return inner;
		}
	`)
	require.NotNil(t, listing)

	found := false
	for _, line := range listing {
		if strings.Contains(line, "OP_CLOSURE") && strings.Contains(line, "(local 1)") {
			found = true
		}
	}
	assert.True(t, found, "inner() should capture outer's slot 1 (x, after the reserved slot 0) as a local upvalue")
}

func TestIfElseEmitsJumps(t *testing.T) {
	_, listing := compile(t, `if (true) { 1; } else { 2; }`)
	require.NotNil(t, listing)

	foundJumpIfFalse, foundJump := false, false
	for _, line := range listing {
		if strings.Contains(line, "OP_JUMP_IF_FALSE") {
			foundJumpIfFalse = true
		}
		if strings.Contains(line, "OP_JUMP ") {
			foundJump = true
		}
	}
	assert.True(t, foundJumpIfFalse)
	assert.True(t, foundJump)
}

func TestWhileLoopsBackward(t *testing.T) {
	_, listing := compile(t, `while (true) { 1; }`)
	require.NotNil(t, listing)

	found := false
	for _, line := range listing {
		if strings.Contains(line, "OP_LOOP") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestReadingOwnInitializerIsAnError(t *testing.T) {
	err, _ := compile(t, `{ var a = a; }`)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "own initializer")
}

func TestReturnFromTopLevelIsAnError(t *testing.T) {
	err, _ := compile(t, `return 1;`)
	require.NotNil(t, err)
	assert.Contains(t, err.Message, "return")
}

func TestClassInitCompilesAsInitializer(t *testing.T) {
	_, listing := compile(t, `
		class Point {
			init(x, y) {
				this.x = x;
				this.y = y;
			}
		}
	`)
	require.NotNil(t, listing)

	found := false
	for _, line := range listing {
		if strings.Contains(line, "OP_METHOD") && strings.Contains(line, "'init'") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestArrayLiteralEmitsArrayOp(t *testing.T) {
	_, listing := compile(t, `var a = {1, 2, 3};`)
	require.NotNil(t, listing)

	found := false
	for _, line := range listing {
		if strings.Contains(line, "OP_ARRAY 3") {
			found = true
		}
	}
	assert.True(t, found)
}
