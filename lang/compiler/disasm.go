package compiler

import (
	"fmt"

	"github.com/loxlang/lox/lang/types"
)

// Disassemble renders fn's chunk as a human-readable instruction listing,
// one line per instruction, in the teacher's asm-dump spirit (SPEC_FULL.md
// §2.5) but reading compiled bytecode back out rather than assembling
// text into it. Every nested function reached through an OP_CLOSURE
// constant is disassembled in turn and its lines appended, so the full
// listing covers a script's whole compiled call graph, not just its
// top-level chunk.
func Disassemble(fn *types.Function) []string {
	var lines []string
	code := fn.Chunk.Code
	for offset := 0; offset < len(code); {
		var line string
		prevOffset := offset
		line, offset = disassembleInstruction(fn, offset)
		lines = append(lines, line)

		if Opcode(code[prevOffset]) == OpClosure {
			idx := code[prevOffset+1]
			closureFn := fn.Chunk.Constants[idx].AsObj().(*types.Function)
			lines = append(lines, Disassemble(closureFn)...)
		}
	}
	return lines
}

func disassembleInstruction(fn *types.Function, offset int) (string, int) {
	code := fn.Chunk.Code
	op := Opcode(code[offset])

	switch op {
	case OpConstant:
		idx := code[offset+1]
		return fmt.Sprintf("%04d %s %d '%s'", offset, op, idx, fn.Chunk.Constants[idx].Display()), offset + 2

	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall, OpArray:
		return fmt.Sprintf("%04d %s %d", offset, op, code[offset+1]), offset + 2

	case OpGetGlobal, OpDefineGlobal, OpSetGlobal, OpGetProperty, OpSetProperty,
		OpGetSuper, OpClass, OpMethod:
		idx := code[offset+1]
		name := fn.Chunk.Constants[idx].Display()
		return fmt.Sprintf("%04d %s %d '%s'", offset, op, idx, name), offset + 2

	case OpInvoke, OpSuperInvoke:
		idx := code[offset+1]
		argCount := code[offset+2]
		name := fn.Chunk.Constants[idx].Display()
		return fmt.Sprintf("%04d %s (%d args) %d '%s'", offset, op, argCount, idx, name), offset + 3

	case OpJump, OpJumpIfFalse:
		jumpOffset := int(code[offset+1])<<8 | int(code[offset+2])
		return fmt.Sprintf("%04d %s -> %d", offset, op, offset+3+jumpOffset), offset + 3

	case OpLoop:
		jumpOffset := int(code[offset+1])<<8 | int(code[offset+2])
		return fmt.Sprintf("%04d %s -> %d", offset, op, offset+3-jumpOffset), offset + 3

	case OpClosure:
		idx := code[offset+1]
		next := offset + 2
		closureFn := fn.Chunk.Constants[idx].AsObj().(*types.Function)
		s := fmt.Sprintf("%04d %s %d %s", offset, op, idx, closureFn.Display())
		for i := 0; i < closureFn.UpvalueCount; i++ {
			isLocal := code[next]
			index := code[next+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			s += fmt.Sprintf(" (%s %d)", kind, index)
			next += 2
		}
		return s, next

	default:
		return fmt.Sprintf("%04d %s", offset, op), offset + 1
	}
}
