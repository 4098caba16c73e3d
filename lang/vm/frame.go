package vm

import "github.com/loxlang/lox/lang/types"

// framesMax bounds the call-frame stack (spec.md §4.3 "Call frames"); it is
// the recursion-depth ceiling a script can reach before StackOverflow.
const framesMax = 64

// stackMax is the operand-stack ceiling: one value-stack slot budget per
// frame, matching clox's FRAMES_MAX * UINT8_COUNT.
const stackMax = framesMax * 256

// callFrame is one active function invocation: the closure being run, the
// instruction pointer into its chunk, and the base slot the frame's locals
// start at within the shared value stack (spec.md §4.3).
type callFrame struct {
	closure   *types.Closure
	ip        int
	slotsBase int
}

func (f *callFrame) chunk() *types.Chunk { return &f.closure.Function.Chunk }

func (f *callFrame) readByte() byte {
	b := f.chunk().Code[f.ip]
	f.ip++
	return b
}

func (f *callFrame) readShort() int {
	hi := f.chunk().Code[f.ip]
	lo := f.chunk().Code[f.ip+1]
	f.ip += 2
	return int(hi)<<8 | int(lo)
}

func (f *callFrame) readConstant() types.Value {
	return f.chunk().Constants[f.readByte()]
}

func (f *callFrame) readString() *types.String {
	return f.readConstant().AsObj().(*types.String)
}
