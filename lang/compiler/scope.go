package compiler

import "github.com/loxlang/lox/lang/token"

func (c *Compiler) beginScope() { c.cur.scopeDepth++ }

// endScope pops every local declared in the scope just closed, emitting
// CLOSE_UPVALUE for locals that were captured by a nested closure and POP
// for the rest (spec.md §4.2 "Closures").
func (c *Compiler) endScope() {
	c.cur.scopeDepth--
	locals := c.cur.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.cur.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			c.emitOp(OpCloseUpvalue)
		} else {
			c.emitOp(OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	c.cur.locals = locals
}

// declareVariable registers the variable named by the just-consumed
// identifier token as a new local (a no-op at global scope, where
// defineVariable emits DEFINE_GLOBAL instead).
func (c *Compiler) declareVariable(name string) {
	if c.cur.scopeDepth == 0 {
		return
	}
	for i := len(c.cur.locals) - 1; i >= 0; i-- {
		l := c.cur.locals[i]
		if l.depth != uninitialized && l.depth < c.cur.scopeDepth {
			break
		}
		if l.name == name {
			c.error("already a variable with this name in this scope")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if len(c.cur.locals) >= maxLocalsUpvaluesParamsConstants-1 {
		c.error("too many local variables in function")
		return
	}
	c.cur.locals = append(c.cur.locals, local{name: name, depth: uninitialized})
}

// markInitialized sets the most recently declared local's depth to the
// current scope (or, at depth 0, does nothing: there is no local to mark,
// `fun` at top level defines a global).
func (c *Compiler) markInitialized() {
	if c.cur.scopeDepth == 0 {
		return
	}
	c.cur.locals[len(c.cur.locals)-1].depth = c.cur.scopeDepth
}

// resolveLocal implements step 1 of spec.md §4.2's name-lookup order: walk
// locals backward, returning the matching slot, or -1 if not found. Reading
// a local before its initializer has run is an error.
func resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i
		}
	}
	return -1
}

func (c *Compiler) resolveLocalChecked(name string) int {
	slot := resolveLocal(c.cur, name)
	if slot != -1 && c.cur.locals[slot].depth == uninitialized {
		c.error("can't read local variable in its own initializer")
	}
	return slot
}

// addUpvalue records a new upvalue capturing either a local slot (isLocal)
// or an upvalue of the enclosing function, memoizing identical
// (index,isLocal) pairs to the same upvalue index (spec.md §4.2).
func addUpvalue(fs *funcState, index byte, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxLocalsUpvaluesParamsConstants-1 {
		return -1 // caller reports the "too many" error, needs Compiler for line info
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

// resolveUpvalue implements step 2 of spec.md §4.2's name-lookup order: walk
// the enclosing funcState chain. Every level traversed marks the captured
// local isCaptured and synthesizes an upvalue entry that chains up through
// the intermediate functions. The recursive call's *own* returned upvalue
// index is what gets captured going further up the chain — spec.md §9
// flags a clox snapshot that passes the local's slot instead of the
// recursive result as a bug; this does not repeat it.
func (c *Compiler) resolveUpvalue(fs *funcState) func(name string) int {
	var resolve func(fs *funcState, name string) int
	resolve = func(fs *funcState, name string) int {
		if fs.enclosing == nil {
			return -1
		}
		if slot := resolveLocal(fs.enclosing, name); slot != -1 {
			fs.enclosing.locals[slot].isCaptured = true
			idx := addUpvalue(fs, byte(slot), true)
			if idx == -1 {
				c.error("too many closure variables in function")
			}
			return idx
		}
		if enclosingUp := resolve(fs.enclosing, name); enclosingUp != -1 {
			idx := addUpvalue(fs, byte(enclosingUp), false)
			if idx == -1 {
				c.error("too many closure variables in function")
			}
			return idx
		}
		return -1
	}
	return func(name string) int { return resolve(fs, name) }
}

// namedVariable compiles a read or, when canAssign and an '=' follows, a
// write of the identifier name, choosing GET/SET_LOCAL, GET/SET_UPVALUE or
// GET/SET_GLOBAL per the resolution order in spec.md §4.2.
func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp Opcode
	var arg int

	if slot := c.resolveLocalChecked(name); slot != -1 {
		getOp, setOp, arg = OpGetLocal, OpSetLocal, slot
	} else if up := c.resolveUpvalue(c.cur)(name); up != -1 {
		getOp, setOp, arg = OpGetUpvalue, OpSetUpvalue, up
	} else {
		getOp, setOp, arg = OpGetGlobal, OpSetGlobal, int(c.identifierConstant(name))
	}

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOpByte(setOp, byte(arg))
	} else {
		c.emitOpByte(getOp, byte(arg))
	}
}
