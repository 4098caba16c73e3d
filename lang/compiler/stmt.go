package compiler

import (
	"github.com/loxlang/lox/lang/token"
	"github.com/loxlang/lox/lang/types"
)

func (c *Compiler) declaration() {
	switch {
	case c.match(token.CLASS):
		c.classDeclaration()
	case c.match(token.FUN):
		c.funDeclaration()
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.FOR):
		c.forStatement()
	case c.match(token.IF):
		c.ifStatement()
	case c.match(token.RETURN):
		c.returnStatement()
	case c.match(token.WHILE):
		c.whileStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "expect '}' after block")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after value")
	c.emitOp(OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after expression")
	c.emitOp(OpPop)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LPAREN, "expect '(' after 'if'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	thenJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()

	elseJump := c.emitJump(OpJump)
	c.patchJump(thenJump)
	c.emitOp(OpPop)

	if c.match(token.ELSE) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(token.LPAREN, "expect '(' after 'while'")
	c.expression()
	c.consume(token.RPAREN, "expect ')' after condition")

	exitJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(OpPop)
}

// forStatement lowers for(init; cond; incr) body per spec.md §4.2: when an
// increment clause is present, it is compiled ahead of the body behind an
// unconditional jump, and the loop-back target is redirected to the
// increment block so it runs after the body, before the condition re-test.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LPAREN, "expect '(' after 'for'")

	switch {
	case c.match(token.SEMICOLON):
		// no initializer
	case c.match(token.VAR):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.chunk().Code)
	exitJump := -1
	if !c.match(token.SEMICOLON) {
		c.expression()
		c.consume(token.SEMICOLON, "expect ';' after loop condition")
		exitJump = c.emitJump(OpJumpIfFalse)
		c.emitOp(OpPop)
	}

	if !c.match(token.RPAREN) {
		bodyJump := c.emitJump(OpJump)
		incrementStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(OpPop)
		c.consume(token.RPAREN, "expect ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(OpPop)
	}
	c.endScope()
}

func (c *Compiler) returnStatement() {
	if c.cur.fnType == typeScript {
		c.error("can't return from top-level code")
	}
	if c.match(token.SEMICOLON) {
		c.emitReturn()
		return
	}
	if c.cur.fnType == typeInitializer {
		c.error("can't return a value from an initializer")
	}
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after return value")
	c.emitOp(OpReturn)
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("expect variable name")

	if c.match(token.EQUAL) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.SEMICOLON, "expect ';' after variable declaration")
	c.defineVariable(global)
}

// parseVariable consumes an identifier, declares it as a local (or leaves
// it for defineVariable to declare as a global) and returns the constant
// index to use if it turns out to be a global.
func (c *Compiler) parseVariable(errMsg string) byte {
	c.consume(token.IDENT, errMsg)
	name := c.previous.Lexeme
	c.declareVariable(name)
	if c.cur.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) defineVariable(global byte) {
	if c.cur.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOpByte(OpDefineGlobal, global)
}

// funDeclaration: `fun` bindings are marked initialized immediately so the
// body may recursively refer to itself (spec.md §4.2).
func (c *Compiler) funDeclaration() {
	global := c.parseVariable("expect function name")
	c.markInitialized()
	c.function(typeFunction)
	c.defineVariable(global)
}

// function compiles a nested function body into its own funcState, then
// emits CLOSURE in the enclosing chunk followed by one (isLocal, index)
// pair per captured upvalue, in capture order (spec.md §4.2 "Closures").
func (c *Compiler) function(fnType functionType) {
	name := c.previous.Lexeme
	c.pushFunc(fnType, name)
	c.beginScope()

	c.consume(token.LPAREN, "expect '(' after function name")
	if !c.check(token.RPAREN) {
		for {
			c.cur.fn.Arity++
			if c.cur.fn.Arity > maxLocalsUpvaluesParamsConstants-1 {
				c.errorAtCurrent("can't have more than 255 parameters")
			}
			paramConst := c.parseVariable("expect parameter name")
			c.defineVariable(paramConst)
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after parameters")
	c.consume(token.LBRACE, "expect '{' before function body")
	c.block()

	fs := c.cur
	fn := c.endFunc()

	c.emitOpByte(OpClosure, c.makeConstant(types.ObjValue(fn)))
	for _, uv := range fs.upvalues {
		if uv.isLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(uv.index)
	}
}

func (c *Compiler) method() {
	c.consume(token.IDENT, "expect method name")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)

	fnType := typeMethod
	if name == "init" {
		fnType = typeInitializer
	}
	c.function(fnType)
	c.emitOpByte(OpMethod, nameConst)
}

// classDeclaration compiles `class Name [< Super] { method... }`.
func (c *Compiler) classDeclaration() {
	c.consume(token.IDENT, "expect class name")
	name := c.previous.Lexeme
	nameConst := c.identifierConstant(name)
	c.declareVariable(name)

	c.emitOpByte(OpClass, nameConst)
	c.defineVariable(nameConst)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.LESS) {
		c.consume(token.IDENT, "expect superclass name")
		superName := c.previous.Lexeme
		if superName == name {
			c.error("a class can't inherit from itself")
		}
		c.namedVariable(superName, false)

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(name, false)
		c.emitOp(OpInherit)
		cs.hasSuperclass = true
	}

	c.namedVariable(name, false)
	c.consume(token.LBRACE, "expect '{' before class body")
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RBRACE, "expect '}' after class body")
	c.emitOp(OpPop) // pop the class itself, pushed by namedVariable above

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = cs.enclosing
}
