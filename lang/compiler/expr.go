package compiler

import (
	"strconv"
	"strings"

	"github.com/loxlang/lox/lang/token"
	"github.com/loxlang/lox/lang/types"
)

// precedence mirrors spec.md §4.2's Pratt table, lowest to highest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . () []
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:        {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
		token.LBRACK:        {infix: (*Compiler).index, precedence: precCall},
		token.LBRACE:        {prefix: (*Compiler).arrayLiteral},
		token.DOT:           {infix: (*Compiler).dot, precedence: precCall},
		token.MINUS:         {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
		token.PLUS:          {infix: (*Compiler).binary, precedence: precTerm},
		token.SLASH:         {infix: (*Compiler).binary, precedence: precFactor},
		token.STAR:          {infix: (*Compiler).binary, precedence: precFactor},
		token.BANG:          {prefix: (*Compiler).unary},
		token.BANG_EQUAL:    {infix: (*Compiler).binary, precedence: precEquality},
		token.EQUAL_EQUAL:   {infix: (*Compiler).binary, precedence: precEquality},
		token.GREATER:       {infix: (*Compiler).binary, precedence: precComparison},
		token.GREATER_EQUAL: {infix: (*Compiler).binary, precedence: precComparison},
		token.LESS:          {infix: (*Compiler).binary, precedence: precComparison},
		token.LESS_EQUAL:    {infix: (*Compiler).binary, precedence: precComparison},
		token.IDENT:         {prefix: (*Compiler).variable},
		token.STRING:        {prefix: (*Compiler).stringLiteral},
		token.NUMBER:        {prefix: (*Compiler).number},
		token.AND:           {infix: (*Compiler).and},
		token.OR:            {infix: (*Compiler).or},
		token.FALSE:         {prefix: (*Compiler).literal},
		token.NIL:           {prefix: (*Compiler).literal},
		token.TRUE:          {prefix: (*Compiler).literal},
		token.THIS:          {prefix: (*Compiler).this},
		token.SUPER:         {prefix: (*Compiler).super},
	}
}

func ruleFor(k token.Kind) parseRule { return rules[k] }

func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Kind).prefix
	if prefix == nil {
		c.error("expect expression")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= ruleFor(c.current.Kind).precedence {
		c.advance()
		infix := ruleFor(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.EQUAL) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPAREN, "expect ')' after expression")
}

func (c *Compiler) number(_ bool) {
	v, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(types.NumberValue(v))
}

// stringLiteral strips the surrounding quotes the scanner leaves in the
// lexeme and resolves escape sequences \n \t \\ \" (spec.md §2). The scanner
// ends a string at the first '"', so a lexeme never contains an escaped
// quote and the \" case is not reached from source text.
func (c *Compiler) stringLiteral(_ bool) {
	raw := c.previous.Lexeme
	raw = raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				b.WriteByte('\\')
				b.WriteByte(raw[i])
			}
			continue
		}
		b.WriteByte(raw[i])
	}
	c.emitConstant(types.ObjValue(c.heap.NewString(b.String())))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(OpFalse)
	case token.NIL:
		c.emitOp(OpNil)
	case token.TRUE:
		c.emitOp(OpTrue)
	}
}

func (c *Compiler) unary(_ bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch opKind {
	case token.BANG:
		c.emitOp(OpNot)
	case token.MINUS:
		c.emitOp(OpNegate)
	}
}

func (c *Compiler) binary(_ bool) {
	opKind := c.previous.Kind
	rule := ruleFor(opKind)
	c.parsePrecedence(rule.precedence + 1)

	switch opKind {
	case token.BANG_EQUAL:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.EQUAL_EQUAL:
		c.emitOp(OpEqual)
	case token.GREATER:
		c.emitOp(OpGreater)
	case token.GREATER_EQUAL:
		c.emitOp(OpLess)
		c.emitOp(OpNot)
	case token.LESS:
		c.emitOp(OpLess)
	case token.LESS_EQUAL:
		c.emitOp(OpGreater)
		c.emitOp(OpNot)
	case token.PLUS:
		c.emitOp(OpAdd)
	case token.MINUS:
		c.emitOp(OpSubtract)
	case token.STAR:
		c.emitOp(OpMultiply)
	case token.SLASH:
		c.emitOp(OpDivide)
	}
}

// and/or short-circuit: the left operand's truth value decides whether to
// skip the right operand entirely, rather than lowering to a ternary of
// jumps (spec.md §4.2).
func (c *Compiler) and(_ bool) {
	endJump := c.emitJump(OpJumpIfFalse)
	c.emitOp(OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or(_ bool) {
	elseJump := c.emitJump(OpJumpIfFalse)
	endJump := c.emitJump(OpJump)

	c.patchJump(elseJump)
	c.emitOp(OpPop)

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) this(_ bool) {
	if c.class == nil {
		c.error("can't use 'this' outside of a class")
		return
	}
	c.namedVariable("this", false)
}

// super handles both `super.method` and the bare property form used by
// OP_SUPER_INVOKE fusion when the access is immediately called.
func (c *Compiler) super(_ bool) {
	if c.class == nil {
		c.error("can't use 'super' outside of a class")
	} else if !c.class.hasSuperclass {
		c.error("can't use 'super' in a class with no superclass")
	}

	c.consume(token.DOT, "expect '.' after 'super'")
	c.consume(token.IDENT, "expect superclass method name")
	nameConst := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable("this", false)
	if c.match(token.LPAREN) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitOpByte(OpSuperInvoke, nameConst)
		c.emitByte(argCount)
		return
	}
	c.namedVariable("super", false)
	c.emitOpByte(OpGetSuper, nameConst)
}

// call emits either a plain CALL (the common case) or, when the callee
// expression is itself a property access, fuses it into INVOKE — that
// fusion happens in dot(), so call() here only ever follows a primary
// callee already on the stack.
func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitOpByte(OpCall, argCount)
}

func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RPAREN) {
		for {
			c.expression()
			if count == maxLocalsUpvaluesParamsConstants-1 {
				c.error("can't have more than 255 arguments")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RPAREN, "expect ')' after arguments")
	return byte(count)
}

// dot compiles `.name`, fusing a trailing call into OP_INVOKE (spec.md
// §4.2 "INVOKE fuses GET_PROPERTY + CALL").
func (c *Compiler) dot(canAssign bool) {
	c.consume(token.IDENT, "expect property name after '.'")
	nameConst := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(token.EQUAL):
		c.expression()
		c.emitOpByte(OpSetProperty, nameConst)
	case c.match(token.LPAREN):
		argCount := c.argumentList()
		c.emitOpByte(OpInvoke, nameConst)
		c.emitByte(argCount)
	default:
		c.emitOpByte(OpGetProperty, nameConst)
	}
}

// index compiles `expr[expr]`, the subscript form shared by arrays and
// strings (spec.md §3 "Indexing").
func (c *Compiler) index(canAssign bool) {
	c.expression()
	c.consume(token.RBRACK, "expect ']' after index")

	if canAssign && c.match(token.EQUAL) {
		c.expression()
		c.emitOp(OpSetIndex)
	} else {
		c.emitOp(OpGetIndex)
	}
}

// arrayLiteral compiles `{e1, e2, ...}` into a run of pushed elements
// followed by OP_ARRAY <count> (spec.md §4.2 "Literals"). The opening
// brace is only ever reached here in expression position — statement()
// claims a leading '{' as a block before expression parsing ever sees it.
func (c *Compiler) arrayLiteral(_ bool) {
	var count int
	if !c.check(token.RBRACE) {
		for {
			c.expression()
			if count >= maxLocalsUpvaluesParamsConstants-1 {
				c.error("can't have more than 255 elements in an array literal")
			}
			count++
			if !c.match(token.COMMA) {
				break
			}
		}
	}
	c.consume(token.RBRACE, "expect '}' after array elements")
	c.emitOpByte(OpArray, byte(count))
}
