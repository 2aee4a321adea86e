package compiler

import (
	"github.com/cilix/Holly/bytecode"
	"github.com/cilix/Holly/lexer"
	"github.com/cilix/Holly/value"
)

// binopInfo maps a binary-operator token to its opcode and precedence
// level: multiplicative > additive > shift > comparison > equality >
// bitwise-and > bitwise-xor > bitwise-or > logical-and > logical-or >
// concat. Higher number binds tighter. Assignment is not a binop: it only
// appears at statement level, so it has no entry here.
var binopInfo = map[lexer.Kind]struct {
	op   bytecode.Op
	prec int
}{
	lexer.DOTDOT:  {bytecode.CONCAT, 0},
	lexer.OR:      {bytecode.OR, 1},
	lexer.AND:     {bytecode.AND, 2},
	lexer.PIPE:    {bytecode.BOR, 3},
	lexer.CARET:   {bytecode.BXOR, 4},
	lexer.AMP:     {bytecode.BAND, 5},
	lexer.EQEQ:    {bytecode.EQ, 6},
	lexer.LT:      {bytecode.LT, 7},
	lexer.LE:      {bytecode.LTE, 7},
	lexer.GT:      {bytecode.GT, 7},
	lexer.GE:      {bytecode.GTE, 7},
	lexer.SHL:     {bytecode.SHL, 8},
	lexer.SHR:     {bytecode.SHR, 8},
	lexer.PLUS:    {bytecode.ADD, 9},
	lexer.MINUS:   {bytecode.SUB, 9},
	lexer.STAR:    {bytecode.MULT, 10},
	lexer.SLASH:   {bytecode.DIV, 10},
	lexer.PERCENT: {bytecode.MOD, 10},
}

// compileExpression is the grammar's `expression` production, upgraded
// from the source's right-associative single-precedence recursion to
// precedence climbing, preserving the emission contract (push left, push
// right, emit op).
func (s *State) compileExpression() {
	s.compileBinExpr(0)
}

func (s *State) compileBinExpr(minPrec int) {
	if s.err != nil {
		return
	}
	s.compileUnary()
	for s.err == nil {
		info, ok := binopInfo[s.cur.Kind]
		if !ok || info.prec < minPrec {
			return
		}
		s.advance()
		s.compileBinExpr(info.prec + 1) // left-associative
		s.emit(info.op, 0)
	}
}

// compileUnary binds '!' (NOT), '-' (NEG), and '~' (BNOT) tighter than any
// binary operator, applied to a primary — the natural reading of "unop
// expression" once precedence climbing replaces flat right-recursion; see
// DESIGN.md.
func (s *State) compileUnary() {
	if s.err != nil {
		return
	}
	switch s.cur.Kind {
	case lexer.BANG:
		s.advance()
		s.compileUnary()
		s.emit(bytecode.NOT, 0)
	case lexer.MINUS:
		s.advance()
		s.compileUnary()
		s.emit(bytecode.NEG, 0)
	case lexer.TILDE:
		s.advance()
		s.compileUnary()
		s.emit(bytecode.BNOT, 0)
	default:
		s.compilePrimary()
	}
}

// compilePrimary compiles a literal, parenthesized expression, or `value`
// production (object | array | lambda | Name valuesuffix).
func (s *State) compilePrimary() {
	if s.err != nil {
		return
	}
	switch s.cur.Kind {
	case lexer.NUMBER:
		slot, _ := s.pool.Intern(value.Number(s.cur.Num))
		s.emit(bytecode.PUSHVAL, slot)
		s.advance()
	case lexer.STRING:
		slot, _ := s.pool.Intern(value.String(append([]byte(nil), s.cur.Text...)))
		s.emit(bytecode.PUSHVAL, slot)
		s.advance()
	case lexer.BOOL:
		slot, _ := s.pool.Intern(value.Boolean(s.cur.Num != 0))
		s.emit(bytecode.PUSHVAL, slot)
		s.advance()
	case lexer.NIL:
		slot, _ := s.pool.Intern(value.Nil)
		s.emit(bytecode.PUSHVAL, slot)
		s.advance()
	case lexer.LPAREN:
		s.advance()
		s.compileExpression()
		s.expect(lexer.RPAREN)
	case lexer.LBRACE:
		s.compileObjectLiteral()
	case lexer.LBRACKET:
		s.compileArrayLiteral()
	case lexer.FN:
		s.compileLambdaValue()
	case lexer.NAME:
		nameTok := s.expect(lexer.NAME)
		s.compileNameValueLoad(nameTok)
	default:
		s.fail(ErrParseUnexpectedToken, "unexpected "+s.cur.Kind.String()+" in expression")
	}
}

// compileNameValueLoad compiles `Name valuesuffix` as an rvalue: GLOCAL
// followed by a chain of loads (FIELD/INDEX/CALL), unconditionally.
func (s *State) compileNameValueLoad(nameTok lexer.Token) {
	nameSlot := s.internString(nameTok.Text)
	s.emit(bytecode.GLOCAL, nameSlot)
	for s.err == nil && s.suffixContinues() {
		switch {
		case s.at(lexer.DOT) || s.at(lexer.COLON):
			s.advance()
			fieldTok := s.expect(lexer.NAME)
			fieldSlot := s.internString(fieldTok.Text)
			s.emit(bytecode.FIELD, fieldSlot)
		case s.at(lexer.LBRACKET):
			s.advance()
			s.compileExpression()
			s.expect(lexer.RBRACKET)
			s.emit(bytecode.INDEX, 0)
		case s.at(lexer.LPAREN):
			s.advance()
			n := s.compileArgList()
			s.expect(lexer.RPAREN)
			s.emit(bytecode.CALL, uint16(n))
		}
	}
}

// compileLambdaValue compiles `lambda ::= 'fn' namelist ('->' expression |
// block)` used inline as a value, e.g. `let f = fn a, b -> a + b`.
func (s *State) compileLambdaValue() {
	s.expect(lexer.FN)
	params := s.parseNamelist()
	fs := s.compileFnBody("lambda", params)
	slot, ok := s.pool.Intern(value.Func(fs))
	if !ok {
		s.fail(ErrAllocationFailure, "constant pool exhausted")
		return
	}
	s.emit(bytecode.PUSHVAL, slot)
}

// compileArrayLiteral compiles `array ::= '[' [ expressionlist ] ']'`.
func (s *State) compileArrayLiteral() {
	s.expect(lexer.LBRACKET)
	n := 0
	if !s.at(lexer.RBRACKET) {
		s.compileExpression()
		n++
		for s.at(lexer.COMMA) {
			s.advance()
			s.compileExpression()
			n++
		}
	}
	s.expect(lexer.RBRACKET)
	s.emit(bytecode.ARRAYNEW, uint16(n))
}

// compileObjectLiteral compiles `object ::= '{' [ pairlist ] '}'`. Field
// names are known at compile time, so they are interned as an ordered
// Array-of-String constant and OBJECTNEW's operand points at it; the VM
// pops as many values as that array holds and zips them with the names.
func (s *State) compileObjectLiteral() {
	s.expect(lexer.LBRACE)
	var names []value.Value
	if !s.at(lexer.RBRACE) {
		names = append(names, s.compilePair())
		for s.at(lexer.COMMA) {
			s.advance()
			names = append(names, s.compilePair())
		}
	}
	s.expect(lexer.RBRACE)
	namesSlot, ok := s.pool.Intern(value.Arr(value.NewArray(names)))
	if !ok {
		s.fail(ErrAllocationFailure, "constant pool exhausted")
		return
	}
	s.emit(bytecode.OBJECTNEW, namesSlot)
}

// compilePair compiles one `Name ':' expression` pairlist element, pushing
// the value and returning the field-name Value for the names array.
func (s *State) compilePair() value.Value {
	nameTok := s.expect(lexer.NAME)
	s.expect(lexer.COLON)
	s.compileExpression()
	return value.String(append([]byte(nil), nameTok.Text...))
}
