package compiler

import (
	"github.com/cilix/Holly/bytecode"
	"github.com/cilix/Holly/lexer"
	"github.com/cilix/Holly/value"
)

// compileStatementList compiles statement* until a block terminator or EOF.
func (s *State) compileStatementList() {
	for s.err == nil && s.cur.Kind != lexer.RBRACE && s.cur.Kind != lexer.EOF {
		s.compileStatement()
	}
}

func (s *State) compileStatement() {
	if s.err != nil {
		return
	}
	switch s.cur.Kind {
	case lexer.IF:
		s.compileIf()
	case lexer.WHILE:
		s.compileWhile()
	case lexer.FOR:
		s.compileFor()
	case lexer.RETURN:
		s.compileReturn()
	case lexer.BREAK:
		s.compileBreak()
	case lexer.LET:
		s.compileLet()
	case lexer.FN:
		s.compileNamedFn()
	case lexer.LOG:
		s.compileLog()
	case lexer.SEMI:
		s.advance() // tolerate stray statement separators between forms
	case lexer.NAME:
		nameTok := s.expect(lexer.NAME)
		s.compileNameStatement(nameTok)
	default:
		s.fail(ErrParseUnexpectedToken, "unexpected "+s.cur.Kind.String()+" at start of statement")
	}
}

// compileBlock compiles '{' statementlist '}' into a fresh child FuncState,
// interns it, and emits PUSHVAL+CALL at the use site. The returned
// FuncState lets callers wire break/loop-exit targets for while/for
// bodies.
func (s *State) compileBlock(name string) *value.FuncState {
	child := value.NewFuncState(name, s.fs)
	outer := s.fs
	s.fs = child
	s.expect(lexer.LBRACE)
	s.compileStatementList()
	s.expect(lexer.RBRACE)
	s.fs = outer

	slot, ok := s.pool.Intern(value.Func(child))
	if !ok {
		s.fail(ErrAllocationFailure, "constant pool exhausted")
		return child
	}
	s.emit(bytecode.PUSHVAL, slot)
	s.emit(bytecode.CALL, 0)
	return child
}

func (s *State) compileLet() {
	s.expect(lexer.LET)
	nameTok := s.expect(lexer.NAME)
	if s.at(lexer.EQ) {
		s.advance()
		s.compileExpression()
	} else {
		nilSlot, _ := s.pool.Intern(value.Nil)
		s.emit(bytecode.PUSHVAL, nilSlot)
	}
	nameSlot := s.internString(nameTok.Text)
	s.emit(bytecode.SLOCAL, nameSlot)
}

// compileIf emits the standard unconditional-jump-over-else shape rather
// than re-testing the condition after the then-body runs (there is no
// condition value left on the stack to test); see DESIGN.md.
func (s *State) compileIf() {
	s.expect(lexer.IF)
	s.compileExpression()
	jmpfHole := s.emitHole(bytecode.JMPF)
	s.compileBlock("if-body")
	if s.at(lexer.ELSE) {
		s.advance()
		jmpHole := s.emitHole(bytecode.JMP)
		s.patch(jmpfHole)
		if s.at(lexer.IF) {
			s.compileIf()
		} else {
			s.compileBlock("else-body")
		}
		s.patch(jmpHole)
		return
	}
	s.patch(jmpfHole)
}

func (s *State) compileWhile() {
	s.expect(lexer.WHILE)
	loopTop := len(s.fs.Ins)
	s.compileExpression()
	jmpfHole := s.emitHole(bytecode.JMPF)

	s.loopDepth++
	body := s.compileBlock("while-body")
	s.loopDepth--

	jmpIdx := s.emit(bytecode.JMP, 0)
	s.patchTo(jmpIdx, loopTop)

	exitTarget := len(s.fs.Ins)
	s.patch(jmpfHole)
	body.LoopExitTarget = exitTarget
}

// compileFor desugars `for Name in expression block` over hidden "#iter"
// and "#idx" locals iterating an Array value; array-only iteration is
// this implementation's own decision — see DESIGN.md.
func (s *State) compileFor() {
	s.expect(lexer.FOR)
	varTok := s.expect(lexer.NAME)
	s.expect(lexer.IN)
	s.compileExpression()

	iterSlot := s.internString([]byte("#iter"))
	s.emit(bytecode.SLOCAL, iterSlot)

	idxSlot := s.internString([]byte("#idx"))
	zeroSlot, _ := s.pool.Intern(value.Number(0))
	s.emit(bytecode.PUSHVAL, zeroSlot)
	s.emit(bytecode.SLOCAL, idxSlot)

	loopTop := len(s.fs.Ins)
	s.emit(bytecode.GLOCAL, idxSlot)
	s.emit(bytecode.GLOCAL, iterSlot)
	s.emit(bytecode.LEN, 0)
	s.emit(bytecode.LT, 0)
	jmpfHole := s.emitHole(bytecode.JMPF)

	s.emit(bytecode.GLOCAL, iterSlot)
	s.emit(bytecode.GLOCAL, idxSlot)
	s.emit(bytecode.INDEX, 0)
	varSlot := s.internString(varTok.Text)
	s.emit(bytecode.SLOCAL, varSlot)

	s.loopDepth++
	body := s.compileBlock("for-body")
	s.loopDepth--

	s.emit(bytecode.GLOCAL, idxSlot)
	oneSlot, _ := s.pool.Intern(value.Number(1))
	s.emit(bytecode.PUSHVAL, oneSlot)
	s.emit(bytecode.ADD, 0)
	s.emit(bytecode.SLOCAL, idxSlot)

	jmpIdx := s.emit(bytecode.JMP, 0)
	s.patchTo(jmpIdx, loopTop)

	exitTarget := len(s.fs.Ins)
	s.patch(jmpfHole)
	body.LoopExitTarget = exitTarget
}

func (s *State) compileReturn() {
	s.expect(lexer.RETURN)
	s.compileExpression()
	s.emit(bytecode.RETURN, 0)
}

func (s *State) compileBreak() {
	s.expect(lexer.BREAK)
	if s.loopDepth == 0 {
		s.fail(ErrParseUnexpectedToken, "break outside a loop")
		return
	}
	s.emit(bytecode.BREAK, 0)
}

// compileLog reaches the LOG opcode from a `log <expr>` statement form;
// see DESIGN.md for why this keyword was added.
func (s *State) compileLog() {
	s.expect(lexer.LOG)
	s.compileExpression()
	s.emit(bytecode.LOG, 0)
}

func (s *State) compileNamedFn() {
	s.expect(lexer.FN)
	nameTok := s.expect(lexer.NAME)
	params := s.parseNamelist()
	fs := s.compileFnBody(string(nameTok.Text), params)
	slot, ok := s.pool.Intern(value.Func(fs))
	if !ok {
		s.fail(ErrAllocationFailure, "constant pool exhausted")
		return
	}
	s.emit(bytecode.PUSHVAL, slot)
	nameSlot := s.internString(nameTok.Text)
	s.emit(bytecode.SLOCAL, nameSlot)
}

// compileFnBody compiles a lambda/fn body (either `-> expression`, desugared
// to an implicit return, or a block) into a fresh, call-boundary FuncState.
func (s *State) compileFnBody(name string, params []string) *value.FuncState {
	child := value.NewFuncState(name, s.fs)
	child.IsLambda = true
	child.Params = params
	outer := s.fs
	s.fs = child
	if s.at(lexer.ARROW) {
		s.advance()
		s.compileExpression()
		s.emit(bytecode.RETURN, 0)
	} else {
		s.expect(lexer.LBRACE)
		s.compileStatementList()
		s.expect(lexer.RBRACE)
	}
	s.fs = outer
	return child
}

// compileNameStatement compiles `Name valuesuffix [ assignment expression ]`,
// deciding target addressing (field store vs index store vs local rebind)
// at the final suffix element; see DESIGN.md.
func (s *State) compileNameStatement(nameTok lexer.Token) {
	nameSlot := s.internString(nameTok.Text)
	s.emit(bytecode.GLOCAL, nameSlot)

	for s.err == nil {
		switch {
		case s.at(lexer.DOT) || s.at(lexer.COLON):
			s.advance()
			fieldTok := s.expect(lexer.NAME)
			fieldSlot := s.internString(fieldTok.Text)
			if s.suffixContinues() {
				s.emit(bytecode.FIELD, fieldSlot)
				continue
			}
			if isAssign, _, plain := assignOp(s.cur.Kind); isAssign {
				if !plain {
					s.fail(ErrParseUnexpectedToken, "compound assignment to a field target is not supported")
					return
				}
				s.advance()
				s.compileExpression()
				s.emit(bytecode.OBJSET, fieldSlot)
				return
			}
			s.emit(bytecode.FIELD, fieldSlot)
			s.emit(bytecode.POP, 0)
			return

		case s.at(lexer.LBRACKET):
			s.advance()
			s.compileExpression()
			s.expect(lexer.RBRACKET)
			if s.suffixContinues() {
				s.emit(bytecode.INDEX, 0)
				continue
			}
			if isAssign, _, plain := assignOp(s.cur.Kind); isAssign {
				if !plain {
					s.fail(ErrParseUnexpectedToken, "compound assignment to an index target is not supported")
					return
				}
				s.advance()
				s.compileExpression()
				s.emit(bytecode.ARRSET, 0)
				return
			}
			s.emit(bytecode.INDEX, 0)
			s.emit(bytecode.POP, 0)
			return

		case s.at(lexer.LPAREN):
			s.advance()
			n := s.compileArgList()
			s.expect(lexer.RPAREN)
			s.emit(bytecode.CALL, uint16(n))
			if s.suffixContinues() {
				continue
			}
			if isAssign, _, _ := assignOp(s.cur.Kind); isAssign {
				s.fail(ErrParseUnexpectedToken, "cannot assign to a call result")
				return
			}
			s.emit(bytecode.POP, 0)
			return

		default:
			if isAssign, compound, plain := assignOp(s.cur.Kind); isAssign {
				s.advance()
				if plain {
					s.emit(bytecode.POP, 0) // discard the unused base load
					s.compileExpression()
					s.emit(bytecode.SETLOCAL, nameSlot)
					return
				}
				s.compileExpression()
				s.emit(compound, 0)
				s.emit(bytecode.SETLOCAL, nameSlot)
				return
			}
			s.emit(bytecode.POP, 0)
			return
		}
	}
}

// compileArgList compiles a comma-separated expressionlist, pushing each
// argument value in left-to-right order, and returns the count.
func (s *State) compileArgList() int {
	n := 0
	if s.at(lexer.RPAREN) {
		return 0
	}
	s.compileExpression()
	n++
	for s.at(lexer.COMMA) {
		s.advance()
		s.compileExpression()
		n++
	}
	return n
}

// parseNamelist compiles namelist ::= Name [':' type] { ',' Name [':' type] }.
// Type hints are checked for well-formedness but not enforced at runtime
// (no type-checking system is specified).
func (s *State) parseNamelist() []string {
	var names []string
	if !s.at(lexer.NAME) {
		return names
	}
	for {
		tok := s.expect(lexer.NAME)
		names = append(names, string(tok.Text))
		if s.at(lexer.COLON) {
			s.advance()
			if !isTypeToken(s.cur.Kind) {
				s.fail(ErrParseExpectedType, "expected a type name after ':'")
				return names
			}
			s.advance()
		}
		if !s.at(lexer.COMMA) {
			break
		}
		s.advance()
	}
	return names
}

func isTypeToken(k lexer.Kind) bool {
	switch k {
	case lexer.TYPE_STRING, lexer.TYPE_NUMBER, lexer.TYPE_OBJECT, lexer.TYPE_ARRAY,
		lexer.TYPE_BOOLEAN, lexer.TYPE_FUNCTION, lexer.TYPE_NIL:
		return true
	default:
		return false
	}
}
