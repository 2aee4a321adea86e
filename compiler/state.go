// Package compiler is a single-pass recursive-descent front end: it
// tokenizes via lexer.Lexer and emits bytecode directly into a tree of
// value.FuncState scopes as it recognizes grammar productions, rather than
// building an intermediate AST.
package compiler

import (
	"github.com/cilix/Holly/bytecode"
	"github.com/cilix/Holly/lexer"
	"github.com/cilix/Holly/value"
)

// State is the compiler's sticky-error-bearing working state: once err is
// non-nil every production below returns immediately.
type State struct {
	lex *lexer.Lexer
	cur lexer.Token

	global *value.FuncState
	fs     *value.FuncState // current scope being compiled into

	pool *value.Pool

	err *Error

	loopDepth int // nesting depth of while/for bodies, for break validation
}

// Compile compiles src into a global FuncState and its constant pool. The
// returned *Error is nil on success.
func Compile(src, filename string) (*value.FuncState, *value.Pool, *Error) {
	global := value.NewFuncState("global", nil)
	s := &State{
		lex:    lexer.New(src, filename),
		global: global,
		fs:     global,
		pool:   value.NewPool(),
	}
	s.advance()
	s.compileStatementList()
	if s.err == nil && s.cur.Kind != lexer.EOF {
		s.fail(ErrParseUnexpectedToken, "trailing input after program")
	}
	return global, s.pool, s.err
}

// Err returns the sticky compiler error, if any.
func (s *State) Err() *Error { return s.err }

func (s *State) advance() {
	s.cur = s.lex.NextToken()
	if s.err == nil {
		if lexErr := s.lex.Err(); lexErr != nil {
			s.err = &Error{Pos: lexErr.Pos, Lex: lexErr}
		}
	}
}

func (s *State) fail(kind ErrorKind, msg string) {
	if s.err == nil {
		s.err = &Error{Kind: kind, Message: msg}
	}
}

func (s *State) at(k lexer.Kind) bool {
	return s.err == nil && s.cur.Kind == k
}

// expect consumes the current token if it has kind k, else sets the sticky
// parse-unexpected-token error.
func (s *State) expect(k lexer.Kind) lexer.Token {
	if s.err != nil {
		return lexer.Token{}
	}
	tok := s.cur
	if tok.Kind != k {
		s.fail(ErrParseUnexpectedToken, "expected "+k.String()+", got "+tok.Kind.String())
		return tok
	}
	s.advance()
	return tok
}

// internString interns name as a String Value and returns its pool slot.
func (s *State) internString(name []byte) uint16 {
	slot, ok := s.pool.Intern(value.String(append([]byte(nil), name...)))
	if !ok {
		s.fail(ErrAllocationFailure, "constant pool exhausted")
	}
	return slot
}

// emit appends one instruction into the current scope.
func (s *State) emit(op bytecode.Op, operand uint16) int {
	if s.err != nil {
		return -1
	}
	return s.fs.Emit(uint32(bytecode.Encode(op, operand)))
}

// emitHole emits a placeholder jump and returns its index for patch.
func (s *State) emitHole(op bytecode.Op) int {
	return s.emit(op, 0)
}

// patch backpatches the jump at idx to land on the current instruction
// pointer.
func (s *State) patch(idx int) {
	if s.err != nil || idx < 0 {
		return
	}
	op := bytecode.Instruction(s.fs.Ins[idx]).Op()
	target := len(s.fs.Ins)
	offset := int16(target - idx)
	s.fs.Patch(idx, uint32(bytecode.Encode(op, uint16(offset))))
}

// patchTo backpatches the jump at idx to land on instruction index target.
func (s *State) patchTo(idx, target int) {
	if s.err != nil || idx < 0 {
		return
	}
	op := bytecode.Instruction(s.fs.Ins[idx]).Op()
	offset := int16(target - idx)
	s.fs.Patch(idx, uint32(bytecode.Encode(op, uint16(offset))))
}

// suffixContinues reports whether the current token can start another
// valuesuffix element, used to decide whether the suffix chain being
// parsed has reached its last element.
func (s *State) suffixContinues() bool {
	switch s.cur.Kind {
	case lexer.DOT, lexer.COLON, lexer.LBRACKET, lexer.LPAREN:
		return true
	default:
		return false
	}
}

// assignOp reports whether k is '=' or a compound-assignment operator, and
// the binop to combine with for the compound case (bytecode.Op(0) for '=').
func assignOp(k lexer.Kind) (isAssign bool, compound bytecode.Op, plain bool) {
	switch k {
	case lexer.EQ:
		return true, 0, true
	case lexer.PLUSEQ:
		return true, bytecode.ADD, false
	case lexer.MINUSEQ:
		return true, bytecode.SUB, false
	case lexer.STAREQ:
		return true, bytecode.MULT, false
	case lexer.SLASHEQ:
		return true, bytecode.DIV, false
	case lexer.PERCENTEQ:
		return true, bytecode.MOD, false
	case lexer.AMPEQ:
		return true, bytecode.BAND, false
	case lexer.PIPEEQ:
		return true, bytecode.BOR, false
	case lexer.CARETEQ:
		return true, bytecode.BXOR, false
	default:
		return false, 0, false
	}
}
