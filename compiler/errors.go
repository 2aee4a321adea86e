package compiler

import (
	"fmt"

	"github.com/cilix/Holly/lexer"
)

// ErrorKind is one of the parser-native sticky error kinds. Lexer-raised
// kinds (ErrLexIncompleteString, ErrLexUnexpectedChar) surface through the
// same State via Err(), keyed by lexer.ErrorKind instead.
type ErrorKind int

const (
	ErrParseUnexpectedToken ErrorKind = iota
	ErrParseExpectedType
	ErrAllocationFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrParseUnexpectedToken:
		return "parse-unexpected-token"
	case ErrParseExpectedType:
		return "parse-expected-type"
	case ErrAllocationFailure:
		return "allocation-failure"
	default:
		return "parse-error"
	}
}

// Error is a sticky compiler error. It wraps either a native parser
// ErrorKind or a lexer.Error surfaced unchanged.
type Error struct {
	Pos     lexer.Position
	Kind    ErrorKind
	Message string
	Lex     *lexer.Error // set when the error originated in the lexer
}

func (e *Error) Error() string {
	if e.Lex != nil {
		return e.Lex.Error()
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Message)
}
