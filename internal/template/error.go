package template

import "github.com/djls/djls/internal/diag"

// ParseError is a T100-class lexical failure: an unterminated delimiter
// the tokenizer could not recover from locally. The parser never aborts on
// one of these; it records it and resynchronises at the next delimiter
// opener (§4.2).
type ParseError struct {
	Span    diag.Span
	Message string
}

func (e *ParseError) Error() string { return e.Message }
