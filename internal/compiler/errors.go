package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports an invalid model declaration. Model and Member
// locate it inside the declaration: Member is "reducer NAME" or
// "view NAME", empty for model-level problems.
type CompileError struct {
	Model   string
	Member  string
	Field   string
	Message string
	Pos     token.Pos
	More    int   // further CUE errors not reported in Message
	Err     error // underlying CUE error, if any
}

func (e *CompileError) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	if e.Model != "" {
		fmt.Fprintf(&b, "model %s: ", e.Model)
	}
	if e.Member != "" {
		b.WriteString(e.Member)
		b.WriteString(": ")
	}
	if e.Field != "" {
		b.WriteString(e.Field)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.More > 0 {
		fmt.Fprintf(&b, " (and %d more)", e.More)
	}
	return b.String()
}

func (e *CompileError) Unwrap() error { return e.Err }

// site is the part of a declaration being compiled.
type site struct {
	model  string
	member string
}

func (s site) reducer(name string) site { return site{model: s.model, member: "reducer " + name} }

func (s site) view(name string) site { return site{model: s.model, member: "view " + name} }

// fail builds a CompileError at s.
func (s site) fail(field, msg string, pos token.Pos) *CompileError {
	return &CompileError{Model: s.model, Member: s.member, Field: field, Message: msg, Pos: pos}
}

// cueError wraps a CUE evaluation error at s. The first error's position
// is kept; the rest are only counted.
func (s site) cueError(err error) error {
	if err == nil {
		return nil
	}
	ce := s.fail("", err.Error(), token.NoPos)
	ce.Err = err
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return ce
	}
	first := errs[0]
	ce.Message = first.Error()
	ce.More = len(errs) - 1
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}
