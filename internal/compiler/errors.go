package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a configuration error with the CUE position it came from.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError turns the first CUE error into a CompileError carrying its
// path and position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	format, args := first.Msg()
	ce := &CompileError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

// fieldError reports a problem with the value at path inside v.
func fieldError(v cue.Value, path, format string, args ...any) *CompileError {
	pos := v.Pos()
	if f := v.LookupPath(cue.ParsePath(path)); f.Exists() {
		pos = f.Pos()
	}
	return &CompileError{
		Field:   path,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}
