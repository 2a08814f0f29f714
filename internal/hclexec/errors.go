package hclexec

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

var (
	// ErrCompile matches every *CompileError.
	ErrCompile = errors.New("compile error")
	// ErrExecution matches every *ExecError.
	ErrExecution = errors.New("execution error")
)

// CompileError reports malformed module source. File is the designator the
// source was compiled against.
type CompileError struct {
	File  string
	Diags hcl.Diagnostics
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to compile %s: %s", e.File, e.Diags.Error())
}

// Unwrap exposes the diagnostics.
func (e *CompileError) Unwrap() error { return e.Diags }

// Is reports whether target is ErrCompile.
func (e *CompileError) Is(target error) bool { return target == ErrCompile }

// ExecError reports a failure while running a module body.
type ExecError struct {
	File string
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.File, e.Err)
}

// Unwrap returns the underlying failure, which is either hcl.Diagnostics or
// the error of a nested import.
func (e *ExecError) Unwrap() error { return e.Err }

// Is reports whether target is ErrExecution.
func (e *ExecError) Is(target error) bool { return target == ErrExecution }
