package lifecycle

import (
	"errors"
	"fmt"
)

// ErrAlreadyStarted is returned by a second call to Run.
var ErrAlreadyStarted = errors.New("lifecycle already started")

// StartupFault is a failure during the startup sequence. It is always fatal.
type StartupFault struct {
	Stage State
	Err   error
}

func (f *StartupFault) Error() string {
	return fmt.Sprintf("startup failed during %s: %v", f.Stage, f.Err)
}

func (f *StartupFault) Unwrap() error {
	return f.Err
}

// RuntimeFault is a panic caught after startup.
type RuntimeFault struct {
	Source string
	Value  any
	Stack  []byte
}

func (f *RuntimeFault) Error() string {
	return fmt.Sprintf("runtime fault in %s: %v", f.Source, f.Value)
}

// Unwrap returns the panic value when it is an error.
func (f *RuntimeFault) Unwrap() error {
	err, _ := f.Value.(error)
	return err
}
