package command

import (
	"errors"
	"fmt"
)

// Sentinel errors for command package operations.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrUnknownCommand indicates no handler is registered for the id.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrArgsTypeMismatch indicates arguments of the wrong variant for a handler.
	ErrArgsTypeMismatch = errors.New("command args type mismatch")

	// ErrDuplicateCommand indicates a second handler for an already registered id.
	ErrDuplicateCommand = errors.New("command already registered")

	// ErrRegistrySealed indicates registration after the dispatcher was sealed.
	ErrRegistrySealed = errors.New("command registry is sealed")

	// ErrRateLimited indicates the source connection exceeded its dispatch rate.
	ErrRateLimited = errors.New("command rate limit exceeded")

	// ErrHandlerPanic indicates a handler panicked while running.
	ErrHandlerPanic = errors.New("command handler panicked")

	// ErrNilCommand indicates a nil command was registered.
	ErrNilCommand = errors.New("command is nil")
)

// UnknownCommandError reports a dispatch to an unregistered id.
type UnknownCommandError struct {
	ID ID
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %d", e.ID)
}

// Is reports UnknownCommandError as ErrUnknownCommand.
func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// ArgsTypeMismatchError reports arguments whose variant does not match the handler.
type ArgsTypeMismatchError struct {
	ID   ID
	Want Kind
	Got  string
}

func (e *ArgsTypeMismatchError) Error() string {
	return fmt.Sprintf("command %d expects %s args, got %s", e.ID, e.Want, e.Got)
}

// Is reports ArgsTypeMismatchError as ErrArgsTypeMismatch.
func (e *ArgsTypeMismatchError) Is(target error) bool {
	return target == ErrArgsTypeMismatch
}

// DuplicateCommandError reports a registration conflict.
type DuplicateCommandError struct {
	ID ID
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %d already registered", e.ID)
}

// Is reports DuplicateCommandError as ErrDuplicateCommand.
func (e *DuplicateCommandError) Is(target error) bool {
	return target == ErrDuplicateCommand
}

// HandlerPanicError carries the value recovered from a panicking handler.
type HandlerPanicError struct {
	ID    ID
	Value interface{}
}

func (e *HandlerPanicError) Error() string {
	return fmt.Sprintf("command %d panicked: %v", e.ID, e.Value)
}

// Is reports HandlerPanicError as ErrHandlerPanic.
func (e *HandlerPanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
