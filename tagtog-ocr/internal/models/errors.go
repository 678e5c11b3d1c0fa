package models

import (
	"errors"
	"fmt"
)

// Error kinds. Configuration and authentication errors abort a run before any
// file is touched; the others are scoped to a single file.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication error")
	ErrOCR            = errors.New("ocr error")
	ErrTransport      = errors.New("transport error")
	ErrFilesystem     = errors.New("filesystem error")
)

// FileError records a failure while processing one input file.
type FileError struct {
	Path  string
	Stage string
	Kind  error
	Err   error
}

func (e *FileError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v: %v", e.Path, e.Stage, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewFileError wraps err as a failure of kind at the given stage. If err is
// already a FileError it is returned unchanged.
func NewFileError(path, stage string, kind, err error) error {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe
	}
	return &FileError{Path: path, Stage: stage, Kind: kind, Err: err}
}

// KindError attaches a kind to err so errors.Is matches both.
type KindError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return e.Kind.Error()
	case e.Err == nil:
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Msg, e.Err)
}

func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds a KindError with a formatted message.
func Errorf(kind error, format string, args ...any) error {
	return &KindError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind to err with a short message. A nil err returns nil.
func Wrap(kind error, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &KindError{Kind: kind, Msg: msg, Err: err}
}
