package remote

import (
	"errors"
	"fmt"

	"github.com/vittorius/zed-settings-sync/internal/jsonsecret"
)

// Kind classifies a remote store failure.
type Kind int

const (
	// KindUnclassified is a failure with no explicit mapping.
	KindUnclassified Kind = iota
	// KindInvalidDocument means the text is not valid JSON.
	KindInvalidDocument
	// KindInvalidStructure means the token key path is absent.
	KindInvalidStructure
	// KindRemoteService means the remote API reported a structured failure.
	KindRemoteService
	// KindTransport means a networking or encoding failure.
	KindTransport
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidDocument:
		return "invalid document"
	case KindInvalidStructure:
		return "invalid structure"
	case KindRemoteService:
		return "remote service error"
	case KindTransport:
		return "transport error"
	default:
		return "unclassified error"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrInvalidDocument  = &Error{Kind: KindInvalidDocument}
	ErrInvalidStructure = &Error{Kind: KindInvalidStructure}
	ErrRemoteService    = &Error{Kind: KindRemoteService}
	ErrTransport        = &Error{Kind: KindTransport}
	ErrUnclassified     = &Error{Kind: KindUnclassified}
)

// Error is a classified remote store failure.
type Error struct {
	Kind Kind
	// Field names the missing key for KindInvalidStructure.
	Field string
	// Description is set for KindUnclassified when there is no cause to wrap.
	Description string
	Err         error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindInvalidStructure && e.Err != nil:
		return fmt.Sprintf("invalid config structure: %v", e.Err)
	case e.Kind == KindInvalidStructure:
		return fmt.Sprintf("invalid config structure: missing %q", e.Field)
	case e.Kind == KindUnclassified && e.Description != "":
		return fmt.Sprintf("unhandled internal error from the remote client: %s", e.Description)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. Sentinels carry no cause, so
// errors.Is(err, ErrTransport) matches every transport failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Err == nil && t.Field == "" && t.Description == "" && t.Kind == e.Kind
}

// Unclassified builds a KindUnclassified error from a description.
func Unclassified(format string, args ...any) *Error {
	return &Error{Kind: KindUnclassified, Description: fmt.Sprintf(format, args...)}
}

// FromCodec classifies an error returned by the jsonsecret package.
func FromCodec(err error) *Error {
	var structErr *jsonsecret.StructureError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &structErr):
		return &Error{Kind: KindInvalidStructure, Field: structErr.Field, Err: err}
	case errors.Is(err, jsonsecret.ErrInvalidDocument):
		return &Error{Kind: KindInvalidDocument, Err: err}
	default:
		return &Error{Kind: KindUnclassified, Description: err.Error(), Err: err}
	}
}

// FileError tags a failure with the bundle file it concerns.
type FileError struct {
	FileName string
	Err      error
}

// NewFileError wraps err for fileName.
func NewFileError(fileName string, err error) *FileError {
	return &FileError{FileName: fileName, Err: err}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("error processing file %s: %v", e.FileName, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
