package model

import (
	"errors"
	"fmt"
)

// Failure sentinels. Every error returned by a stage matches exactly one of
// these through errors.Is.
var (
	// ErrTransport is returned when the remote server cannot be reached.
	ErrTransport = errors.New("transport failure")

	// ErrProtocol is returned when the server answers with an error status.
	ErrProtocol = errors.New("protocol failure")

	// ErrFilesystem is returned for missing directories and failed writes.
	ErrFilesystem = errors.New("filesystem failure")

	// ErrSourceMissing is returned when an archived page no longer exists.
	ErrSourceMissing = errors.New("source missing")

	// ErrStructureNotFound is returned when an expected document section is absent.
	ErrStructureNotFound = errors.New("section not found")

	// ErrExtraction is returned when a row or field cannot be extracted.
	ErrExtraction = errors.New("extraction failure")

	// ErrNoSuchDirectory is wrapped into a Filesystem failure when a target
	// directory does not exist. It is reported before any network or file access.
	ErrNoSuchDirectory = errors.New("no such directory")
)

// FailureKind classifies a Failure.
type FailureKind int

const (
	// FailureTransport indicates the server could not be reached.
	FailureTransport FailureKind = iota

	// FailureProtocol indicates the server returned an error status.
	FailureProtocol

	// FailureFilesystem indicates a missing directory or a write error.
	FailureFilesystem

	// FailureSourceMissing indicates the archived file is absent.
	FailureSourceMissing

	// FailureStructureNotFound indicates an expected document section is absent.
	FailureStructureNotFound

	// FailureExtraction indicates a row or field could not be parsed.
	FailureExtraction
)

// String returns the short name used in log attributes.
func (k FailureKind) String() string {
	switch k {
	case FailureTransport:
		return "transport"
	case FailureProtocol:
		return "protocol"
	case FailureFilesystem:
		return "filesystem"
	case FailureSourceMissing:
		return "source_missing"
	case FailureStructureNotFound:
		return "structure_not_found"
	case FailureExtraction:
		return "extraction"
	default:
		return "unknown"
	}
}

// Error returns the sentinel error for this kind.
func (k FailureKind) Error() error {
	switch k {
	case FailureTransport:
		return ErrTransport
	case FailureProtocol:
		return ErrProtocol
	case FailureFilesystem:
		return ErrFilesystem
	case FailureSourceMissing:
		return ErrSourceMissing
	case FailureStructureNotFound:
		return ErrStructureNotFound
	case FailureExtraction:
		return ErrExtraction
	default:
		return errors.New("unknown failure")
	}
}

// Failure is a classified error raised by one stage operation.
type Failure struct {
	// Kind classifies the failure.
	Kind FailureKind

	// Op names the operation, e.g. "fetch", "save", "extract", "append".
	Op string

	// Target is the URL or file path the operation was working on.
	Target string

	// StatusCode is the HTTP status for protocol failures, zero otherwise.
	StatusCode int

	// Err is the underlying cause. It may be nil.
	Err error
}

// NewFailure creates a Failure.
func NewFailure(kind FailureKind, op, target string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Target: target, Err: err}
}

// Error implements the error interface.
func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s %s: %s", f.Op, f.Target, f.Kind.Error())
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is reports whether target is the sentinel for this failure's kind.
func (f *Failure) Is(target error) bool {
	return target == f.Kind.Error()
}

// KindOf returns the kind of err if it is or wraps a Failure.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}
