package store

import "golang.org/x/xerrors"

// IoError wraps a failure of an underlying file operation (open, seek, read,
// write).
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string { return xerrors.Errorf("%s: %w", e.Op, e.Err).Error() }
func (e *IoError) Unwrap() error { return e.Err }

func ioErrorf(op string, err error) error {
	if err == nil {
		return nil
	}
	return &IoError{Op: op, Err: err}
}

// FormatError signals that on-disk data does not conform to the store
// format: an unparsable .dsc, a misaligned .idx, a decompression failure, a
// wrong decompressed length, a block that would not fit in the 16-bit
// length field, a cyclic dependency chain, or a block-size mismatch across a
// dependency chain.
type FormatError struct {
	Msg string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return xerrors.Errorf("%s: %w", e.Msg, e.Err).Error()
	}
	return e.Msg
}
func (e *FormatError) Unwrap() error { return e.Err }

func formatErrorf(format string, args ...interface{}) error {
	return &FormatError{Msg: xerrors.Errorf(format, args...).Error()}
}

// CorruptError signals an invariant violation discovered only at read time:
// a dependency reference that itself resolves to another dependency
// reference (transitive back-references are disallowed), or a dependency
// number out of range.
type CorruptError struct {
	Msg string
}

func (e *CorruptError) Error() string { return e.Msg }

func corruptErrorf(format string, args ...interface{}) error {
	return &CorruptError{Msg: xerrors.Errorf(format, args...).Error()}
}

// PreconditionError signals caller misuse: a wrongly sized buffer, a write
// operation invoked on a read-only store, or a failure to acquire the
// advisory single-writer lock.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

func preconditionErrorf(format string, args ...interface{}) error {
	return &PreconditionError{Msg: xerrors.Errorf(format, args...).Error()}
}
