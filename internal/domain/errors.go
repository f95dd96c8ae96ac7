package domain

import "errors"

var (
	// ErrSourceMissing means neither the augmented metadata nor the raw catalog exists.
	ErrSourceMissing = errors.New("catalog source data missing")
	// ErrCorruptArtifact means a persisted artifact could not be decoded.
	ErrCorruptArtifact = errors.New("corrupt artifact")
	// ErrDimensionMismatch means a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexOutOfRange means a row position is outside the catalog.
	ErrIndexOutOfRange = errors.New("catalog index out of range")
	// ErrArtifactsMisaligned means metadata rows and index vectors differ in count.
	ErrArtifactsMisaligned = errors.New("metadata and index row counts differ")
)
