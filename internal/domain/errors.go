package domain

import "errors"

// Grid and codec errors. Callers match them with errors.Is; the returned
// errors wrap these with the offending index or length.
var (
	// ErrOutOfRange means a cell index fell outside [0, N*N).
	ErrOutOfRange = errors.New("cell index out of range")
	// ErrSizeMismatch means a snapshot does not have N*N cells for the target grid.
	ErrSizeMismatch = errors.New("snapshot size does not match grid")
	// ErrDeserialize means persisted grid data could not be decoded.
	ErrDeserialize = errors.New("cannot deserialize grid data")
	// ErrInvalidColor means a color string was not recognized.
	ErrInvalidColor = errors.New("invalid color")
	// ErrInvalidSize means a grid dimension was not positive.
	ErrInvalidSize = errors.New("invalid grid size")
)
