package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrInvalidInput indicates the caller supplied an unusable query or record
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetrieval indicates query embedding or index search failed
	ErrRetrieval = errors.New("retrieval failed")

	// ErrRankingService indicates the external ranking call failed
	ErrRankingService = errors.New("ranking service unavailable")

	// ErrNotFound indicates a required file or record does not exist
	ErrNotFound = errors.New("not found")

	// ErrSnapshot indicates an index snapshot could not be read or written
	ErrSnapshot = errors.New("index snapshot")

	// ErrDimensionMismatch indicates a vector width differs from the index dimension
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrLengthMismatch indicates vectors and metadata differ in count
	ErrLengthMismatch = errors.New("length mismatch")
)
