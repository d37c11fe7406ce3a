package errors

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrEmptyKey    = errors.New("empty key")
	ErrInvalidData = errors.New("invalid data")

	// ErrDatasetNotFound indicates the client's dataset folder or file is missing.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrMalformedSchedule indicates the dataset exists but lacks required
	// columns, has unparseable cells or repeats a timestamp.
	ErrMalformedSchedule = errors.New("malformed schedule")
	// ErrTrainingDivergence indicates the model produced a non-finite loss.
	ErrTrainingDivergence = errors.New("training diverged")
	// ErrTransport indicates the connection to the aggregation server failed
	// or the server violated the round protocol.
	ErrTransport = errors.New("transport error")
)
