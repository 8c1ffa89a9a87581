package crm

import "errors"

var (
	// ErrSourceNotFound is returned when a declared source file does not
	// exist or cannot be read.
	ErrSourceNotFound = errors.New("crm: source not found")

	// ErrMalformedSource is returned when a source file does not parse as a
	// JSON array of objects.
	ErrMalformedSource = errors.New("crm: malformed source")

	// ErrUnsupportedSourceType is returned for declared-but-unimplemented
	// source formats such as excel or csv.
	ErrUnsupportedSourceType = errors.New("crm: unsupported source type")

	// ErrRecordInvalid marks a single record that fails minimal shape
	// validation. Recoverable: ingestion skips the record and continues.
	ErrRecordInvalid = errors.New("crm: invalid record")

	// ErrUnsupportedKind is returned when a record kind outside the closed
	// customer/quote/work_history set reaches the formatter or decoder.
	ErrUnsupportedKind = errors.New("crm: unsupported record kind")
)
