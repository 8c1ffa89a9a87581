package rag

import "errors"

var (
	// ErrEmptyQuery is returned before any capability call when the query
	// text is empty or whitespace.
	ErrEmptyQuery = errors.New("rag: empty query")

	// ErrInvalidHistory is returned before any capability call when a
	// conversation history contains a malformed turn.
	ErrInvalidHistory = errors.New("rag: invalid conversation history")

	// ErrRetrievalFailed wraps embedding/index failures during a query.
	ErrRetrievalFailed = errors.New("rag: retrieval failed")

	// ErrGenerationFailed wraps model failures while producing an answer.
	ErrGenerationFailed = errors.New("rag: generation failed")
)
