package rag

import "errors"

var (
	// ErrEmptyQuestion rejects turns without user text.
	ErrEmptyQuestion = errors.New("rag: question is empty")

	// ErrModelInvocation wraps language-model failures (error or
	// timeout). The turn is aborted and no history is persisted.
	ErrModelInvocation = errors.New("rag: model invocation failed")

	// ErrRetrievalUnavailable marks a failed retrieval round. The
	// controller recovers locally by answering with an empty context;
	// it is exported for logging and tests.
	ErrRetrievalUnavailable = errors.New("rag: retrieval unavailable")

	// ErrMalformedToolCall marks a tool request with invalid or missing
	// arguments. Recovered locally by skipping retrieval.
	ErrMalformedToolCall = errors.New("rag: malformed tool call")
)
