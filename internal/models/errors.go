package models

import "errors"

var (
	// ErrTransientUpstream marks a failed or timed out feed, model or market call.
	ErrTransientUpstream = errors.New("transient upstream error")

	// ErrMalformedModelOutput marks a model reply without a usable JSON object.
	ErrMalformedModelOutput = errors.New("malformed model output")

	// ErrNotFound is returned by registries for unknown account ids.
	ErrNotFound = errors.New("not found")

	// ErrConfiguration is fatal at startup.
	ErrConfiguration = errors.New("configuration error")
)
