package search

import "errors"

var (
	// ErrUploadTooLarge is returned before any engine call when the query
	// image exceeds the configured size limit.
	ErrUploadTooLarge = errors.New("query image exceeds upload size limit")

	// ErrUnsupportedMediaType is returned before any engine call when the
	// query image is not an accepted image type.
	ErrUnsupportedMediaType = errors.New("query image has unsupported media type")

	// ErrSuperseded means a newer search was issued while this one was in
	// flight; its result was discarded and never reached the ledger.
	ErrSuperseded = errors.New("search superseded by a newer call")
)
