package model

import "errors"

// Error kinds shared by the clients and the flows. Wrap them with %w and
// test with errors.Is.
var (
	// ErrTransport reports a network failure or an unexpected HTTP status.
	ErrTransport = errors.New("transport error")
	// ErrParse reports a response body that does not decode into the expected shape.
	ErrParse = errors.New("parse error")
	// ErrConfiguration reports a missing or invalid setting.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmptyResult reports a query that matched nothing. It is informational.
	ErrEmptyResult = errors.New("no results")
)
