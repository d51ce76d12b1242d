package models

import "errors"

// Stage failures. Errors returned by the pipeline wrap one of these, so
// callers can classify them with errors.Is.
var (
	// ErrFetch means the weather API was unreachable, timed out or
	// answered with a non-2xx status.
	ErrFetch = errors.New("forecast fetch failed")

	// ErrMalformedData means a response violated the expected shape.
	ErrMalformedData = errors.New("malformed forecast data")

	// ErrDirectoryFetch means the recipient directory could not be read.
	ErrDirectoryFetch = errors.New("recipient directory fetch failed")

	// ErrMailSend means one message could not be delivered to the transport.
	ErrMailSend = errors.New("mail send failed")
)
