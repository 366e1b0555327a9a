package plugin

import "errors"

var (
	// ErrEmptyInput indicates the input stream held nothing but whitespace.
	ErrEmptyInput = errors.New("no input received")

	// ErrMissingField indicates a request lacks a required field.
	ErrMissingField = errors.New("missing required field")

	// ErrNoEngine indicates no engine claims the file.
	ErrNoEngine = errors.New("no engine can analyze file")
)

// RequestError is a failure while handling one message type. Its message carries the
// operation prefix the protocol reports.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return "Error in " + e.Op + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
