package api

import "fmt"

// NetworkError means the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseParseError means a response arrived but its body was not JSON.
type ResponseParseError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("%s: unparseable response (status %d): %v", e.Op, e.StatusCode, e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }
