package httpcheck

import (
	"errors"
	"fmt"
)

// Stable error codes.
const (
	CodeNetwork    = "E_NETWORK"
	CodeUnexpected = "E_UNEXPECTED"
)

// Sentinels matched by errors.Is against the typed errors below.
var (
	ErrNetwork            = errors.New("network failure")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// ResponseError is a rejection that still carries a response, as returned by
// transports that fail on non-success statuses. Validate inspects it like a
// resolved response.
type ResponseError struct {
	Response *Response
	Err      error
}

func (e *ResponseError) Error() string {
	status := 0
	if e.Response != nil {
		status = e.Response.Status
	}
	if e.Err != nil {
		return fmt.Sprintf("request failed with status %d: %v", status, e.Err)
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// NetworkError reports that no usable status came back: the endpoint was
// never reached or the connection broke.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return CodeNetwork
	}
	return fmt.Sprintf("%s: %v", CodeNetwork, e.Err)
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UnexpectedResponseError reports a reachable endpoint that answered with a
// status other than the expected one. Code comes from the response body, or
// is CodeUnexpected.
type UnexpectedResponseError struct {
	Status   int
	Code     string
	Response *Response
}

func (e *UnexpectedResponseError) Error() string {
	return e.Code
}

func (e *UnexpectedResponseError) Is(target error) bool {
	return target == ErrUnexpectedResponse
}

// Code returns the stable code carried by err, or "" when err is not a
// classified response error.
func Code(err error) string {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return CodeNetwork
	}
	var respErr *UnexpectedResponseError
	if errors.As(err, &respErr) {
		return respErr.Code
	}
	return ""
}
