// Package httpcheck normalizes HTTP-like responses into success or one of
// two classified failures: a network error when no status came back, and an
// unexpected-response error when the status differs from the expected one.
package httpcheck

import (
	"context"
	"errors"

	"github.com/tailored-agentic-units/loadstate/async"
)

// Validate resolves with the response only when its status equals expected.
// Both a resolved response and a rejection carrying a *ResponseError are
// inspected, once each. A rejection without a response counts as status 0.
func Validate(f *async.Future[*Response], expected int) *async.Future[*Response] {
	return async.Then(f, func(resp *Response, err error) (*Response, error) {
		if err != nil {
			var respErr *ResponseError
			if !errors.As(err, &respErr) || respErr.Response == nil {
				return nil, &NetworkError{Err: err}
			}
			return classify(respErr.Response, expected, err)
		}
		return classify(resp, expected, nil)
	})
}

// ValidateOperation wraps op so that running it yields Validate's result.
func ValidateOperation(op async.Operation[*Response], expected int) async.Operation[*Response] {
	return func(ctx context.Context) (*Response, error) {
		return Validate(async.Go(ctx, op), expected).Await(ctx)
	}
}

func classify(resp *Response, expected int, cause error) (*Response, error) {
	if resp == nil {
		return nil, &NetworkError{Err: cause}
	}
	if resp.Status == expected {
		return resp, nil
	}
	if resp.Status <= 0 {
		return nil, &NetworkError{Err: cause}
	}

	code := resp.Data.Code
	if code == "" {
		code = CodeUnexpected
	}
	return nil, &UnexpectedResponseError{
		Status:   resp.Status,
		Code:     code,
		Response: resp,
	}
}
