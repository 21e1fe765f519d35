package httpcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tailored-agentic-units/loadstate/async"
)

const maxBodyBytes = 1 << 20

// Body holds the fields of a response body the validator understands.
type Body struct {
	Code string `json:"code"`
}

// Response is the shape Validate inspects. Status 0 or below means no
// status was received.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Data   Body
}

// FromHTTP reads and closes resp.Body, decoding a JSON "code" field when the
// body is JSON.
func FromHTTP(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   raw,
	}
	// bodies that are not JSON objects simply carry no code
	_ = json.Unmarshal(raw, &out.Data)
	return out, nil
}

// Fetch returns an operation that sends req with client. Transport failures
// reject with a status-0 *ResponseError; non-2xx answers reject with a
// *ResponseError carrying the response.
func Fetch(client *http.Client, req *http.Request) async.Operation[*Response] {
	if client == nil {
		client = http.DefaultClient
	}

	return func(ctx context.Context) (*Response, error) {
		httpResp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return nil, &ResponseError{Response: &Response{}, Err: err}
		}

		resp, err := FromHTTP(httpResp)
		if err != nil {
			return nil, &ResponseError{Response: &Response{}, Err: err}
		}

		if resp.Status < 200 || resp.Status > 299 {
			return nil, &ResponseError{Response: resp}
		}
		return resp, nil
	}
}

// Get builds a GET request for url and returns Fetch's operation for it.
func Get(client *http.Client, url string) (async.Operation[*Response], error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	return Fetch(client, req), nil
}
