package quickbase

import (
	"bytes"

	"github.com/gravitational/trace"
	"github.com/tidwall/gjson"

	"github.com/gravitational/qbrest/lib"
)

// Response is the successful result of a REST call.
type Response struct {
	StatusCode int
	raw        []byte
}

// newResponse checks that a non-empty body is JSON. An empty body is a valid,
// empty result.
func newResponse(status int, body []byte) (*Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && !gjson.ValidBytes(body) {
		return nil, newError(KindParse, status, nil, "response body is not valid JSON")
	}
	return &Response{StatusCode: status, raw: body}, nil
}

// Raw returns the JSON body.
func (r *Response) Raw() []byte {
	return r.raw
}

// Empty reports whether the call succeeded without returning a body.
func (r *Response) Empty() bool {
	return len(r.raw) == 0
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	if r.Empty() {
		return trace.NotFound("response has no body")
	}
	return trace.Wrap(lib.FastUnmarshal(r.raw, v))
}

// Get looks up a value by a gjson path, e.g. "metadata.totalRecords" or "data.#.3.value".
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// String implements fmt.Stringer
func (r *Response) String() string {
	return string(r.raw)
}
