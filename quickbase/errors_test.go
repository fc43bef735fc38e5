package quickbase

import (
	"errors"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection reset")
	err := newError(KindRequest, 502, cause, "POST %s", "records")

	qbErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindRequest, qbErr.Kind)
	assert.Equal(t, "POST records", qbErr.Message)
	assert.Equal(t, "quickbase request failure (HTTP 502): POST records: connection reset", qbErr.Error())
	assert.Equal(t, cause, qbErr.Unwrap())

	wrapped := trace.Wrap(err)
	assert.True(t, IsRequestFailure(wrapped))
	assert.False(t, IsAuthFailure(wrapped))
	assert.Equal(t, 502, StatusCode(wrapped))

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
	assert.Zero(t, StatusCode(nil))
}
