package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("gift not found"))

	assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.True(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(nil, CodeNotFound))
}

func TestPublicMessage_HidesInternal(t *testing.T) {
	err := Internal(errors.New("pq: relation documents does not exist"))

	assert.Equal(t, "internal error", PublicMessage(err))
	assert.Equal(t, "insufficient coins", PublicMessage(FailedPrecondition("insufficient coins")))
	assert.Equal(t, "internal error", PublicMessage(errors.New("raw")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthenticated:    http.StatusUnauthorized,
		CodePermissionDenied:   http.StatusForbidden,
		CodeInvalidArgument:    http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeFailedPrecondition: http.StatusPreconditionFailed,
		CodeAlreadyExists:      http.StatusConflict,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), code)
	}
}
