package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_DirectAndWrapped(t *testing.T) {
	t.Run("direct code", func(t *testing.T) {
		err := New(CodeDenied, "reader is denied")
		assert.True(t, HasCode(err, CodeDenied))
		assert.False(t, HasCode(err, CodeAccessBlocked))
	})

	t.Run("wrapped cause stays reachable", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeInternal, "store unavailable")
		require.True(t, HasCode(err, CodeInternal))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("nested codes are all visible", func(t *testing.T) {
		inner := New(CodeNotRegistered, "no role")
		outer := Wrap(inner, CodeAccessBlocked, "grant check failed")
		assert.True(t, HasCode(outer, CodeAccessBlocked))
		assert.True(t, HasCode(outer, CodeNotRegistered))
	})

	t.Run("uncoded error has no code", func(t *testing.T) {
		err := fmt.Errorf("plain: %w", errors.New("boom"))
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeZeroIdentity:        http.StatusBadRequest,
		CodeInvalidRole:         http.StatusBadRequest,
		CodeNotRegistered:       http.StatusUnprocessableEntity,
		CodeUnknownEntity:       http.StatusUnprocessableEntity,
		CodeDenied:              http.StatusForbidden,
		CodeAccessBlocked:       http.StatusForbidden,
		CodeUnauthorizedGateway: http.StatusForbidden,
		CodeUnauthorized:        http.StatusUnauthorized,
		CodeLedgerNotConfigured: http.StatusServiceUnavailable,
		CodeNotFound:            http.StatusNotFound,
		CodeInternal:            http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
