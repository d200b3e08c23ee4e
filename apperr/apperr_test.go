package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFound("job not found", nil)
	wrapped := fmt.Errorf("approve: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindAuth))
	assert.Equal(t, "job not found", MessageOf(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal server error", MessageOf(err))
}

func TestErrorCapturesStackAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("inserting job", cause)

	assert.ErrorIs(t, err, cause)
	assert.NotEmpty(t, err.StackTrace())
	assert.Equal(t, "INTERNAL: inserting job: connection reset", err.Error())
}
