package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_MatchesByCode(t *testing.T) {
	wrapped := WrapError(ErrNoData, fmt.Errorf("feed gap at bar 12"))

	assert.True(t, errors.Is(wrapped, ErrNoData))
	assert.False(t, errors.Is(wrapped, ErrConfigInvalid))
	assert.Contains(t, wrapped.Error(), "NO_DATA")
	assert.Contains(t, wrapped.Error(), "feed gap")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := WrapError(ErrRunNotFound, cause)

	assert.Equal(t, cause, errors.Unwrap(wrapped))
}
