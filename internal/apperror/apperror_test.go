package apperror

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("wrapped: %w", Conflict("dup"))))
	assert.Equal(t, KindStorage, KindOf(errors.New("driver exploded")))
}

func TestPartial(t *testing.T) {
	cause := errors.New("connection reset")
	err := Partial("target record not saved", cause)

	assert.True(t, IsPartial(err))
	assert.True(t, Is(err, KindStorage))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsPartial(Storage("plain failure", cause)))
	assert.Contains(t, err.Error(), "connection reset")
}
