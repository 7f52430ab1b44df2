package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfTypedErrors(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(ValidationError("bad input")))
	assert.Equal(t, KindConflict, KindOf(ConflictError("version mismatch")))
	assert.Equal(t, KindNotFound, KindOf(NotFoundError("missing")))
	assert.Equal(t, KindTransport, KindOf(NewError(KindTransport, "connection refused")))
}

func TestKindOfUntypedErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKindOfSurvivesWrapping(t *testing.T) {
	inner := ConflictError("entry was already reverted")
	wrapped := fmt.Errorf("undo failed: %w", inner)

	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := WrapError(KindTransport, "failed to reach downstream", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to reach downstream")
	assert.Contains(t, err.Error(), "connection refused")
}
