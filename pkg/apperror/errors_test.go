package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsMatchByKind(t *testing.T) {
	err := fmt.Errorf("load review: %w", NotFound("review not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(cause, KindConflict, "username already taken")

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "username already taken: duplicate key", err.Error())
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))

	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}

func TestValidationCarriesFields(t *testing.T) {
	err := fmt.Errorf("create: %w", Validation(map[string]string{"title": "This field is required"}))

	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Equal(t, "This field is required", appErr.Fields["title"])
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "invalid_state", KindInvalidState.String())
	assert.Equal(t, "internal", Kind(99).String())
}
