package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NotFound("report")
	wrapped := Wrap(base, "loading report")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.Equal(t, "loading report: report not found", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainError(t *testing.T) {
	err := Wrapf(stderrors.New("boom"), "step %d", 2)
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Equal(t, "step 2: boom", err.Error())
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestGetCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", InvalidInput("bad id"))
	assert.True(t, IsAppError(err))
	assert.True(t, Is(err, CodeInvalidInput))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeValidationError, stderrors.New("name is required"))
	assert.Equal(t, CodeValidationError, GetCode(err))
	assert.Equal(t, "name is required", err.Error())

	err = WithCode(CodeNotFound, InternalError("missing"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "missing", err.Error())
}
