package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "plain",
			err:  New(ErrConfigInvalid, "text_buffer_size must be positive"),
			want: "CONFIG_INVALID: text_buffer_size must be positive",
		},
		{
			name: "with line",
			err:  New(ErrInvalidArgument, "$exec: command required").AtLine(3),
			want: "INVALID_ARGUMENT: line 3: $exec: command required",
		},
		{
			name: "with cause",
			err:  Wrap(ErrTemplateRead, "reading conky.text", fmt.Errorf("permission denied")),
			want: "TEMPLATE_READ_ERROR: reading conky.text: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestObjectCreationWrapsCause(t *testing.T) {
	cause := NewUnknownVariableError("nodenam", "nodename")
	err := NewObjectCreationError("nodenam", 2, cause)

	assert.True(t, IsObjectCreation(err))
	assert.True(t, IsErrorType(err, ErrUnknownVariable))
	assert.False(t, IsErrorType(err, ErrInvalidArgument))
	assert.Equal(t, 2, LineOf(err))

	var inner *Error
	require.True(t, stderrors.As(err.Unwrap(), &inner))
	suggestion, ok := inner.GetContext("suggestion")
	require.True(t, ok)
	assert.Equal(t, "nodename", suggestion)
	assert.Contains(t, err.Error(), "did you mean $nodename?")
}

func TestIsErrorTypeThroughFmtWrap(t *testing.T) {
	base := NewObjectCreationError("cpu", 7, nil)
	wrapped := fmt.Errorf("compiling template: %w", base)

	assert.True(t, IsObjectCreation(wrapped))
	assert.Equal(t, 7, LineOf(wrapped))
	assert.False(t, IsObjectCreation(fmt.Errorf("plain")))
	assert.Equal(t, 0, LineOf(nil))
}

func TestColumnOf(t *testing.T) {
	base := NewObjectCreationError("cpu", 7, NewInvalidArgumentError("cpu", "bad").AtColumn(3)).AtColumn(9)
	wrapped := fmt.Errorf("compiling template: %w", base)

	assert.Equal(t, 9, ColumnOf(wrapped))
	assert.Equal(t, 3, ColumnOf(base.Cause))
	assert.Equal(t, 0, ColumnOf(NewObjectCreationError("cpu", 7, nil)))
	assert.Equal(t, 0, ColumnOf(nil))
	assert.Equal(t, 0, ColumnOf(fmt.Errorf("plain")))
}

func TestUnknownVariableWithoutSuggestion(t *testing.T) {
	err := NewUnknownVariableError("zzz", "")
	assert.Equal(t, "UNKNOWN_VARIABLE: unknown variable $zzz", err.Error())
	_, ok := err.GetContext("suggestion")
	assert.False(t, ok)
}
