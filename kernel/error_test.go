package kernel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKernelError(t *testing.T) {
	err := &Error{
		Module:  "multiboot",
		Message: "missing end tag",
	}

	require.Equal(t, err.Message, err.Error())

	var asErr error = err
	var target *Error
	require.True(t, errors.As(asErr, &target))
	require.Same(t, err, target)
}
