package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JM4ier/bitOS/errors"
)

func TestWithMessagePreservesKind(t *testing.T) {
	err := errors.ErrNotFound.WithMessage("/no/such/path")
	assert.Equal(t, errors.KindNotFound, err.Kind())
	assert.Contains(t, err.Error(), "/no/such/path")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := stderrors.New("disk fault")
	err := errors.ErrBlockDeviceError.WrapError(cause)
	require.ErrorIs(t, err, cause)
	assert.Equal(t, errors.KindBlockDeviceError, err.Kind())
}

func TestCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{nil, 0},
		{errors.ErrNotFound.WithMessage("x"), -1},
		{errors.ErrAccessViolation, -2},
		{errors.ErrIllegalOperation.WithMessage("bad"), -3},
		{errors.ErrInternalError, -4},
		{errors.ErrNotEnoughSpace, -4},
		{stderrors.New("not an ffat error"), -4},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, errors.Code(tc.err))
	}
}

func TestChainedMessagesAccumulate(t *testing.T) {
	err := errors.ErrIllegalOperation.WithMessage("cannot delete root").WithMessage("path=/")
	assert.Equal(t, errors.KindIllegalOperation, err.Kind())
	assert.Contains(t, err.Error(), "cannot delete root")
	assert.Contains(t, err.Error(), "path=/")
}
