package ordernum

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(ctx context.Context, number string) (bool, error)

func (f checkerFunc) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return f(ctx, number)
}

func neverExists(context.Context, string) (bool, error) { return false, nil }

func TestAllocateFormat(t *testing.T) {
	a := New("ORD", checkerFunc(neverExists))

	number, err := a.Allocate(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-\d{8}-\d{6}$`), number)
	assert.Contains(t, number, time.Now().UTC().Format("20060102"))
}

func TestAllocateDefaultPrefix(t *testing.T) {
	a := New("", checkerFunc(neverExists))

	number, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-`, number)
}

func TestAllocateCustomPrefix(t *testing.T) {
	a := New("VRL", checkerFunc(neverExists))

	number, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, `^VRL-\d{8}-\d{6}$`, number)
}

func TestAllocateSkipsTakenNumbers(t *testing.T) {
	calls := 0
	a := New("ORD", checkerFunc(func(context.Context, string) (bool, error) {
		calls++
		return calls < 3, nil // first two candidates are taken
	}))

	number, err := a.Allocate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, number)
	assert.Equal(t, 3, calls)
}

func TestAllocateExhausted(t *testing.T) {
	calls := 0
	a := New("ORD", checkerFunc(func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	}))

	number, err := a.Allocate(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Empty(t, number)
	assert.Equal(t, maxAttempts, calls)
}

func TestAllocateCheckerError(t *testing.T) {
	boom := errors.New("store down")
	a := New("ORD", checkerFunc(func(context.Context, string) (bool, error) {
		return false, boom
	}))

	_, err := a.Allocate(context.Background())
	assert.ErrorIs(t, err, boom)
}
