package otp

import (
	"bytes"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric_Generate(t *testing.T) {
	gen := NewNumeric()

	for range 500 {
		code, err := gen.Generate()
		require.NoError(t, err)
		require.Len(t, code, Length)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, minCode)
		assert.LessOrEqual(t, n, maxCode)
	}
}

func TestNumeric_Generate_ReaderError(t *testing.T) {
	gen := &Numeric{rand: bytes.NewReader(nil)}

	_, err := gen.Generate()

	assert.Error(t, err)
}

func TestValid(t *testing.T) {
	issued := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	expiresAt := issued.Add(120 * time.Second)

	assert.True(t, Valid(issued, expiresAt))
	assert.True(t, Valid(issued.Add(119*time.Second), expiresAt))
	assert.False(t, Valid(expiresAt, expiresAt))
	assert.False(t, Valid(issued.Add(121*time.Second), expiresAt))
}
