package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsZeroCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		_, err := New(capacity)
		assert.Error(t, err, "capacity %d", capacity)
	}
}

func TestAppendUntilFull(t *testing.T) {
	b, err := New(10)
	require.NoError(t, err)

	for i := int16(1); i <= 10; i++ {
		full, err := b.Append(i)
		require.NoError(t, err)
		assert.Equal(t, i == 10, full, "Append(%d) full", i)
	}
	assert.True(t, b.IsFull())
	assert.Equal(t, 10, b.Len())

	got := b.Drain()
	assert.Equal(t, []int16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)
	assert.False(t, b.IsFull())
	assert.Equal(t, 0, b.Len())
}

func TestAppendWhenFullIsRejected(t *testing.T) {
	b, err := New(2)
	require.NoError(t, err)
	_, _ = b.Append(1)
	_, _ = b.Append(2)

	full, err := b.Append(3)
	assert.ErrorIs(t, err, ErrFull)
	assert.True(t, full)
	assert.Equal(t, []int16{1, 2}, b.Drain())
}

func TestDrainPartial(t *testing.T) {
	b, err := New(10)
	require.NoError(t, err)
	for _, s := range []int16{-5, 0, 7} {
		_, err := b.Append(s)
		require.NoError(t, err)
	}

	assert.Equal(t, []int16{-5, 0, 7}, b.Drain())
	assert.Empty(t, b.Drain())
}

func TestDrainReturnsCopy(t *testing.T) {
	b, err := New(2)
	require.NoError(t, err)
	_, _ = b.Append(1)
	_, _ = b.Append(2)
	batch := b.Drain()

	_, _ = b.Append(9)
	assert.Equal(t, []int16{1, 2}, batch)
}

func TestCapacityOneFlushesEverySample(t *testing.T) {
	b, err := New(1)
	require.NoError(t, err)
	for i := int16(0); i < 3; i++ {
		full, err := b.Append(i)
		require.NoError(t, err)
		require.True(t, full)
		assert.Equal(t, []int16{i}, b.Drain())
	}
	assert.Equal(t, 1, b.Cap())
}
