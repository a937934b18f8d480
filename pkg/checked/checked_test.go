package checked

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdd(t *testing.T) {
	v, ok := Add(1, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), v)

	_, ok = Add(math.MaxUint64, 1)
	assert.False(t, ok)

	v, ok = Add(math.MaxUint64, 0)
	assert.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), v)
}

func TestSub(t *testing.T) {
	v, ok := Sub(5, 3)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), v)

	_, ok = Sub(3, 5)
	assert.False(t, ok)

	v, ok = Sub(3, 3)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), v)
}

func TestMul(t *testing.T) {
	v, ok := Mul(6, 7)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), v)

	_, ok = Mul(math.MaxUint64, 2)
	assert.False(t, ok)

	v, ok = Mul(math.MaxUint64, 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), v)

	v, ok = Mul(0, math.MaxUint64)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), v)
}

func TestDiv(t *testing.T) {
	v, ok := Div(42, 6)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), v)

	_, ok = Div(1, 0)
	assert.False(t, ok)
}
