package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestVolumeToAmplificationEndpoints(t *testing.T) {
	assert.Equal(t, float64(0), VolumeToAmplification(0))
	assert.Equal(t, float64(5), VolumeToAmplification(100))
}

func TestVolumeToAmplificationMonotone(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 100).Draw(t, "a")
		b := rapid.IntRange(0, 100).Draw(t, "b")
		if a > b {
			a, b = b, a
		}
		assert.LessOrEqual(t, VolumeToAmplification(a), VolumeToAmplification(b))
	})
}

func TestIQCorrectionIdentity(t *testing.T) {
	c := IQCorrection{GainI: 1, GainQ: 1}
	i := []float32{1, 2, 3}
	q := []float32{4, 5, 6}
	c.Apply(i, q)
	assert.Equal(t, []float32{1, 2, 3}, i)
	assert.Equal(t, []float32{4, 5, 6}, q)
}
