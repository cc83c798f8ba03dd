package vision

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStable(t *testing.T) {
	img := slipLike(20, 20)

	first, err := Fingerprint(img)
	require.NoError(t, err)
	second, err := Fingerprint(img)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex sha256
}

func TestFingerprintSensitiveToSinglePixel(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 16, 16))
	b := image.NewGray(image.Rect(0, 0, 16, 16))
	b.SetGray(7, 7, color.Gray{Y: 1})

	hashA, err := Fingerprint(a)
	require.NoError(t, err)
	hashB, err := Fingerprint(b)
	require.NoError(t, err)

	assert.NotEqual(t, hashA, hashB)
}
