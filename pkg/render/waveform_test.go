package render

import (
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveformPNG(t *testing.T) {
	n := 44100
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/44100))
	}

	path := filepath.Join(t.TempDir(), "wave.png")
	require.NoError(t, WaveformPNG(path, samples, []int{0, 8192, 16384}, 0))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, imgWidth, img.Bounds().Dx())
	assert.Equal(t, imgHeight, img.Bounds().Dy())
}

func TestWaveformPNGCapsLength(t *testing.T) {
	samples := make([]float32, 100000)
	path := filepath.Join(t.TempDir(), "wave.png")
	require.NoError(t, WaveformPNG(path, samples, nil, 1000))
}

func TestWaveformPNGEmptyInput(t *testing.T) {
	err := WaveformPNG(filepath.Join(t.TempDir(), "wave.png"), nil, nil, 0)
	require.Error(t, err)
}
