package analysis

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 44100

func sine(freq float64, n int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(testSampleRate)))
	}
	return out
}

func noise(n int, rng *rand.Rand) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(rng.Float64()*2 - 1)
	}
	return out
}

func TestComputeFeaturesKeys(t *testing.T) {
	feats := computeFeatures(sine(440, 8192, 0.5), testSampleRate)
	want := []string{
		"loudness", "spectral_centroid", "flux", "hfc",
		"spectral_rolloff", "spectral_flatness", "zero_crossing_rate",
	}
	want = append(want, MFCCNames()...)
	for _, name := range want {
		_, ok := feats[name]
		assert.True(t, ok, "missing feature %s", name)
	}
}

func TestSpectralCentroidTracksTone(t *testing.T) {
	low := computeFeatures(sine(440, 8192, 0.5), testSampleRate)
	high := computeFeatures(sine(4000, 8192, 0.5), testSampleRate)

	assert.InDelta(t, 440, low["spectral_centroid"], 150)
	assert.InDelta(t, 4000, high["spectral_centroid"], 400)
	assert.Greater(t, high["hfc"], low["hfc"])
	assert.Greater(t, high["spectral_rolloff"], low["spectral_rolloff"])
}

func TestZeroCrossingRate(t *testing.T) {
	feats := computeFeatures(sine(440, 8192, 0.5), testSampleRate)
	// a sine crosses zero twice per cycle
	assert.InDelta(t, 2*440.0/testSampleRate, feats["zero_crossing_rate"], 0.005)
}

func TestLoudnessGrowsWithAmplitude(t *testing.T) {
	quiet := computeFeatures(sine(440, 8192, 0.1), testSampleRate)
	loud := computeFeatures(sine(440, 8192, 0.9), testSampleRate)
	assert.Greater(t, loud["loudness"], quiet["loudness"])
}

func TestFlatnessSeparatesNoiseFromTone(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tonal := computeFeatures(sine(440, 8192, 0.5), testSampleRate)
	noisy := computeFeatures(noise(8192, rng), testSampleRate)
	assert.Greater(t, noisy["spectral_flatness"], tonal["spectral_flatness"])
}

func TestEmptyFrame(t *testing.T) {
	feats := computeFeatures(nil, testSampleRate)
	assert.Empty(t, feats)
}

func TestBeatPositionsOnClickTrack(t *testing.T) {
	// 4 seconds of silence with a sharp click every 0.5s
	n := 4 * testSampleRate
	samples := make([]float32, n)
	var clicks []int
	for pos := testSampleRate / 2; pos < n; pos += testSampleRate / 2 {
		clicks = append(clicks, pos)
		for i := 0; i < 100 && pos+i < n; i++ {
			samples[pos+i] = 1.0
		}
	}

	beats := BeatPositions(samples, testSampleRate)
	require.GreaterOrEqual(t, len(beats), 2)

	// every detected beat should sit near a click
	for _, b := range beats {
		nearest := math.MaxFloat64
		for _, c := range clicks {
			if d := math.Abs(float64(b - c)); d < nearest {
				nearest = d
			}
		}
		assert.Less(t, nearest, float64(4096), "beat at %d is not near any click", b)
	}
}

func TestBeatPositionsShortInput(t *testing.T) {
	assert.Nil(t, BeatPositions(make([]float32, 100), testSampleRate))
}
