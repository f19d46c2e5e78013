package audio

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, n, sampleRate int, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := sine(440, 4410, SampleRate, 0.5)
	require.NoError(t, WriteWAV(path, in, SampleRate))

	out, err := Decode(context.Background(), path, SampleRate)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.InDelta(t, in[i], out[i], 1e-3, "sample %d", i)
	}
}

func TestWriteWAVClipsSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hot.wav")
	require.NoError(t, WriteWAV(path, []float32{2.0, -2.0, 0}, SampleRate))

	out, err := Decode(context.Background(), path, SampleRate)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.InDelta(t, 1.0, out[0], 1e-3)
	assert.InDelta(t, -1.0, out[1], 1e-3)
	assert.InDelta(t, 0.0, out[2], 1e-3)
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Decode(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), SampleRate)
	require.Error(t, err)
}

func TestCacheSegment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.wav")
	in := sine(440, 1000, SampleRate, 0.5)
	require.NoError(t, WriteWAV(path, in, SampleRate))

	c := NewCache(SampleRate)
	ctx := context.Background()

	seg, err := c.Segment(ctx, path, 100, 200)
	require.NoError(t, err)
	require.Len(t, seg, 200)
	assert.InDelta(t, in[100], seg[0], 1e-3)

	// truncated at end of file
	seg, err = c.Segment(ctx, path, 900, 500)
	require.NoError(t, err)
	assert.Len(t, seg, 100)

	// out of range reads are empty, not errors
	seg, err = c.Segment(ctx, path, 5000, 10)
	require.NoError(t, err)
	assert.Empty(t, seg)

	full, err := c.File(ctx, path)
	require.NoError(t, err)
	assert.Len(t, full, 1000)
}
