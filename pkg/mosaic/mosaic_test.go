package mosaic

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/analysis"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/audio"
)

const (
	sampleRate = 44100
	frameSize  = 4096
)

func writeTone(t *testing.T, dir, name string, freq float64, n int) string {
	t.Helper()
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, audio.WriteWAV(path, samples, sampleRate))
	return path
}

func analyze(t *testing.T, path, id string) []analysis.Frame {
	t.Helper()
	frames, err := analysis.AnalyzeFile(context.Background(), path, id,
		analysis.Config{FrameSize: frameSize, SampleRate: sampleRate})
	require.NoError(t, err)
	require.NotEmpty(t, frames)
	return frames
}

func TestReconstructBestPicksExactMatch(t *testing.T) {
	dir := t.TempDir()
	aPath := writeTone(t, dir, "a.wav", 440, sampleRate)
	bPath := writeTone(t, dir, "b.wav", 3000, sampleRate)

	source := append(analyze(t, aPath, "a"), analyze(t, bPath, "b")...)
	target := analyze(t, aPath, aPath)

	cache := audio.NewCache(sampleRate)
	res, err := Reconstruct(context.Background(), source, target, cache, Options{
		Strategy: StrategyBest,
	})
	require.NoError(t, err)

	// the target is file A itself, so every frame must come from A
	require.Len(t, res.SelectedIDs, len(target))
	for i, id := range res.SelectedIDs {
		assert.Equal(t, "a", id, "frame %d", i)
	}

	// and the reconstruction reproduces the covered part exactly
	end := target[len(target)-1].EndSample
	assert.Equal(t, res.TargetAudio[:end], res.Audio[:end])
	assert.Len(t, res.Audio, len(res.TargetAudio))
}

func TestReconstructRandomStaysWithinSources(t *testing.T) {
	dir := t.TempDir()
	aPath := writeTone(t, dir, "a.wav", 440, sampleRate)
	bPath := writeTone(t, dir, "b.wav", 3000, sampleRate)

	source := append(analyze(t, aPath, "a"), analyze(t, bPath, "b")...)
	target := analyze(t, aPath, aPath)

	cache := audio.NewCache(sampleRate)
	res, err := Reconstruct(context.Background(), source, target, cache, Options{
		Strategy: StrategyRandom,
		Rand:     rand.New(rand.NewSource(42)),
	})
	require.NoError(t, err)
	require.Len(t, res.SelectedIDs, len(target))
	for _, id := range res.SelectedIDs {
		assert.Contains(t, []string{"a", "b"}, id)
	}
}

func TestReconstructInvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	aPath := writeTone(t, dir, "a.wav", 440, sampleRate)
	frames := analyze(t, aPath, "a")

	_, err := Reconstruct(context.Background(), frames, frames, audio.NewCache(sampleRate), Options{
		Strategy: "greedy",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid strategy")
}

func TestReconstructNoSourceFrames(t *testing.T) {
	dir := t.TempDir()
	aPath := writeTone(t, dir, "a.wav", 440, sampleRate)
	target := analyze(t, aPath, "a")

	_, err := Reconstruct(context.Background(), nil, target, audio.NewCache(sampleRate), Options{
		Strategy: StrategyBest,
	})
	require.Error(t, err)
}

func TestReconstructMissingFeature(t *testing.T) {
	dir := t.TempDir()
	aPath := writeTone(t, dir, "a.wav", 440, sampleRate)
	frames := analyze(t, aPath, "a")

	_, err := Reconstruct(context.Background(), frames, frames, audio.NewCache(sampleRate), Options{
		Strategy: StrategyBest,
		Features: []string{"danceability"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing feature")
}

func TestNeighborsCappedAtSourceSize(t *testing.T) {
	dir := t.TempDir()
	aPath := writeTone(t, dir, "a.wav", 440, frameSize*2)
	frames := analyze(t, aPath, "a")
	require.Len(t, frames, 2)

	res, err := Reconstruct(context.Background(), frames, frames, audio.NewCache(sampleRate), Options{
		Strategy:  StrategyRandom,
		Neighbors: 50,
		Rand:      rand.New(rand.NewSource(7)),
	})
	require.NoError(t, err)
	assert.Len(t, res.SelectedIDs, 2)
}

func TestMix(t *testing.T) {
	mixed := Mix([]float32{1, 1, 1}, []float32{0, 1})
	require.Len(t, mixed, 2)
	assert.InDelta(t, 0.5, mixed[0], 1e-6)
	assert.InDelta(t, 1.0, mixed[1], 1e-6)
}
