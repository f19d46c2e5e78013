// Package mosaic rebuilds a target sound out of the most similar
// frames of the source collection.
package mosaic

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/analysis"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/audio"
)

// Frame selection strategies.
const (
	StrategyRandom = "random" // uniform pick among the k nearest
	StrategyBest   = "best"   // always the nearest
)

const defaultNeighbors = 10

// DefaultFeatures is the feature set used for similarity when none is
// selected explicitly.
func DefaultFeatures() []string {
	feats := analysis.MFCCNames()
	return append(feats,
		"loudness",
		"spectral_centroid",
		"flux",
		"hfc",
		"spectral_rolloff",
		"spectral_flatness",
		"zero_crossing_rate",
	)
}

type Options struct {
	Features   []string
	Strategy   string
	Neighbors  int
	SampleRate int
	Rand       *rand.Rand // used by StrategyRandom; nil seeds from global source
}

// Result is the outcome of a reconstruction.
type Result struct {
	Audio       []float32 // the mosaic
	TargetAudio []float32
	SelectedIDs []string // freesound IDs used, in frame order
}

// Reconstruct rebuilds the target from source frames. For every target
// frame it picks a similar source frame and copies that segment of the
// source audio into the output at the target frame's position.
func Reconstruct(ctx context.Context, source, target []analysis.Frame, cache *audio.Cache, opts Options) (*Result, error) {
	if len(target) == 0 {
		return nil, fmt.Errorf("no target frames")
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyRandom
	}
	if opts.Strategy != StrategyRandom && opts.Strategy != StrategyBest {
		return nil, fmt.Errorf("invalid strategy %q", opts.Strategy)
	}
	if opts.Neighbors <= 0 {
		opts.Neighbors = defaultNeighbors
	}
	feats := opts.Features
	if len(feats) == 0 {
		feats = DefaultFeatures()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	m, err := newMatcher(source, feats)
	if err != nil {
		return nil, err
	}

	targetAudio, err := cache.File(ctx, target[0].Path)
	if err != nil {
		return nil, fmt.Errorf("load target: %w", err)
	}
	out := make([]float32, len(targetAudio))
	selected := make([]string, 0, len(target))

	for _, tf := range target {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nbrs, err := m.neighbors(tf, opts.Neighbors)
		if err != nil {
			return nil, err
		}
		pick := nbrs[0]
		if opts.Strategy == StrategyRandom {
			pick = nbrs[rng.Intn(len(nbrs))]
		}
		sf := m.frames[pick]
		selected = append(selected, sf.SoundID)

		n := tf.EndSample - tf.StartSample
		seg, err := cache.Segment(ctx, sf.Path, sf.StartSample, n)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", sf.FrameID, err)
		}
		if tf.StartSample < len(out) {
			copy(out[tf.StartSample:], seg)
		}
	}

	return &Result{Audio: out, TargetAudio: targetAudio, SelectedIDs: selected}, nil
}

// Mix blends two buffers 50/50, truncating to the shorter one.
func Mix(a, b []float32) []float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = 0.5*a[i] + 0.5*b[i]
	}
	return out
}
