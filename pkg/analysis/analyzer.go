// Package analysis splits audio into frames and extracts the per-frame
// features used for mosaic matching.
package analysis

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/audio"
)

// Frame is one analyzed slice of a sound with its feature values.
type Frame struct {
	SoundID     string
	FrameID     string
	Path        string
	StartSample int
	EndSample   int
	Features    map[string]float64
}

// Config controls framing.
type Config struct {
	FrameSize  int // samples; 0 means one frame for the whole file
	SampleRate int
	BeatSync   bool // frame bounds follow detected beats
}

func (c Config) sampleRate() int {
	if c.SampleRate == 0 {
		return audio.SampleRate
	}
	return c.SampleRate
}

// Source identifies one file of the source collection.
type Source struct {
	ID   string
	Path string
}

// AnalyzeFile decodes one file and returns its analyzed frames.
func AnalyzeFile(ctx context.Context, path, soundID string, cfg Config) ([]Frame, error) {
	samples, err := audio.Decode(ctx, path, cfg.sampleRate())
	if err != nil {
		return nil, err
	}
	return analyzeSamples(samples, path, soundID, cfg), nil
}

func analyzeSamples(samples []float32, path, soundID string, cfg Config) []Frame {
	frameSize := cfg.FrameSize
	if frameSize <= 0 {
		frameSize = len(samples)
	}
	if frameSize%2 != 0 {
		frameSize++
	}

	var bounds [][2]int
	if cfg.BeatSync {
		beats := BeatPositions(samples, cfg.sampleRate())
		for i := 1; i < len(beats); i++ {
			bounds = append(bounds, [2]int{beats[i-1], beats[i]})
		}
	} else {
		for start := 0; start+frameSize <= len(samples); start += frameSize {
			bounds = append(bounds, [2]int{start, start + frameSize})
		}
	}

	frames := make([]Frame, 0, len(bounds))
	for count, b := range bounds {
		start, end := b[0], b[1]
		if end > len(samples) {
			end = len(samples)
		}
		if end <= start {
			continue
		}
		frames = append(frames, Frame{
			SoundID:     soundID,
			FrameID:     fmt.Sprintf("%s_f%d", soundID, count),
			Path:        path,
			StartSample: start,
			EndSample:   end,
			Features:    computeFeatures(samples[start:end], cfg.sampleRate()),
		})
	}
	return frames
}

// AnalyzeCollection analyzes every source in parallel. Files that fail
// to decode are skipped, matching the collection-building behavior
// where a single broken preview should not abort the run.
func AnalyzeCollection(ctx context.Context, sources []Source, cfg Config, workers int) ([]Frame, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources to analyze")
	}
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 2 {
			workers = 2
		}
	}

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(sources)),
		mpb.PrependDecorators(
			decor.Name("Analyzing: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	type result struct {
		frames []Frame
		err    error
	}

	jobs := make(chan Source, len(sources))
	results := make(chan result, len(sources))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for src := range jobs {
				frames, err := AnalyzeFile(ctx, src.Path, src.ID, cfg)
				results <- result{frames: frames, err: err}
			}
		}()
	}
	for _, s := range sources {
		jobs <- s
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []Frame
	for r := range results {
		bar.Increment()
		if r.err != nil {
			log.Printf("skipping source: %v", r.err)
			continue
		}
		all = append(all, r.frames...)
	}
	p.Wait()

	if len(all) == 0 {
		return nil, fmt.Errorf("no source could be analyzed")
	}
	return all, nil
}
