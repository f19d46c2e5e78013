package analysis

import (
	"math"
)

const (
	beatFrameSize = 2048
	beatHopSize   = 1024

	// minimum gap between detected beats (seconds), caps tempo at 240 BPM
	minBeatGap = 0.25

	// onset threshold relative to the local mean of the flux envelope
	onsetThreshold = 1.5
)

// BeatPositions estimates beat positions (in samples) from a spectral
// flux onset envelope. It is deliberately simple: rectified flux over a
// short STFT, an adaptive local-mean threshold, and peak picking with a
// minimum inter-beat gap.
func BeatPositions(samples []float32, sampleRate int) []int {
	if len(samples) < beatFrameSize*2 {
		return nil
	}
	numFrames := 1 + (len(samples)-beatFrameSize)/beatHopSize

	flux := make([]float64, numFrames)
	var prev []float64
	for i := 0; i < numFrames; i++ {
		start := i * beatHopSize
		mags := normalizedMagnitudes(powerSpectrum(samples[start : start+beatFrameSize]))
		if prev != nil {
			sum := 0.0
			for k := range mags {
				if d := mags[k] - prev[k]; d > 0 {
					sum += d
				}
			}
			flux[i] = sum
		}
		prev = mags
	}

	// local mean over ~0.5s on each side
	halfWin := int(0.5 * float64(sampleRate) / float64(beatHopSize))
	if halfWin < 1 {
		halfWin = 1
	}
	minGapFrames := int(minBeatGap * float64(sampleRate) / float64(beatHopSize))

	beats := []int{}
	lastBeat := -minGapFrames
	for i := 1; i < numFrames-1; i++ {
		if flux[i] < flux[i-1] || flux[i] < flux[i+1] {
			continue
		}
		lo, hi := i-halfWin, i+halfWin
		if lo < 0 {
			lo = 0
		}
		if hi >= numFrames {
			hi = numFrames - 1
		}
		mean := 0.0
		for j := lo; j <= hi; j++ {
			mean += flux[j]
		}
		mean /= float64(hi - lo + 1)
		if flux[i] < onsetThreshold*mean || math.Abs(flux[i]) == 0 {
			continue
		}
		if i-lastBeat < minGapFrames {
			continue
		}
		beats = append(beats, i*beatHopSize)
		lastBeat = i
	}
	return beats
}
