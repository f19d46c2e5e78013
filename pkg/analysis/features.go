package analysis

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const rolloffQuantile = 0.85

// powerSpectrum returns the Hann-windowed power spectrum of a frame
// (positive bins only, including DC and Nyquist).
func powerSpectrum(frame []float32) []float64 {
	n := len(frame)
	win := window.Hann(n)
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = float64(frame[i]) * win[i]
	}
	coeffs := fft.FFTReal(buf)
	half := n/2 + 1
	ps := make([]float64, half)
	for k := 0; k < half; k++ {
		re := real(coeffs[k])
		im := imag(coeffs[k])
		ps[k] = re*re + im*im
	}
	return ps
}

// computeFeatures extracts the per-frame feature set used for
// similarity matching.
func computeFeatures(frame []float32, sampleRate int) map[string]float64 {
	feats := make(map[string]float64, 24)

	n := len(frame)
	if n == 0 {
		return feats
	}

	// Loudness by Stevens' power law (energy^0.67), normalized by
	// frame length so long and short frames are comparable.
	energy := 0.0
	for _, s := range frame {
		energy += float64(s) * float64(s)
	}
	feats["loudness"] = math.Pow(energy, 0.67) / float64(n)

	crossings := 0
	for i := 1; i < n; i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	if n > 1 {
		feats["zero_crossing_rate"] = float64(crossings) / float64(n-1)
	} else {
		feats["zero_crossing_rate"] = 0
	}

	ps := powerSpectrum(frame)
	binHz := float64(sampleRate) / float64(n)

	var total, weighted, hfc float64
	for k, p := range ps {
		total += p
		weighted += float64(k) * binHz * p
		hfc += float64(k) * p
	}
	if total > 0 {
		feats["spectral_centroid"] = weighted / total
	} else {
		feats["spectral_centroid"] = 0
	}
	feats["hfc"] = hfc
	feats["spectral_rolloff"] = rolloff(ps, binHz, total)
	feats["spectral_flatness"] = flatness(ps)
	feats["flux"] = halfFrameFlux(frame)

	for i, c := range mfccFromSpectrum(ps, sampleRate) {
		feats[mfccName(i)] = c
	}
	return feats
}

func rolloff(ps []float64, binHz, total float64) float64 {
	if total <= 0 {
		return 0
	}
	target := rolloffQuantile * total
	cum := 0.0
	for k, p := range ps {
		cum += p
		if cum >= target {
			return float64(k) * binHz
		}
	}
	return float64(len(ps)-1) * binHz
}

func flatness(ps []float64) float64 {
	const eps = 1e-12
	logSum, sum := 0.0, 0.0
	for _, p := range ps {
		logSum += math.Log(p + eps)
		sum += p + eps
	}
	n := float64(len(ps))
	return math.Exp(logSum/n) / (sum / n)
}

// halfFrameFlux measures spectral change within the frame: the L2
// distance between the normalized magnitude spectra of its two halves.
func halfFrameFlux(frame []float32) float64 {
	n := len(frame) / 2
	if n < 2 {
		return 0
	}
	a := normalizedMagnitudes(powerSpectrum(frame[:n]))
	b := normalizedMagnitudes(powerSpectrum(frame[n : 2*n]))
	sum := 0.0
	for k := range a {
		d := b[k] - a[k]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func normalizedMagnitudes(ps []float64) []float64 {
	mags := make([]float64, len(ps))
	norm := 0.0
	for k, p := range ps {
		mags[k] = math.Sqrt(p)
		norm += p
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for k := range mags {
			mags[k] /= norm
		}
	}
	return mags
}
