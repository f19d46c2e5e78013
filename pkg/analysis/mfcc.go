package analysis

import (
	"fmt"
	"math"
	"sync"
)

const (
	melBands = 40
	NumMFCC  = 13
	melLowHz = 0.0
)

func mfccName(i int) string { return fmt.Sprintf("mfcc_%d", i) }

// MFCCNames lists the coefficient feature keys in order.
func MFCCNames() []string {
	names := make([]string, NumMFCC)
	for i := range names {
		names[i] = mfccName(i)
	}
	return names
}

func hzToMel(f float64) float64 { return 2595 * math.Log10(1+f/700) }
func melToHz(m float64) float64 { return 700 * (math.Pow(10, m/2595) - 1) }

type filterbankKey struct {
	bins       int
	sampleRate int
}

var (
	fbMu    sync.Mutex
	fbCache = map[filterbankKey][][]float64{}
)

// melFilterbank builds triangular mel filters over power-spectrum bins.
// Filterbanks are cached per (bins, sampleRate) since the frame size is
// constant within a run.
func melFilterbank(bins, sampleRate int) [][]float64 {
	key := filterbankKey{bins, sampleRate}
	fbMu.Lock()
	defer fbMu.Unlock()
	if fb, ok := fbCache[key]; ok {
		return fb
	}

	highHz := float64(sampleRate) / 2
	lowMel := hzToMel(melLowHz)
	highMel := hzToMel(highHz)

	// bands+2 edge points, evenly spaced on the mel scale
	edges := make([]float64, melBands+2)
	for i := range edges {
		mel := lowMel + (highMel-lowMel)*float64(i)/float64(melBands+1)
		hz := melToHz(mel)
		edges[i] = hz / highHz * float64(bins-1)
	}

	fb := make([][]float64, melBands)
	for b := 0; b < melBands; b++ {
		left, center, right := edges[b], edges[b+1], edges[b+2]
		filt := make([]float64, bins)
		for k := 0; k < bins; k++ {
			x := float64(k)
			switch {
			case x > left && x < center:
				filt[k] = (x - left) / (center - left)
			case x >= center && x < right:
				filt[k] = (right - x) / (right - center)
			}
		}
		fb[b] = filt
	}
	fbCache[key] = fb
	return fb
}

// mfccFromSpectrum computes the first NumMFCC cepstral coefficients
// from a power spectrum.
func mfccFromSpectrum(ps []float64, sampleRate int) []float64 {
	fb := melFilterbank(len(ps), sampleRate)
	logE := make([]float64, melBands)
	for b, filt := range fb {
		e := 0.0
		for k, w := range filt {
			if w > 0 {
				e += w * ps[k]
			}
		}
		logE[b] = math.Log(e + 1e-10)
	}
	return dctII(logE, NumMFCC)
}

// dctII computes the first n coefficients of an orthonormal DCT-II.
func dctII(x []float64, n int) []float64 {
	N := len(x)
	out := make([]float64, n)
	scale0 := math.Sqrt(1 / float64(N))
	scale := math.Sqrt(2 / float64(N))
	for k := 0; k < n && k < N; k++ {
		sum := 0.0
		for i := 0; i < N; i++ {
			sum += x[i] * math.Cos(math.Pi*float64(k)*(float64(i)+0.5)/float64(N))
		}
		if k == 0 {
			out[k] = sum * scale0
		} else {
			out[k] = sum * scale
		}
	}
	return out
}
