package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDCTConstantSignal(t *testing.T) {
	x := make([]float64, 40)
	for i := range x {
		x[i] = 3.0
	}
	out := dctII(x, 13)
	require.Len(t, out, 13)
	// all energy of a constant lands in the DC coefficient
	assert.InDelta(t, 3.0*math.Sqrt(40), out[0], 1e-9)
	for k := 1; k < len(out); k++ {
		assert.InDelta(t, 0, out[k], 1e-9, "coefficient %d", k)
	}
}

func TestMelFilterbankCoversSpectrum(t *testing.T) {
	bins := 4097
	fb := melFilterbank(bins, testSampleRate)
	require.Len(t, fb, melBands)

	coverage := make([]float64, bins)
	for _, filt := range fb {
		require.Len(t, filt, bins)
		for k, w := range filt {
			assert.GreaterOrEqual(t, w, 0.0)
			coverage[k] += w
		}
	}
	// interior bins must be covered by at least one filter
	for k := bins / 10; k < bins-bins/10; k++ {
		assert.Greater(t, coverage[k], 0.0, "bin %d uncovered", k)
	}
}

func TestMFCCFromSpectrum(t *testing.T) {
	ps := powerSpectrum(sine(440, 8192, 0.5))
	coeffs := mfccFromSpectrum(ps, testSampleRate)
	require.Len(t, coeffs, NumMFCC)

	// louder signal, larger overall log energy (first coefficient)
	psLoud := powerSpectrum(sine(440, 8192, 0.9))
	loud := mfccFromSpectrum(psLoud, testSampleRate)
	assert.Greater(t, loud[0], coeffs[0])
}

func TestMFCCNames(t *testing.T) {
	names := MFCCNames()
	require.Len(t, names, NumMFCC)
	assert.Equal(t, "mfcc_0", names[0])
	assert.Equal(t, "mfcc_12", names[12])
}
