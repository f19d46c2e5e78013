package mosaic

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/analysis"
)

// matcher holds the z-score normalized feature matrix of the source
// frames and answers nearest-neighbour queries against it.
type matcher struct {
	features []string
	frames   []analysis.Frame
	matrix   [][]float64
	mean     []float64
	std      []float64
}

func newMatcher(frames []analysis.Frame, features []string) (*matcher, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no source frames")
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("no features selected")
	}

	m := &matcher{
		features: features,
		frames:   frames,
		matrix:   make([][]float64, len(frames)),
		mean:     make([]float64, len(features)),
		std:      make([]float64, len(features)),
	}
	for i, fr := range frames {
		row := make([]float64, len(features))
		for j, name := range features {
			v, ok := fr.Features[name]
			if !ok {
				return nil, fmt.Errorf("source frame %s is missing feature %q", fr.FrameID, name)
			}
			row[j] = v
		}
		m.matrix[i] = row
	}

	// column-wise z-score; constant columns are left centered at zero
	col := make([]float64, len(frames))
	for j := range features {
		for i := range m.matrix {
			col[i] = m.matrix[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		m.mean[j] = mean
		m.std[j] = std
		for i := range m.matrix {
			m.matrix[i][j] = m.normalize(m.matrix[i][j], j)
		}
	}
	return m, nil
}

func (m *matcher) normalize(v float64, j int) float64 {
	if m.std[j] == 0 {
		return v - m.mean[j]
	}
	return (v - m.mean[j]) / m.std[j]
}

// neighbors returns the indices of the k source frames closest to the
// query frame, nearest first.
func (m *matcher) neighbors(query analysis.Frame, k int) ([]int, error) {
	q := make([]float64, len(m.features))
	for j, name := range m.features {
		v, ok := query.Features[name]
		if !ok {
			return nil, fmt.Errorf("target frame %s is missing feature %q", query.FrameID, name)
		}
		q[j] = m.normalize(v, j)
	}

	type scored struct {
		idx  int
		dist float64
	}
	all := make([]scored, len(m.matrix))
	for i, row := range m.matrix {
		all[i] = scored{idx: i, dist: floats.Distance(row, q, 2)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].idx < all[j].idx
	})

	if k > len(all) {
		k = len(all)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = all[i].idx
	}
	return out, nil
}
