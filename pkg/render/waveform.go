// Package render draws waveform overview images.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

const (
	imgWidth  = 1500
	imgHeight = 400
)

var (
	bgColor    = color.RGBA{255, 255, 255, 255}
	waveColor  = color.RGBA{31, 119, 180, 255}
	frameColor = color.RGBA{214, 39, 40, 255}
	axisColor  = color.RGBA{200, 200, 200, 255}
)

// WaveformPNG renders samples as a min/max waveform with red vertical
// markers at the given frame-start positions. maxSamples caps how much
// of the buffer is drawn; 0 draws everything.
func WaveformPNG(path string, samples []float32, frameStarts []int, maxSamples int) error {
	if len(samples) == 0 {
		return fmt.Errorf("no samples to render")
	}
	n := len(samples)
	if maxSamples > 0 && maxSamples < n {
		n = maxSamples
	}

	img := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			img.Set(x, y, bgColor)
		}
	}
	mid := imgHeight / 2
	for x := 0; x < imgWidth; x++ {
		img.Set(x, mid, axisColor)
	}

	// one column per pixel, drawn as the min..max span of its samples
	perCol := float64(n) / float64(imgWidth)
	for x := 0; x < imgWidth; x++ {
		lo := int(float64(x) * perCol)
		hi := int(float64(x+1) * perCol)
		if hi <= lo {
			hi = lo + 1
		}
		if hi > n {
			hi = n
		}
		minV, maxV := float32(1), float32(-1)
		for i := lo; i < hi; i++ {
			if samples[i] < minV {
				minV = samples[i]
			}
			if samples[i] > maxV {
				maxV = samples[i]
			}
		}
		if maxV < minV {
			continue
		}
		yTop := sampleToY(maxV)
		yBot := sampleToY(minV)
		for y := yTop; y <= yBot; y++ {
			img.Set(x, y, waveColor)
		}
	}

	for _, start := range frameStarts {
		if start >= n {
			continue
		}
		x := int(float64(start) / perCol)
		if x >= imgWidth {
			continue
		}
		for y := 0; y < imgHeight; y++ {
			img.Set(x, y, frameColor)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func sampleToY(v float32) int {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	y := int((1 - float64(v)) / 2 * float64(imgHeight-1))
	if y < 0 {
		y = 0
	}
	if y >= imgHeight {
		y = imgHeight - 1
	}
	return y
}
