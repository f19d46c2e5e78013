package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// WriteWAV writes mono float32 samples as a 16-bit PCM WAV file.
// Samples are clipped to [-1, 1].
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	dataLen := uint32(len(samples) * 2)

	// RIFF header
	w.WriteString("RIFF")
	binary.Write(w, binary.LittleEndian, uint32(36+dataLen))
	w.WriteString("WAVE")

	// fmt chunk: PCM, mono, 16-bit
	w.WriteString("fmt ")
	binary.Write(w, binary.LittleEndian, uint32(16))
	binary.Write(w, binary.LittleEndian, uint16(1))
	binary.Write(w, binary.LittleEndian, uint16(1))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate))
	binary.Write(w, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(w, binary.LittleEndian, uint16(2))
	binary.Write(w, binary.LittleEndian, uint16(16))

	w.WriteString("data")
	binary.Write(w, binary.LittleEndian, dataLen)
	for _, s := range samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		binary.Write(w, binary.LittleEndian, int16(math.Round(v*32767)))
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("wav write %s: %w", path, err)
	}
	return nil
}
