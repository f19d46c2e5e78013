// Package audio decodes arbitrary inputs to mono float32 PCM and
// writes 16-bit WAV output.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mjibson/go-dsp/wav"
)

// SampleRate is the working rate of the whole pipeline.
const SampleRate = 44100

// Decode loads any audio file as mono float32 at the given rate.
// Mono WAV files at the right rate are read directly; everything else
// (ogg previews, mp3, multichannel wav) goes through ffmpeg.
func Decode(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		samples, err := decodeWAV(path, sampleRate)
		if err == nil {
			return samples, nil
		}
		if !errors.Is(err, errNeedsFFmpeg) {
			return nil, err
		}
	}
	return decodeFFmpeg(ctx, path, sampleRate)
}

var errNeedsFFmpeg = errors.New("wav needs ffmpeg conversion")

func decodeWAV(path string, sampleRate int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	w, err := wav.New(f)
	if err != nil {
		return nil, fmt.Errorf("wav header %s: %w", path, err)
	}
	if int(w.SampleRate) != sampleRate || w.NumChannels != 1 {
		return nil, errNeedsFFmpeg
	}
	samples, err := w.ReadFloats(w.Samples)
	if err != nil {
		return nil, fmt.Errorf("wav read %s: %w", path, err)
	}
	return samples, nil
}

func decodeFFmpeg(ctx context.Context, path string, sampleRate int) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	args := []string{
		"-hide_banner", "-v", "error",
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "f32le",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	raw := out.Bytes()
	if len(raw)%4 != 0 {
		return nil, errors.New("unexpected ffmpeg output length")
	}
	n := len(raw) / 4
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		u := uint32(raw[4*i]) | uint32(raw[4*i+1])<<8 | uint32(raw[4*i+2])<<16 | uint32(raw[4*i+3])<<24
		samples[i] = math.Float32frombits(u)
	}
	return samples, nil
}

// ProbeDuration returns the duration of an audio file in seconds.
func ProbeDuration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &bytes.Buffer{}
	if err := cmd.Run(); err != nil {
		return 0, err
	}
	s := strings.TrimSpace(out.String())
	if s == "" {
		return 0, errors.New("no duration")
	}
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
