package analysis

import (
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// SaveFrames writes frames as a gob file.
func SaveFrames(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(frames)
}

// LoadFrames reads frames written by SaveFrames.
func LoadFrames(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var frames []Frame
	if err := gob.NewDecoder(f).Decode(&frames); err != nil {
		return nil, fmt.Errorf("decode frames %s: %w", path, err)
	}
	return frames, nil
}

// WriteCSV exports frames as a flat table, one row per frame with one
// column per feature.
func WriteCSV(path string, frames []Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to export")
	}
	featNames := make([]string, 0, len(frames[0].Features))
	for name := range frames[0].Features {
		featNames = append(featNames, name)
	}
	sort.Strings(featNames)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"freesound_id", "id", "path", "start_sample", "end_sample"}, featNames...)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, fr := range frames {
		row := []string{
			fr.SoundID,
			fr.FrameID,
			fr.Path,
			strconv.Itoa(fr.StartSample),
			strconv.Itoa(fr.EndSample),
		}
		for _, name := range featNames {
			row = append(row, strconv.FormatFloat(fr.Features[name], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
