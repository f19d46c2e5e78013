// Package collection builds the local source collection: it runs the
// configured Freesound queries, downloads every preview and records
// metadata for the catalog.
package collection

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	xxhash "github.com/OneOfOne/xxhash"
	"github.com/dhowden/tag"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/catalog"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/freesound"
)

// QuerySpec is one search to feed the collection from.
type QuerySpec struct {
	Query      string
	Filter     string
	NumResults int
}

// Build downloads previews for all queries into dir and returns the
// catalog records. With override set, dir is cleared first. Previews
// whose content hashes to an already-seen checksum are dropped so the
// same clip returned by two queries is only kept once.
func Build(ctx context.Context, client *freesound.Client, queries []QuerySpec, dir string, override bool) ([]catalog.Record, error) {
	if override {
		if err := os.RemoveAll(dir); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var sounds []freesound.Sound
	for _, q := range queries {
		results, err := client.TextSearch(ctx, freesound.Query{
			Text:     q.Query,
			Filter:   q.Filter,
			PageSize: q.NumResults,
		})
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", q.Query, err)
		}
		sounds = append(sounds, results...)
	}
	if len(sounds) == 0 {
		return nil, fmt.Errorf("queries returned no sounds")
	}

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(sounds)),
		mpb.PrependDecorators(
			decor.Name("Downloading: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
		),
	)

	seen := make(map[uint64]string, len(sounds))
	records := make([]catalog.Record, 0, len(sounds))
	for _, s := range sounds {
		path, err := client.DownloadPreview(ctx, s, dir)
		bar.Increment()
		if err != nil {
			log.Printf("skipping sound %d: %v", s.ID, err)
			continue
		}
		sum, err := checksumFile(path)
		if err != nil {
			return nil, err
		}
		if dup, ok := seen[sum]; ok {
			log.Printf("sound %d duplicates %s, dropping", s.ID, dup)
			os.Remove(path)
			continue
		}
		seen[sum] = path

		rec := catalog.Record{
			FreesoundID: strconv.FormatInt(s.ID, 10),
			Name:        s.Name,
			Username:    s.Username,
			License:     s.License,
			Tags:        s.Tags,
			Path:        path,
			Checksum:    sum,
		}
		rec.Title, rec.Artist = embeddedMetadata(path)
		records = append(records, rec)
	}
	p.Wait()

	if len(records) == 0 {
		return nil, fmt.Errorf("no previews could be downloaded")
	}
	return records, nil
}

func checksumFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New64()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func embeddedMetadata(path string) (title, artist string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()
	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", ""
	}
	return m.Title(), m.Artist()
}
