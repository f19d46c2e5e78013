package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/analysis"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/audio"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/catalog"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/collection"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/freesound"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/mosaic"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/render"
	"github.com/fergarciadlc/amplab-audio-mosaicing/pkg/store"
)

const (
	sourceCSV   = "dataframe_source.csv"
	targetCSV   = "dataframe_target.csv"
	targetPNG   = "target_waveform.png"
	mosaicPNG   = "reconstructed_waveform.png"
	mixWAV      = "mix.wav"
	plotSeconds = 4
)

func main() {
	log.SetFlags(0)

	step := flag.String("step", "all", "step to execute: download | analyze | mosaic | all")
	target := flag.String("target", "574234__kbrecordzz__groove-metal-break-6.wav", "path to the target audio file")
	frameSize := flag.Int("frame-size", 8192, "frame size (in samples) for analysis")
	filesDir := flag.String("files", "files", "directory for downloaded previews")
	indexDir := flag.String("index", "indexdb", "badger directory for the source frame store")
	catalogPath := flag.String("catalog", "collection.json", "catalog manifest path (file backend)")
	mongoURI := flag.String("mongo", getenv("MONGO_URL", ""), "mongodb uri for the catalog (optional)")
	queries := flag.String("queries", "organ,violin,scream", "comma-separated freesound queries")
	results := flag.Int("results", 20, "results to download per query")
	filter := flag.String("filter", "", "freesound filter, e.g. duration:[0 TO 1]")
	features := flag.String("features", "", "comma-separated similarity features (default: all)")
	strategy := flag.String("strategy", mosaic.StrategyRandom, "frame selection: random | best")
	neighbors := flag.Int("neighbors", 10, "nearest neighbours to consider per frame")
	beatSync := flag.Bool("beat-sync", false, "frame the target at detected beats")
	targetFrames := flag.String("target-frames", "target_frames.gob", "path for the analyzed target frames")
	outPath := flag.String("out", "", "output wav (default <target>.reconstructed.wav)")
	workers := flag.Int("workers", 0, "analysis workers (0=auto)")
	flag.Parse()

	ctx := context.Background()
	cat := catalogStore(ctx, *mongoURI, *catalogPath)

	switch *step {
	case "download":
		downloadStep(ctx, cat, *queries, *filter, *results, *filesDir)

	case "analyze":
		records, err := cat.Load(ctx)
		if err != nil {
			log.Fatalf("load catalog: %v (run -step download first)", err)
		}
		analyzeStep(ctx, records, *target, *frameSize, *beatSync, *indexDir, *targetFrames, *workers)

	case "mosaic":
		mosaicStep(ctx, cat, *target, *indexDir, *targetFrames, *features, *strategy, *neighbors, *outPath)

	case "all":
		records := downloadStep(ctx, cat, *queries, *filter, *results, *filesDir)
		analyzeStep(ctx, records, *target, *frameSize, *beatSync, *indexDir, *targetFrames, *workers)
		mosaicStep(ctx, cat, *target, *indexDir, *targetFrames, *features, *strategy, *neighbors, *outPath)

	default:
		fmt.Println("Usage:")
		fmt.Println("  Download the source collection:")
		fmt.Println("    mosaic -step download -queries organ,violin,scream -results 20")
		fmt.Println("  Analyze collection and target:")
		fmt.Println("    mosaic -step analyze -target groove.wav -frame-size 8192")
		fmt.Println("  Reconstruct the target:")
		fmt.Println("    mosaic -step mosaic -target groove.wav -strategy best")
		fmt.Println("  Everything in one go:")
		fmt.Println("    mosaic -step all -target groove.wav")
		os.Exit(2)
	}
}

func downloadStep(ctx context.Context, cat catalog.Store, queries, filter string, results int, filesDir string) []catalog.Record {
	apiKey := os.Getenv("FREESOUND_API_KEY")
	if apiKey == "" {
		log.Fatal("FREESOUND_API_KEY environment variable is not set")
	}
	client := freesound.NewClient(apiKey)

	var specs []collection.QuerySpec
	for _, q := range strings.Split(queries, ",") {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		specs = append(specs, collection.QuerySpec{Query: q, Filter: filter, NumResults: results})
	}
	if len(specs) == 0 {
		log.Fatal("no queries given")
	}

	log.Println("Downloading audio collection...")
	records, err := collection.Build(ctx, client, specs, filesDir, true)
	if err != nil {
		log.Fatalf("download error: %v", err)
	}
	if err := cat.Save(ctx, records); err != nil {
		log.Fatalf("save catalog: %v", err)
	}
	fmt.Printf("Saved catalog with %d entries\n", len(records))
	return records
}

func analyzeStep(ctx context.Context, records []catalog.Record, target string, frameSize int, beatSync bool, indexDir, targetFrames string, workers int) {
	sources := make([]analysis.Source, len(records))
	for i, r := range records {
		sources[i] = analysis.Source{ID: r.FreesoundID, Path: r.Path}
	}
	cfg := analysis.Config{FrameSize: frameSize, SampleRate: audio.SampleRate}

	log.Println("Analyzing source collection...")
	frames, err := analysis.AnalyzeCollection(ctx, sources, cfg, workers)
	if err != nil {
		log.Fatalf("analyze error: %v", err)
	}

	// the frame store is rebuilt from scratch on every analyze run
	if err := os.RemoveAll(indexDir); err != nil {
		log.Fatalf("clear index: %v", err)
	}
	st, err := store.Open(indexDir)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	if err := st.SetParams(store.Params{SampleRate: audio.SampleRate, FrameSize: frameSize}); err != nil {
		log.Fatalf("store params: %v", err)
	}
	if err := st.PutFrames(frames); err != nil {
		log.Fatalf("store frames: %v", err)
	}
	if err := st.Close(); err != nil {
		log.Fatalf("close store: %v", err)
	}
	if err := analysis.WriteCSV(sourceCSV, frames); err != nil {
		log.Fatalf("source csv: %v", err)
	}
	fmt.Printf("Stored %d source frames in %s (csv: %s)\n", len(frames), indexDir, sourceCSV)

	log.Printf("Analyzing target sound: %s", target)
	tcfg := cfg
	tcfg.BeatSync = beatSync
	tframes, err := analysis.AnalyzeFile(ctx, target, target, tcfg)
	if err != nil {
		log.Fatalf("target analysis: %v", err)
	}
	if err := analysis.SaveFrames(targetFrames, tframes); err != nil {
		log.Fatalf("save target frames: %v", err)
	}
	if err := analysis.WriteCSV(targetCSV, tframes); err != nil {
		log.Fatalf("target csv: %v", err)
	}
	fmt.Printf("Saved %d target frames to %s (csv: %s)\n", len(tframes), targetFrames, targetCSV)

	samples, err := audio.Decode(ctx, target, audio.SampleRate)
	if err != nil {
		log.Fatalf("decode target: %v", err)
	}
	starts := make([]int, len(tframes))
	for i, fr := range tframes {
		starts[i] = fr.StartSample
	}
	if err := render.WaveformPNG(targetPNG, samples, starts, plotSeconds*audio.SampleRate); err != nil {
		log.Fatalf("waveform plot: %v", err)
	}
	fmt.Printf("Target waveform written to %s\n", targetPNG)
}

func mosaicStep(ctx context.Context, cat catalog.Store, target, indexDir, targetFrames, features, strategy string, neighbors int, outPath string) {
	st, err := store.Open(indexDir)
	if err != nil {
		log.Fatalf("open store: %v (run -step analyze first)", err)
	}
	source, err := st.All()
	st.Close()
	if err != nil {
		log.Fatalf("load source frames: %v", err)
	}
	tframes, err := analysis.LoadFrames(targetFrames)
	if err != nil {
		log.Fatalf("load target frames: %v (run -step analyze first)", err)
	}

	var feats []string
	if features != "" {
		for _, f := range strings.Split(features, ",") {
			if f = strings.TrimSpace(f); f != "" {
				feats = append(feats, f)
			}
		}
	}

	log.Println("Reconstructing audio file...")
	cache := audio.NewCache(audio.SampleRate)
	res, err := mosaic.Reconstruct(ctx, source, tframes, cache, mosaic.Options{
		Features:  feats,
		Strategy:  strategy,
		Neighbors: neighbors,
	})
	if err != nil {
		log.Fatalf("mosaic error: %v", err)
	}

	out := outPath
	if out == "" {
		out = target + ".reconstructed.wav"
	}
	if err := audio.WriteWAV(out, res.Audio, audio.SampleRate); err != nil {
		log.Fatalf("write wav: %v", err)
	}
	if err := audio.WriteWAV(mixWAV, mosaic.Mix(res.TargetAudio, res.Audio), audio.SampleRate); err != nil {
		log.Fatalf("write mix: %v", err)
	}
	if err := render.WaveformPNG(mosaicPNG, res.Audio, nil, 0); err != nil {
		log.Fatalf("waveform plot: %v", err)
	}
	fmt.Printf("Audio generated and saved in %s (mix: %s, plot: %s)\n", out, mixWAV, mosaicPNG)

	printUsedSounds(ctx, cat, res.SelectedIDs)
}

func printUsedSounds(ctx context.Context, cat catalog.Store, selected []string) {
	records, err := cat.Load(ctx)
	if err != nil {
		log.Printf("catalog unavailable, cannot list used sounds: %v", err)
		return
	}
	byID := catalog.ByID(records)

	seen := map[string]bool{}
	fmt.Println("Freesound sounds used in the reconstruction:")
	for _, id := range selected {
		if seen[id] {
			continue
		}
		seen[id] = true
		r, ok := byID[id]
		if !ok {
			fmt.Printf("  %s\n", id)
			continue
		}
		fmt.Printf("  %s  %q by %s  [%s]\n", r.FreesoundID, r.Name, r.Username, r.License)
	}
}

func catalogStore(ctx context.Context, mongoURI, path string) catalog.Store {
	if mongoURI == "" {
		return &catalog.FileStore{Path: path}
	}
	ms, err := catalog.NewMongoStore(ctx, mongoURI)
	if err != nil {
		log.Fatalf("mongo catalog: %v", err)
	}
	return ms
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
