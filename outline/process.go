package outline

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb/geojson"
)

// DefaultExtensions are the tile file extensions picked up by the walker.
var DefaultExtensions = []string{".las", ".laz"}

// ProcessConfig carries everything one batch run needs.
type ProcessConfig struct {
	FolderPath      string
	OutputFile      string
	DetailedOutline bool
	GroupByFolder   bool
	MergeTiled      bool
	MergeIfOverlap  bool
	Recurse         bool
	GuessCrs        bool

	// Workers defaults to the number of CPUs when zero.
	Workers int
	// SampleSize defaults to DefaultSampleSize when zero.
	SampleSize int
	// Extensions defaults to DefaultExtensions when empty.
	Extensions []string

	// Opener defaults to OpenLasTile. Swappable in tests.
	Opener TileOpener
	// NewTransformer defaults to the PROJ-backed factory.
	NewTransformer TransformerFactory
	// Progress receives tile counters when non-nil.
	Progress *Progress
}

// Progress counts tiles as they move through the pipeline. Safe for
// concurrent use.
type Progress struct {
	Discovered atomic.Uint64
	Processed  atomic.Uint64
	Failed     atomic.Uint64
}

// ProcessFolder walks cfg.FolderPath, builds one outline per tile on a pool
// of workers, merges per the configured policy and writes the GeoJSON
// output. Per-tile failures are logged and skipped; only pre-flight and
// output errors abort the run.
func ProcessFolder(cfg ProcessConfig) error {
	info, err := os.Stat(cfg.FolderPath)
	if err != nil {
		return fmt.Errorf("input path %s: %w", cfg.FolderPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("input path %s is not a directory", cfg.FolderPath)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	opener := cfg.Opener
	if opener == nil {
		opener = OpenLasTile
	}
	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	progress := cfg.Progress
	if progress == nil {
		progress = &Progress{}
	}

	log.Printf("Processing %s with %d workers", cfg.FolderPath, workers)

	paths := make(chan string, workers)
	go func() {
		defer close(paths)
		root := filepath.Clean(cfg.FolderPath)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Printf("Skipping %s: %v", path, err)
				return nil
			}
			if d.IsDir() {
				if !cfg.Recurse && path != root {
					return fs.SkipDir
				}
				return nil
			}
			if !hasExtension(path, extensions) {
				return nil
			}
			progress.Discovered.Add(1)
			paths <- path
			return nil
		})
		if err != nil {
			log.Printf("Directory walk ended early: %v", err)
		}
	}()

	opts := BuildOptions{
		DetailedOutline: cfg.DetailedOutline,
		GuessCrs:        cfg.GuessCrs,
		SampleSize:      cfg.SampleSize,
		NewTransformer:  cfg.NewTransformer,
	}

	results := make(chan *geojson.Feature, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for path := range paths {
				feature, err := BuildOutline(path, opener, opts)
				if err != nil {
					progress.Failed.Add(1)
					log.Printf("Skipping %s: %v", path, err)
					continue
				}
				progress.Processed.Add(1)
				results <- feature
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	collection := NewOutlineCollection()
	for feature := range results {
		collection.AddFeature(feature)
	}

	if cfg.GroupByFolder || cfg.MergeTiled || cfg.MergeIfOverlap {
		collection.MergeGeometries(cfg.MergeTiled, cfg.MergeIfOverlap)
	}

	output := cfg.OutputFile
	if output == "" {
		output = DefaultOutputName(cfg.FolderPath)
	}
	if err := collection.SaveFile(output); err != nil {
		return err
	}

	log.Printf("Processed %d of %d tile(s), %d failed",
		progress.Processed.Load(), progress.Discovered.Load(), progress.Failed.Load())
	return nil
}

// DefaultOutputName derives the output file name from the input directory.
func DefaultOutputName(folderPath string) string {
	base := filepath.Base(filepath.Clean(folderPath))
	if base == "." || base == string(filepath.Separator) {
		base = "outlines"
	}
	return base + ".geojson"
}

func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
