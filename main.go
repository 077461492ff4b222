package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	outputFile    = flag.String("output", "", "Output GeoJSON file (default: <folder name>.geojson)")
	configFile    = flag.String("config", "", "Path to optional YAML configuration file")
	detailed      = flag.Bool("detailed", false, "Read every point and build a convex hull instead of using the header bounds")
	groupByFolder = flag.Bool("group-by-folder", false, "Merge outlines into one polygon per folder")
	mergeTiled    = flag.Bool("merge-tiled", false, "Only merge outlines whose polygons share a vertex")
	mergeOverlap  = flag.Bool("merge-overlap", false, "Also merge outlines whose polygons overlap")
	recurse       = flag.Bool("recurse", false, "Recurse into subfolders")
	guessCrs      = flag.Bool("guess-crs", false, "Guess the CRS from a point sample when the header declares none")
	workers       = flag.Int("workers", 0, "Number of worker goroutines (default: number of CPUs)")
	sampleSize    = flag.Int("sample-size", 0, "Number of points sampled when guessing the CRS (default 10)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Usage: lasoutline [flags] <folder>\n\nCreates a GeoJSON file with the outlines of LAS tiles found in the folder.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Printf("lasoutline version: %s\n", Version)

	app := NewApp()
	app.ApplyOptions(AppOptions{
		FolderPath:    flag.Arg(0),
		OutputFile:    *outputFile,
		ConfigFile:    *configFile,
		Detailed:      *detailed,
		GroupByFolder: *groupByFolder,
		MergeTiled:    *mergeTiled,
		MergeOverlap:  *mergeOverlap,
		Recurse:       *recurse,
		GuessCrs:      *guessCrs,
		Workers:       *workers,
		SampleSize:    *sampleSize,
	})

	if err := app.Run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
