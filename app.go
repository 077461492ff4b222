package main

import (
	"log"

	"lasoutline/outline"
)

// AppOptions carries parsed CLI options into the App.
type AppOptions struct {
	FolderPath    string
	OutputFile    string
	ConfigFile    string
	Detailed      bool
	GroupByFolder bool
	MergeTiled    bool
	MergeOverlap  bool
	Recurse       bool
	GuessCrs      bool
	Workers       int
	SampleSize    int
}

// App encapsulates the configuration for one batch run.
type App struct {
	FolderPath    string
	OutputFile    string
	ConfigFile    string
	Detailed      bool
	GroupByFolder bool
	MergeTiled    bool
	MergeOverlap  bool
	Recurse       bool
	GuessCrs      bool
	Workers       int
	SampleSize    int

	Progress *outline.Progress
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{Progress: &outline.Progress{}}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.FolderPath = opts.FolderPath
	a.OutputFile = opts.OutputFile
	a.ConfigFile = opts.ConfigFile
	a.Detailed = opts.Detailed
	a.GroupByFolder = opts.GroupByFolder
	a.MergeTiled = opts.MergeTiled
	a.MergeOverlap = opts.MergeOverlap
	a.Recurse = opts.Recurse
	a.GuessCrs = opts.GuessCrs
	a.Workers = opts.Workers
	a.SampleSize = opts.SampleSize
}

// Run loads the optional config file and processes the folder. CLI flags
// take precedence over config file values.
func (a *App) Run() error {
	cfg := outline.ProcessConfig{
		FolderPath:      a.FolderPath,
		OutputFile:      a.OutputFile,
		DetailedOutline: a.Detailed,
		GroupByFolder:   a.GroupByFolder,
		MergeTiled:      a.MergeTiled,
		MergeIfOverlap:  a.MergeOverlap,
		Recurse:         a.Recurse,
		GuessCrs:        a.GuessCrs,
		Workers:         a.Workers,
		SampleSize:      a.SampleSize,
		Progress:        a.Progress,
	}

	if a.ConfigFile != "" {
		fileCfg, err := outline.LoadConfig(a.ConfigFile)
		if err != nil {
			return err
		}
		log.Printf("Loaded config from %s", a.ConfigFile)

		if cfg.Workers == 0 {
			cfg.Workers = fileCfg.Workers
		}
		if cfg.SampleSize == 0 {
			cfg.SampleSize = fileCfg.SampleSize
		}
		if len(fileCfg.Extensions) > 0 {
			cfg.Extensions = fileCfg.Extensions
		}
		if cfg.OutputFile == "" {
			cfg.OutputFile = fileCfg.Output
		}
	}

	return outline.ProcessFolder(cfg)
}
