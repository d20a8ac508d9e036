package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"photodedupe/cache"
	"photodedupe/config"
	"photodedupe/dedupe"
	"photodedupe/filestat"
	"photodedupe/frames"
	"photodedupe/logging"
	"photodedupe/metadata"
	"photodedupe/scanner"
	"photodedupe/signalhandler"
	"photodedupe/transfer"
	"photodedupe/types"
)

// organizeOptions holds the subcommand's flag values, mirroring the
// ooyeku-issuemap create.go pattern of package-level flag variables
// populated by cobra and read inside RunE.
type organizeOptions struct {
	imageThreshold      float64
	imageVideoThreshold float64
	videoThreshold      float64
	stepSize            float64
	windowSize          float64
	hashResolution      int
	sceneChangeThresh   float64
	targetFPS           float64
	minFrames           int
	maxSceneFrames      int
	concurrency         int
	batchSize           int
	overlapSize         int
	duplicatesDir       string
	errorsDir           string
	debugDir            string
	dryRun              bool
	configPath          string
	pathTemplate        string
	debugMode           bool
}

var organizeFlags organizeOptions

var organizeCmd = &cobra.Command{
	Use:   "organize <source>... <destination>",
	Short: "Scan sources for duplicates and organize the result into destination",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runOrganize,
}

func init() {
	rootCmd.AddCommand(organizeCmd)

	f := organizeCmd.Flags()
	f.Float64Var(&organizeFlags.imageThreshold, "image-threshold", 0, "image/image similarity threshold (0 uses config default)")
	f.Float64Var(&organizeFlags.imageVideoThreshold, "image-video-threshold", 0, "image/video similarity threshold")
	f.Float64Var(&organizeFlags.videoThreshold, "video-threshold", 0, "video/video similarity threshold")
	f.Float64Var(&organizeFlags.stepSize, "step-size", 0, "DTW step size in seconds")
	f.Float64Var(&organizeFlags.windowSize, "window-size", 0, "DTW sliding window size in seconds (stored in the config fingerprint; the window used is always the shorter media's duration)")
	f.IntVar(&organizeFlags.hashResolution, "hash-resolution", 0, "perceptual hash grid resolution")
	f.Float64Var(&organizeFlags.sceneChangeThresh, "scene-change-threshold", 0, "normalized frame-diff threshold that forces an extra video sample")
	f.Float64Var(&organizeFlags.targetFPS, "target-fps", 0, "baseline video sampling rate")
	f.IntVar(&organizeFlags.minFrames, "min-frames", 0, "minimum sampled frames per video")
	f.IntVar(&organizeFlags.maxSceneFrames, "max-scene-frames", 0, "maximum sampled frames per video")
	f.IntVar(&organizeFlags.concurrency, "concurrency", 0, "gather concurrency (0 uses runtime.NumCPU)")
	f.IntVar(&organizeFlags.batchSize, "batch-size", 0, "DBSCAN batch size")
	f.IntVar(&organizeFlags.overlapSize, "overlap-size", 0, "DBSCAN batch overlap size")
	f.StringVar(&organizeFlags.duplicatesDir, "duplicates-dir", "", "directory duplicates are moved into")
	f.StringVar(&organizeFlags.errorsDir, "errors-dir", "", "errors directory (stored in the plan; the transfer stage writes nothing there)")
	f.StringVar(&organizeFlags.debugDir, "debug-dir", "", "directory for debug artifacts and the run log")
	f.BoolVar(&organizeFlags.dryRun, "dry-run", false, "compute the plan without moving any files")
	f.StringVar(&organizeFlags.configPath, "config", "", "YAML config file (flags override its values)")
	f.StringVar(&organizeFlags.pathTemplate, "path-template", "", "destination path template")
	f.BoolVar(&organizeFlags.debugMode, "debug", false, "mirror log output to stdout")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	sources, destination := args[:len(args)-1], args[len(args)-1]

	cfg, err := config.Load(organizeFlags.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(&cfg)

	debugDir := cfg.DebugDir
	if !filepath.IsAbs(debugDir) {
		debugDir = filepath.Join(destination, debugDir)
	}
	if err := ensureDir(debugDir); err != nil {
		return err
	}
	if err := logging.Setup(filepath.Join(debugDir, "photodedupe.log"), organizeFlags.debugMode); err != nil {
		return err
	}
	defer logging.Close()

	ctx, stop := signalhandler.WithCancelOnInterrupt(cmd.Context())
	defer stop()

	start := time.Now()
	stats, result, files, err := runPipeline(ctx, sources, destination, cfg)
	if err != nil {
		return err
	}
	stats.Duration = time.Since(start)
	stats.UniqueCount = len(result.UniqueFiles)
	stats.DuplicateSetCount = len(result.DuplicateSets)

	plan := transfer.Plan{
		Destination:   destination,
		DuplicatesDir: resolveDir(cfg.DuplicatesDir, destination),
		ErrorsDir:     resolveDir(cfg.ErrorsDir, destination),
		PathTemplate:  cfg.PathTemplate,
		DryRun:        cfg.DryRun,
	}
	placements, err := plan.Apply(files, result)
	if err != nil {
		return err
	}

	logging.Infof("organize: %d counted, %d gathered, %d unique, %d duplicate sets, %d placed, took %s",
		stats.FilesCounted, stats.FilesGathered, stats.UniqueCount, stats.DuplicateSetCount, len(placements), stats.Duration)
	return nil
}

// runPipeline wires the gather -> dedupe stages together. Split out of
// runOrganize so the CLI-flag/config plumbing stays separate from the
// engine wiring that SPEC_FULL.md §2 describes.
func runPipeline(ctx context.Context, sources []string, destination string, cfg config.RunConfig) (types.RunStats, types.DeduplicationResult, map[string]types.FileInfo, error) {
	dbPath := config.DefaultCacheDBPath(destination)
	frameSupplier := frames.NewGocvSupplier()
	metaSupplier := metadata.NewCompositeSupplier()
	defer metaSupplier.Close()

	compute := func(ctx context.Context, path string) (types.FileInfo, error) {
		return computeFileInfo(ctx, frameSupplier, metaSupplier, path, cfg.Similarity)
	}

	cacheLayer, err := cache.New(dbPath, "organize", cfg.Similarity, compute)
	if err != nil {
		return types.RunStats{}, types.DeduplicationResult{}, nil, err
	}
	defer cacheLayer.Close()

	files, stats, err := scanner.Gather(ctx, cacheLayer, filestat.NewOSSupplier(), scanner.ScanOptions{
		Roots:       sources,
		Concurrency: cfg.Concurrency,
		DebugMode:   organizeFlags.debugMode,
	})
	if err != nil {
		return types.RunStats{}, types.DeduplicationResult{}, nil, fmt.Errorf("organize: gather: %w", err)
	}

	byPath := make(map[string]types.FileInfo, len(files))
	for _, f := range files {
		byPath[f.Path] = f
	}

	engine := dedupe.New(cfg.Similarity, cfg.BatchSize, cfg.OverlapSize)
	result, err := engine.Deduplicate(ctx, files)
	if err != nil {
		return types.RunStats{}, types.DeduplicationResult{}, nil, fmt.Errorf("organize: deduplicate: %w", err)
	}
	return stats, result, byPath, nil
}

// computeFileInfo is the CacheLayer's Compute function: it combines
// the three external suppliers (file-stat, metadata, frames) into one
// FileInfo, matching SPEC_FULL.md §2's data flow for what a cache
// miss actually runs.
func computeFileInfo(ctx context.Context, frameSupplier frames.Supplier, metaSupplier metadata.Supplier, path string, cfg types.SimilarityConfig) (types.FileInfo, error) {
	stats, err := filestat.NewOSSupplier().Stat(path)
	if err != nil {
		return types.FileInfo{}, err
	}

	meta, err := metaSupplier.Read(path)
	if err != nil {
		logging.Warnf("organize: metadata unavailable for %s: %v", path, err)
	}

	media, err := frameSupplier.Frames(ctx, path, cfg)
	if err != nil {
		return types.FileInfo{}, err
	}

	return types.FileInfo{
		Path:      path,
		FileStats: stats,
		Metadata:  meta,
		Media:     media,
	}, nil
}

func applyFlagOverrides(cfg *config.RunConfig) {
	if organizeFlags.imageThreshold > 0 {
		cfg.Similarity.ImageSimilarityThreshold = organizeFlags.imageThreshold
	}
	if organizeFlags.imageVideoThreshold > 0 {
		cfg.Similarity.ImageVideoSimilarityThreshold = organizeFlags.imageVideoThreshold
	}
	if organizeFlags.videoThreshold > 0 {
		cfg.Similarity.VideoSimilarityThreshold = organizeFlags.videoThreshold
	}
	if organizeFlags.stepSize > 0 {
		cfg.Similarity.StepSize = organizeFlags.stepSize
	}
	if organizeFlags.windowSize > 0 {
		cfg.Similarity.WindowSize = organizeFlags.windowSize
	}
	if organizeFlags.hashResolution > 0 {
		cfg.Similarity.HashResolution = organizeFlags.hashResolution
	}
	if organizeFlags.sceneChangeThresh > 0 {
		cfg.Similarity.SceneChangeThreshold = organizeFlags.sceneChangeThresh
	}
	if organizeFlags.targetFPS > 0 {
		cfg.Similarity.TargetFPS = organizeFlags.targetFPS
	}
	if organizeFlags.minFrames > 0 {
		cfg.Similarity.MinFrames = organizeFlags.minFrames
	}
	if organizeFlags.maxSceneFrames > 0 {
		cfg.Similarity.MaxSceneFrames = organizeFlags.maxSceneFrames
	}
	if organizeFlags.concurrency > 0 {
		cfg.Concurrency = organizeFlags.concurrency
	}
	if organizeFlags.batchSize > 0 {
		cfg.BatchSize = organizeFlags.batchSize
	}
	if organizeFlags.overlapSize > 0 {
		cfg.OverlapSize = organizeFlags.overlapSize
	}
	if organizeFlags.duplicatesDir != "" {
		cfg.DuplicatesDir = organizeFlags.duplicatesDir
	}
	if organizeFlags.errorsDir != "" {
		cfg.ErrorsDir = organizeFlags.errorsDir
	}
	if organizeFlags.debugDir != "" {
		cfg.DebugDir = organizeFlags.debugDir
	}
	if organizeFlags.pathTemplate != "" {
		cfg.PathTemplate = organizeFlags.pathTemplate
	}
	if organizeFlags.dryRun {
		cfg.DryRun = true
	}
}

func resolveDir(dir, destination string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(destination, dir)
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
