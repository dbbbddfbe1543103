package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/m1.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (optional)")
	sequence := flag.String("sequence", "01234567:2.0", "Fingering sequence played for each evaluation")
	tail := flag.Float64("tail", 0.5, "Release seconds rendered after the sequence")
	outputIR := flag.String("output-ir", "", "Path to write the best synthesized room IR (room group only)")
	outputPreset := flag.String("output-preset", "assets/presets/fitted.json", "Path to write the best fitted preset JSON")
	reportPath := flag.String("report", "", "Report JSON path (default: <output-preset>.report.json)")
	optimize := flag.String("optimize", "voice,envelope", "Comma-separated knob groups: voice, envelope, room, mix")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	controlRate := flag.Float64("control-rate", 60, "Control ticks per second during renders")
	blockSize := flag.Int("render-block-size", 256, "Audio render block size")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 120.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Log progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in the report")
	resume := flag.Bool("resume", true, "Resume from a previous report's best_knobs when available")
	workers := flag.String("workers", "1", "Parallel workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger := fitcommon.NewLogger(*verbose)

	groups, err := parseOptimizeGroups(*optimize)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	if groups["room"] && *outputIR == "" {
		die("--output-ir is required when the room group is active")
	}
	if *outputPreset == "" {
		die("output-preset must not be empty")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	*reportEvery = max(1, *reportEvery)
	*topK = max(1, *topK)
	*mayflyPop = max(2, *mayflyPop)
	*mayflyRoundEvals = max(*mayflyPop*2, *mayflyRoundEvals)
	*blockSize = max(16, *blockSize)
	parsedWorkers, err := fitcommon.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	base := preset.Default()
	if *presetPath != "" {
		if base, err = preset.LoadJSON(*presetPath); err != nil {
			die("failed to load preset: %v", err)
		}
	}
	steps, err := ocarina.ParsePerformance(*sequence, base.Mode)
	if err != nil {
		die("invalid --sequence: %v", err)
	}

	refRaw, refSR, err := fitcommon.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err := fitcommon.Resample(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	paths := outputPaths{preset: *outputPreset, report: *reportPath, ir: *outputIR}
	defs, initCand := initCandidate(base, *sampleRate, groups)
	if *resume {
		knobs, err := loadKnobsFromReport(paths.reportPath())
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			logger.Warn("resume skipped", "path", paths.reportPath(), "err", err)
		default:
			if c, ok := candidateFromKnobs(knobs, defs, initCand); ok {
				initCand = c
				logger.Info("resumed candidate", "path", paths.reportPath())
			}
		}
	}

	variant := strings.ToLower(*mayflyVariant)
	if _, ok := mayflyVariants[variant]; !ok {
		die("unknown -mayfly-variant %q (have %s)", *mayflyVariant, mayflyVariantNames())
	}
	baseReport := runReport{
		ReferencePath: *referencePath,
		PresetPath:    *presetPath,
		SampleRate:    *sampleRate,
		Sequence:      *sequence,
		MayflyVariant: variant,
	}
	var outMu sync.Mutex
	cfg := &optimizationConfig{
		reference:        ref,
		baseParams:       base,
		steps:            steps,
		defs:             defs,
		initCandidate:    initCand,
		groups:           groups,
		sampleRate:       *sampleRate,
		controlRate:      *controlRate,
		blockSize:        *blockSize,
		tail:             *tail,
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    variant,
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
		logger:           logger,
		onImprove: func(best candidate, eval optimizationEval, evals int, top []topCandidate) {
			outMu.Lock()
			defer outMu.Unlock()
			rep := baseReport
			rep.Evaluations = evals
			rep.BestKnobs = knobMap(defs, best)
			rep.TopCandidates = top
			if err := writeOutputs(paths, rep, eval, *sampleRate); err != nil {
				logger.Warn("checkpoint write failed", "err", err)
			}
		},
	}

	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	outMu.Lock()
	defer outMu.Unlock()
	rep := baseReport
	rep.DurationSec = result.elapsed
	rep.Evaluations = result.evals
	rep.BestKnobs = knobMap(defs, result.best)
	rep.TopCandidates = result.top
	if err := writeOutputs(paths, rep, result.eval, *sampleRate); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.eval.metrics.Score, result.eval.metrics.Similarity*100.0, variant)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
