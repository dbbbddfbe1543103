package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-ocarina/analysis"
	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/preset"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	PresetPath     string             `json:"preset_path,omitempty"`
	OutputPreset   string             `json:"output_preset"`
	OutputIR       string             `json:"output_ir,omitempty"`
	SampleRate     int                `json:"sample_rate"`
	Sequence       string             `json:"sequence"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	TopCandidates  []topCandidate     `json:"top_candidates,omitempty"`
}

type outputPaths struct {
	preset string
	report string
	ir     string
}

func (o outputPaths) reportPath() string {
	if o.report != "" {
		return o.report
	}
	return o.preset + ".report.json"
}

// writeOutputs stores the fitted preset, the synthesized room IR when there
// is one, and a JSON report.
func writeOutputs(paths outputPaths, rep runReport, eval optimizationEval, sampleRate int) error {
	p := *eval.params
	if paths.ir != "" && len(eval.roomL) > 0 {
		if err := fitcommon.WriteStereoWAV(paths.ir, eval.roomL, eval.roomR, sampleRate); err != nil {
			return err
		}
		p.RoomIRWavPath = paths.ir
		rep.OutputIR = paths.ir
	}
	p.RoomIRWavPath = presetIRPath(paths.preset, p.RoomIRWavPath)
	if err := preset.SaveJSON(paths.preset, &p); err != nil {
		return err
	}
	rep.OutputPreset = paths.preset
	rep.BestScore = eval.metrics.Score
	rep.BestSimilarity = eval.metrics.Similarity
	rep.BestMetrics = eval.metrics
	return writeJSON(paths.reportPath(), rep)
}

// presetIRPath makes irPath relative to the preset's directory, which is
// how preset.LoadJSON resolves it.
func presetIRPath(presetPath string, irPath string) string {
	irPath = strings.TrimSpace(irPath)
	if irPath == "" {
		return ""
	}
	presetDirAbs, err := filepath.Abs(filepath.Dir(presetPath))
	if err != nil {
		return irPath
	}
	irAbs, err := filepath.Abs(irPath)
	if err != nil {
		return irPath
	}
	rel, err := filepath.Rel(presetDirAbs, irAbs)
	if err != nil {
		return irPath
	}
	return filepath.ToSlash(rel)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func loadKnobsFromReport(path string) (map[string]float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rep struct {
		BestKnobs map[string]float64 `json:"best_knobs"`
	}
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, err
	}
	return rep.BestKnobs, nil
}
