package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-ocarina/analysis"
	fitcommon "github.com/cwbudde/algo-ocarina/internal/fitcommon"
	"github.com/cwbudde/algo-ocarina/ocarina"
	"github.com/cwbudde/algo-ocarina/preset"
)

func main() {
	referencePath := flag.String("reference", "reference/m1.wav", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render the candidate from -preset")
	presetPath := flag.String("preset", "", "Preset JSON path for the rendered candidate (optional)")
	sequence := flag.String("sequence", "01234567:2.0", "Fingering sequence for the rendered candidate")
	room := flag.String("room", "", "Synthetic room for the rendered candidate (optional)")
	tail := flag.Float64("tail", 0.5, "Release seconds after the rendered sequence")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger := fitcommon.NewLogger(*verbose)

	ref, err := readResampled(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		cand, err = readResampled(*candidatePath, *sampleRate)
		if err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		p := preset.Default()
		if *presetPath != "" {
			if p, err = preset.LoadJSON(*presetPath); err != nil {
				die("failed to load preset: %v", err)
			}
		}
		steps, err := ocarina.ParsePerformance(*sequence, p.Mode)
		if err != nil {
			die("invalid -sequence: %v", err)
		}
		roomStage, err := fitcommon.LoadRoom(p, *room, *sampleRate)
		if err != nil {
			die("failed to load room: %v", err)
		}
		samples, channels := fitcommon.Render(p, steps, roomStage, fitcommon.RenderOptions{
			SampleRate:  *sampleRate,
			ControlRate: 60,
			BlockSize:   256,
			Tail:        *tail,
			Logger:      logger,
		})
		cand = fitcommon.Downmix(samples, channels)
		if *writeCandidate != "" {
			if err := fitcommon.WriteWAV(*writeCandidate, samples, channels, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Component  Raw             Norm   Weight  Contribution\n")
	fmt.Printf("──────────────────────────────────────────────────────────\n")
	for _, c := range metrics.Components {
		marker := ""
		if metrics.Dominant == c.Name {
			marker = " ◄"
		}
		raw := strings.TrimSpace(fmt.Sprintf("%.4g %s", c.Raw, c.Unit))
		fmt.Printf("%-10s %-15s %5.1f%%  ×%.2f   → %.4f%s\n", c.Name, raw, c.Norm*100, c.Weight, c.Contribution(), marker)
	}
	fmt.Printf("──────────────────────────────────────────────────────────\n")
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
	fmt.Printf("Dominant factor:  %s\n", metrics.Dominant)
	fmt.Printf("\nPitch:       ref=%.2f Hz  cand=%.2f Hz\n", metrics.RefPitchHz, metrics.CandPitchHz)
	fmt.Printf("Attack:      ref=%.3f s  cand=%.3f s\n", metrics.RefAttackS, metrics.CandAttackS)
	fmt.Printf("Release:     ref=%.3f s  cand=%.3f s\n", metrics.RefReleaseS, metrics.CandReleaseS)
	fmt.Printf("Breathiness: ref=%.3f  cand=%.3f\n", metrics.RefBreathiness, metrics.CandBreathiness)
}

func readResampled(path string, sampleRate int) ([]float64, error) {
	x, sr, err := fitcommon.ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	return fitcommon.Resample(x, sr, sampleRate)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
