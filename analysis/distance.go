package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Weights scales each component's normalized distance before summing. The
// defaults sum to 1 so the score stays in [0,1].
type Weights struct {
	Waveform float64 `json:"waveform"`
	Envelope float64 `json:"envelope"`
	Spectrum float64 `json:"spectrum"`
	Pitch    float64 `json:"pitch"`
	Attack   float64 `json:"attack"`
	Release  float64 `json:"release"`
	Breath   float64 `json:"breath"`
}

// DefaultWeights favours pitch and timbre over sample-exact waveforms, which
// breath noise makes unreachable anyway.
func DefaultWeights() Weights {
	return Weights{
		Waveform: 0.10,
		Envelope: 0.20,
		Spectrum: 0.20,
		Pitch:    0.25,
		Attack:   0.10,
		Release:  0.05,
		Breath:   0.10,
	}
}

// Component is one line of the distance breakdown.
type Component struct {
	Name   string  `json:"name"`
	Raw    float64 `json:"raw"`
	Unit   string  `json:"unit"`
	Norm   float64 `json:"norm"`
	Weight float64 `json:"weight"`
}

// Contribution is the component's share of the score.
func (c Component) Contribution() float64 { return c.Norm * c.Weight }

// Metrics compares a candidate render against a reference recording.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	WaveformRMSE   float64 `json:"waveform_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`

	RefPitchHz     float64 `json:"ref_pitch_hz"`
	CandPitchHz    float64 `json:"cand_pitch_hz"`
	PitchDiffCents float64 `json:"pitch_diff_cents"`

	RefAttackS   float64 `json:"ref_attack_s"`
	CandAttackS  float64 `json:"cand_attack_s"`
	RefReleaseS  float64 `json:"ref_release_s"`
	CandReleaseS float64 `json:"cand_release_s"`

	RefBreathiness  float64 `json:"ref_breathiness"`
	CandBreathiness float64 `json:"cand_breathiness"`

	Components []Component `json:"components"`
	Dominant   string      `json:"dominant,omitempty"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

const (
	envFrame    = 256
	envHop      = 128
	maxLagS     = 0.5
	maxCompareS = 20
	minAligned  = 256
	targetRMS   = 0.1
)

// Compare scores candidate against reference with DefaultWeights.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	return CompareWeighted(reference, candidate, sampleRate, DefaultWeights())
}

// CompareWeighted returns per-component distances and a combined score in
// [0,1]; 0 means indistinguishable. Both signals are level-matched first, so
// overall gain is not penalised.
func CompareWeighted(reference []float64, candidate []float64, sampleRate int, w Weights) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 {
		return m
	}
	ref := scaleToRMS(trimLeadingSilence(reference, 1e-6), targetRMS)
	cand := scaleToRMS(trimLeadingSilence(candidate, 1e-6), targetRMS)
	if len(ref) < minAligned || len(cand) < minAligned {
		return m
	}
	if limit := sampleRate * maxCompareS; len(ref) > limit {
		ref = ref[:limit]
	}
	if limit := sampleRate * maxCompareS; len(cand) > limit {
		cand = cand[:limit]
	}

	// Sample-level comparisons need the two takes lined up.
	maxLag := min(int(maxLagS*float64(sampleRate)), len(ref)-1, len(cand)-1)
	m.LagSamples = estimateLag(ref, cand, max(1, maxLag))
	refA, candA := alignByLag(ref, cand, m.LagSamples)
	n := min(len(refA), len(candA))
	if n >= minAligned {
		refA, candA = refA[:n], candA[:n]
		m.AlignedFrames = n
		m.WaveformRMSE = rmse(refA, candA)
		m.EnvelopeRMSEDB = envelopeRMSEDB(rmsEnvelope(refA, envFrame, envHop), rmsEnvelope(candA, envFrame, envHop))
	}

	refSpec := averagePowerSpectrum(ref, spectrumSize)
	candSpec := averagePowerSpectrum(cand, spectrumSize)
	m.SpectralRMSEDB = spectralDistanceDB(refSpec, candSpec)
	m.RefBreathiness = breathiness(refSpec, sampleRate)
	m.CandBreathiness = breathiness(candSpec, sampleRate)

	m.RefPitchHz = medianPitch(ref, sampleRate)
	m.CandPitchHz = medianPitch(cand, sampleRate)
	if m.RefPitchHz > 0 && m.CandPitchHz > 0 {
		m.PitchDiffCents = math.Abs(1200 * math.Log2(m.CandPitchHz/m.RefPitchHz))
	}

	hopS := float64(envHop) / float64(sampleRate)
	refEnv := rmsEnvelope(ref, envFrame, envHop)
	candEnv := rmsEnvelope(cand, envFrame, envHop)
	m.RefAttackS = attackTime(refEnv, hopS)
	m.CandAttackS = attackTime(candEnv, hopS)
	m.RefReleaseS = releaseTime(refEnv, hopS)
	m.CandReleaseS = releaseTime(candEnv, hopS)

	aligned := 1.0
	if m.AlignedFrames > 0 {
		aligned = 0
	}
	m.Components = []Component{
		{Name: "waveform", Raw: m.WaveformRMSE, Norm: math.Max(aligned, clamp01(m.WaveformRMSE/0.2)), Weight: w.Waveform},
		{Name: "envelope", Raw: m.EnvelopeRMSEDB, Unit: "dB", Norm: math.Max(aligned, clamp01(m.EnvelopeRMSEDB/24)), Weight: w.Envelope},
		{Name: "spectrum", Raw: m.SpectralRMSEDB, Unit: "dB", Norm: clamp01(m.SpectralRMSEDB / 30), Weight: w.Spectrum},
		pairComponent("pitch", "cents", m.RefPitchHz, m.CandPitchHz, m.PitchDiffCents, 100, w.Pitch),
		pairComponent("attack", "s", m.RefAttackS, m.CandAttackS, math.Abs(m.RefAttackS-m.CandAttackS), 0.1, w.Attack),
		pairComponent("release", "s", m.RefReleaseS, m.CandReleaseS, math.Abs(m.RefReleaseS-m.CandReleaseS), 0.2, w.Release),
		{Name: "breath", Raw: math.Abs(m.RefBreathiness - m.CandBreathiness), Norm: clamp01(math.Abs(m.RefBreathiness-m.CandBreathiness) / 0.3), Weight: w.Breath},
	}

	var total, top float64
	for _, c := range m.Components {
		v := c.Contribution()
		total += v
		if v > top {
			top = v
			m.Dominant = c.Name
		}
	}
	m.Score = clamp01(total)
	m.Similarity = math.Exp(-4 * m.Score)
	return m
}

// pairComponent scores a feature measured on both sides, where 0 means not
// found. A feature found in only one of the two signals counts as a full
// miss; absent in both is a match.
func pairComponent(name, unit string, ref, cand, diff, scale, weight float64) Component {
	c := Component{Name: name, Unit: unit, Weight: weight}
	refOK := isFinite(ref) && ref > 0
	candOK := isFinite(cand) && cand > 0
	switch {
	case refOK && candOK:
		c.Raw = diff
		c.Norm = clamp01(diff / scale)
	case refOK != candOK:
		c.Norm = 1
	}
	return c
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

func scaleToRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := rms1(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	g := target / r
	for i, v := range x {
		out[i] = v * g
	}
	return out
}

// estimateLag returns the lag in [-maxLag, maxLag] that maximises the
// cross-correlation of ref and cand, computed with one FFT round trip.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	n := nextPow2(len(ref) + len(cand))
	a := fft.FFTReal(padTo(ref, n))
	b := fft.FFTReal(padTo(cand, n))
	for i := range a {
		a[i] *= cmplx.Conj(b[i])
	}
	r := fft.IFFT(a)

	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		idx := lag
		if idx < 0 {
			idx += n
		}
		if v := real(r[idx]); v > best {
			best = v
			bestLag = lag
		}
	}
	return bestLag
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	if -lag >= len(cand) {
		return nil, nil
	}
	return ref, cand[-lag:]
}

func envelopeRMSEDB(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := linToDB(a[i]) - linToDB(b[i])
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rmse(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func padTo(x []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, x)
	return out
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
