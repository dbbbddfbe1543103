package analysis

import "testing"

func BenchmarkCompare(b *testing.B) {
	const sr = 48000
	ref := baseTone().render(sr)
	alt := baseTone()
	alt.freq = 445
	alt.noise = 0.05
	cand := alt.render(sr)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compare(ref, cand, sr)
	}
}

func BenchmarkAveragePowerSpectrum(b *testing.B) {
	x := baseTone().render(48000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = averagePowerSpectrum(x, spectrumSize)
	}
}
