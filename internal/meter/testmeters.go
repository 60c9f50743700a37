package meter

// TestMeters groups the meters owned by the evaluation driver: one
// corpus-scope pair accumulated over the whole run, one per-sample pair reset
// before each utterance when diagnostics are requested, and the run timer.
// The two pairs are independent instances; nothing couples them.
type TestMeters struct {
	// LER and WER accumulate over the whole corpus and only ever grow
	// between resets.
	LER *EditDistanceMeter
	WER *EditDistanceMeter

	// SampleLER and SampleWER reflect exactly one utterance at a time.
	SampleLER *EditDistanceMeter
	SampleWER *EditDistanceMeter

	Timer *TimeMeter
}

// NewTestMeters returns a fresh meter group.
func NewTestMeters() *TestMeters {
	return &TestMeters{
		LER:       NewEditDistanceMeter(),
		WER:       NewEditDistanceMeter(),
		SampleLER: NewEditDistanceMeter(),
		SampleWER: NewEditDistanceMeter(),
		Timer:     NewTimeMeter(),
	}
}

// ResetSample clears the per-sample pair ahead of one utterance.
func (m *TestMeters) ResetSample() {
	m.SampleLER.Reset()
	m.SampleWER.Reset()
}
