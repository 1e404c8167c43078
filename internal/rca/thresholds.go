package rca

// Scoring and gating thresholds, kept in one place so the documented values
// are assertable and adjustments do not hunt through the extractors.
const (
	// Provider pacing: enqueued/provider byte ratio should sit near 1.0.
	RatioLowerBound = 0.95
	RatioUpperBound = 1.05

	// Drift beyond this percentage (either sign) indicates a timing problem.
	DriftCriticalPct = 10.0

	// Underflow rate bands, as a percentage of estimated total frames.
	UnderflowMinorRatePct       = 1.0
	UnderflowSignificantRatePct = 5.0

	// Bytes per 20 ms frame of 16-bit PCM at 8 kHz; used to estimate total
	// frames from bytes sent.
	BytesPerFrame = 320

	// More gate closures than this in one call means the audio gate is
	// fluttering (self-interference).
	GateFlutterThreshold = 50

	// Frame-size mismatch tolerance: a tenth of the expected size.
	FrameSizeToleranceDivisor = 10

	// Canonical AudioSocket wire format.
	AudioSocketGoldenFormat = "slin"

	// Ratio deviations closer than this are the same magnitude; the
	// first-seen worst ratio wins such ties.
	ratioTieEpsilon = 1e-9
)

// Score penalties. Each fires at most once and penalties are independent.
const (
	PenaltyPacingRatio          = 30.0
	PenaltyHighDrift            = 25.0
	PenaltyUnderflowSignificant = 20.0
	PenaltyUnderflowMinor       = 5.0
	PenaltyGateFlutter          = 20.0
	PenaltyVADTooSensitive      = 15.0
	PenaltyAudioSocketMismatch  = 30.0
	PenaltyProviderMismatch     = 25.0
	PenaltyFrameSizeMismatch    = 20.0
)

// Deep-diagnosis gate.
const (
	// Below this score the call merits a deep diagnosis pass.
	GateScoreThreshold = 90.0

	// Fewer non-blank lines than this, with no errors or warnings, is too
	// little evidence to justify the cost of a deep pass.
	GateMinLines = 50
)
