package rca

// CallMetrics holds the metrics extracted from one call's logs. It is built
// once per analysis run by ExtractMetrics, decorated with a FormatAlignment by
// AnalyzeFormatAlignment, and read-only from then on.
type CallMetrics struct {
	// Provider bytes tracking
	ProviderSegments   []ProviderSegment `json:"provider_segments"`
	ProviderBytesTotal int               `json:"provider_bytes_total"`
	EnqueuedBytesTotal int               `json:"enqueued_bytes_total"`
	WorstEnqueuedRatio float64           `json:"worst_enqueued_ratio"`

	// Streaming performance
	StreamingSummaries []StreamingSummary `json:"streaming_summaries"`
	WorstDriftPct      float64            `json:"worst_drift_pct"`
	UnderflowCount     int                `json:"underflow_count"`

	// VAD / audio gating
	VADSettings         *VADSettings `json:"vad_settings,omitempty"`
	GateClosures        int          `json:"gate_closures"`
	GateFlutterDetected bool         `json:"gate_flutter_detected"`

	// Transport/format as observed at runtime
	AudioSocketFormat    string `json:"audiosocket_format,omitempty"`
	ProviderInputFormat  string `json:"provider_input_format,omitempty"`
	ProviderOutputFormat string `json:"provider_output_format,omitempty"`
	SampleRate           int    `json:"sample_rate,omitempty"`

	// Attached after extraction by the alignment analyzer
	FormatAlignment *FormatAlignment `json:"format_alignment,omitempty"`

	// Configuration issues surfaced from the scan
	ConfigErrors []string `json:"config_errors,omitempty"`
}

// ProviderSegment tracks provider-vs-enqueued bytes for one audio segment.
type ProviderSegment struct {
	ProviderBytes int     `json:"provider_bytes"`
	EnqueuedBytes int     `json:"enqueued_bytes"`
	Ratio         float64 `json:"ratio"`
}

// StreamingSummary holds the per-stream tuning summary emitted at segment end.
// Greeting segments interleave with silence while awaiting the caller, so
// their drift and underflows are reported but excluded from the aggregates.
type StreamingSummary struct {
	StreamID         string  `json:"stream_id"`
	BytesSent        int     `json:"bytes_sent"`
	EffectiveSeconds float64 `json:"effective_seconds"`
	WallSeconds      float64 `json:"wall_seconds"`
	DriftPct         float64 `json:"drift_pct"`
	LowWatermark     int     `json:"low_watermark"`
	MinStart         int     `json:"min_start"`
	IsGreeting       bool    `json:"is_greeting"`
}

// VADSettings holds the voice-activity-detection configuration in effect.
type VADSettings struct {
	WebRTCAggressiveness int     `json:"webrtc_aggressiveness"`
	ConfidenceThreshold  float64 `json:"confidence_threshold"`
	EnergyThreshold      int     `json:"energy_threshold"`
	EnhancedEnabled      bool    `json:"enhanced_enabled"`
}

// FormatAlignment cross-checks configuration-declared audio settings against
// runtime-observed behavior.
type FormatAlignment struct {
	// Declared by the call header
	ConfigAudioTransport       string `json:"config_audio_transport,omitempty"`
	ConfigAudioSocketFormat    string `json:"config_audiosocket_format,omitempty"`
	ConfigProviderInputFormat  string `json:"config_provider_input_format,omitempty"`
	ConfigProviderOutputFormat string `json:"config_provider_output_format,omitempty"`
	ConfigSampleRate           int    `json:"config_sample_rate,omitempty"`

	// Observed in logs
	RuntimeAudioSocketFormat   string `json:"runtime_audiosocket_format,omitempty"`
	RuntimeProviderInputFormat string `json:"runtime_provider_input_format,omitempty"`
	RuntimeSampleRate          int    `json:"runtime_sample_rate,omitempty"`

	// Frame size analysis
	ExpectedFrameSize int `json:"expected_frame_size,omitempty"`
	ObservedFrameSize int `json:"observed_frame_size,omitempty"`

	// Derived mismatch flags
	AudioSocketMismatch    bool `json:"audiosocket_mismatch"`
	ProviderFormatMismatch bool `json:"provider_format_mismatch"`
	SampleRateMismatch     bool `json:"sample_rate_mismatch"`
	FrameSizeMismatch      bool `json:"frame_size_mismatch"`

	// One prose entry per detected mismatch
	Issues []string `json:"issues"`
}
