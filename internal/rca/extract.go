package rca

import (
	"strconv"
	"strings"
)

// ExtractMetrics scans the collected log text once, top to bottom, and folds
// every recognized event into a fresh CallMetrics. Lines that match neither
// log encoding simply contribute nothing; the scan never fails.
func ExtractMetrics(logData string) *CallMetrics {
	metrics := &CallMetrics{
		ProviderSegments:   []ProviderSegment{},
		StreamingSummaries: []StreamingSummary{},
		ConfigErrors:       []string{},
		WorstEnqueuedRatio: 1.0,
		WorstDriftPct:      0.0,
	}

	for _, line := range strings.Split(logData, "\n") {
		_, event, fields, ok := ParseLine(line)
		if !ok {
			continue
		}

		switch classifyEvent(event) {
		case eventProviderSegmentBytes:
			extractProviderSegment(fields, metrics)

		case eventStreamingTuningSummary:
			extractStreamingSummary(fields, metrics)

		case eventTransportAlignment:
			extractTransportAlignment(fields, metrics)

		case eventVADSettings:
			extractVADSettings(fields, metrics)

		case eventSegmentBytesV2:
			extractSegmentBytesV2(fields, metrics)

		case eventCallHeader:
			// Handled separately by ExtractCallHeader.

		default:
			if strings.Contains(event, "gate_closure") {
				metrics.GateClosures++
			}

			// Deepgram logs a validation warning about target_encoding that is
			// harmless (the provider ignores the field). Only surface
			// target_encoding errors from other sources.
			if strings.Contains(line, "target_encoding") && strings.Contains(line, "error") {
				if !strings.Contains(line, "DeepgramProviderConfig") {
					metrics.ConfigErrors = append(metrics.ConfigErrors, "Configuration error related to target_encoding")
				}
			}
		}
	}

	metrics.GateFlutterDetected = metrics.GateClosures > GateFlutterThreshold

	return metrics
}

func extractProviderSegment(fields map[string]string, metrics *CallMetrics) {
	segment := ProviderSegment{
		ProviderBytes: atoiSafe(fields["provider_bytes"]),
		EnqueuedBytes: atoiSafe(fields["enqueued_bytes"]),
	}

	if segment.ProviderBytes > 0 {
		metrics.ProviderBytesTotal += segment.ProviderBytes
	}
	if segment.EnqueuedBytes > 0 {
		metrics.EnqueuedBytesTotal += segment.EnqueuedBytes
	}
	if v := fields["enqueued_ratio"]; v != "" {
		segment.Ratio = atofSafe(v)

		// Worst ratio is the one furthest from 1.0; ties keep the first seen.
		// Deviations on opposite sides of 1.0 (0.9 vs 1.1) differ by float
		// rounding, so equality gets an epsilon or a later equal-magnitude
		// ratio would displace the first.
		deviation := absFloat(1.0 - segment.Ratio)
		worstDeviation := absFloat(1.0 - metrics.WorstEnqueuedRatio)
		if deviation > worstDeviation+ratioTieEpsilon {
			metrics.WorstEnqueuedRatio = segment.Ratio
		}
	}

	metrics.ProviderSegments = append(metrics.ProviderSegments, segment)
}

func extractStreamingSummary(fields map[string]string, metrics *CallMetrics) {
	sum := StreamingSummary{}

	if sid := fields["stream_id"]; sid != "" {
		sum.StreamID = sid
		sum.IsGreeting = strings.Contains(sid, "greeting")
	}

	sum.BytesSent = atoiSafe(fields["bytes_sent"])
	sum.EffectiveSeconds = atofSafe(fields["effective_seconds"])
	sum.WallSeconds = atofSafe(fields["wall_seconds"])
	sum.DriftPct = atofSafe(fields["drift_pct"])
	sum.LowWatermark = atoiSafe(fields["low_watermark"])
	sum.MinStart = atoiSafe(fields["min_start"])

	if sum.DriftPct != 0 && !sum.IsGreeting {
		if absFloat(sum.DriftPct) > absFloat(metrics.WorstDriftPct) {
			metrics.WorstDriftPct = sum.DriftPct
		}
	}

	metrics.StreamingSummaries = append(metrics.StreamingSummaries, sum)
}

func extractTransportAlignment(fields map[string]string, metrics *CallMetrics) {
	if v := fields["audiosocket_format"]; v != "" {
		metrics.AudioSocketFormat = v
	}
	if v := fields["provider_input_format"]; v != "" {
		metrics.ProviderInputFormat = v
	}
	if v := fields["provider_output_format"]; v != "" {
		metrics.ProviderOutputFormat = v
	}
	if v := fields["sample_rate"]; v != "" {
		metrics.SampleRate = atoiSafe(v)
	}
}

// extractVADSettings merges sparsely: a later event that omits a field leaves
// the previously-seen value intact.
func extractVADSettings(fields map[string]string, metrics *CallMetrics) {
	if metrics.VADSettings == nil {
		metrics.VADSettings = &VADSettings{}
	}

	// Some sources log "aggressiveness", some "webrtc_aggressiveness".
	if v := fields["aggressiveness"]; v != "" || fields["webrtc_aggressiveness"] != "" {
		if v == "" {
			v = fields["webrtc_aggressiveness"]
		}
		metrics.VADSettings.WebRTCAggressiveness = atoiSafe(v)
	}
	if v := fields["confidence_threshold"]; v != "" {
		metrics.VADSettings.ConfidenceThreshold = atofSafe(v)
	}
	if v := fields["energy_threshold"]; v != "" {
		metrics.VADSettings.EnergyThreshold = atoiSafe(v)
	}
	if v := strings.ToLower(strings.TrimSpace(fields["enhanced_enabled"])); v != "" {
		metrics.VADSettings.EnhancedEnabled = v == "true" || v == "1" || v == "yes" || v == "on"
	}
}

func extractSegmentBytesV2(fields map[string]string, metrics *CallMetrics) {
	isGreeting := strings.Contains(fields["stream_id"], "greeting")

	// Greeting segments underflow during conversation pauses; that is normal
	// and must not count against the call.
	if underflows := atoiSafe(fields["underflow_events"]); underflows > 0 && !isGreeting {
		metrics.UnderflowCount += underflows
	}
}

// atoiSafe coerces log text to an int. Log data is inherently messy, so any
// parse failure yields 0 instead of an error. Decimal text is truncated.
func atoiSafe(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return int(f)
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func atofSafe(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
