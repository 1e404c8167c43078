package rca

import "fmt"

// ScoreCallQuality converts extracted metrics into a 0-100 quality score plus
// an ordered list of human-readable issues. Penalties are independent and
// additive; each check fires at most once. The score is not floor-clamped
// here: callers that fold in raw error counts apply their own floor and cap.
//
// When HasEvidence(m) is false the numeric result is meaningless and callers
// must present "insufficient data" instead.
func ScoreCallQuality(m *CallMetrics) (float64, []string) {
	issues := []string{}
	score := 100.0

	// Provider pacing: overall enqueued/provider byte ratio.
	if len(m.ProviderSegments) > 0 && m.ProviderBytesTotal > 0 {
		actualRatio := float64(m.EnqueuedBytesTotal) / float64(m.ProviderBytesTotal)
		if actualRatio < RatioLowerBound || actualRatio > RatioUpperBound {
			issues = append(issues, "Provider bytes pacing issue")
			score -= PenaltyPacingRatio
		}
	}

	// Drift (greeting segments already excluded during extraction).
	if absFloat(m.WorstDriftPct) > DriftCriticalPct {
		issues = append(issues, fmt.Sprintf("High drift (%.1f%%)", m.WorstDriftPct))
		score -= PenaltyHighDrift
	}

	// Underflows, rate-based severity.
	if m.UnderflowCount > 0 && len(m.StreamingSummaries) > 0 {
		totalFrames := 0
		for _, seg := range m.StreamingSummaries {
			totalFrames += seg.BytesSent / BytesPerFrame
		}
		if totalFrames > 0 {
			underflowRate := float64(m.UnderflowCount) / float64(totalFrames) * 100

			if underflowRate >= UnderflowSignificantRatePct {
				issues = append(issues, fmt.Sprintf("%d underflows (%.1f%% rate - significant)", m.UnderflowCount, underflowRate))
				score -= PenaltyUnderflowSignificant
			} else if underflowRate >= UnderflowMinorRatePct {
				issues = append(issues, fmt.Sprintf("%d underflows (%.1f%% rate - minor)", m.UnderflowCount, underflowRate))
				score -= PenaltyUnderflowMinor
			}
		}
	}

	if m.GateFlutterDetected {
		issues = append(issues, "Gate flutter detected")
		score -= PenaltyGateFlutter
	}

	if m.VADSettings != nil && m.VADSettings.WebRTCAggressiveness == 0 {
		issues = append(issues, "VAD too sensitive")
		score -= PenaltyVADTooSensitive
	}

	if m.FormatAlignment != nil {
		if m.FormatAlignment.AudioSocketMismatch {
			issues = append(issues, "AudioSocket format mismatch")
			score -= PenaltyAudioSocketMismatch
		}
		if m.FormatAlignment.ProviderFormatMismatch {
			issues = append(issues, "Provider format mismatch")
			score -= PenaltyProviderMismatch
		}
		if m.FormatAlignment.FrameSizeMismatch {
			issues = append(issues, "Frame size mismatch")
			score -= PenaltyFrameSizeMismatch
		}
	}

	return score, issues
}

// HasEvidence reports whether the metrics carry anything worth scoring. A
// scan that extracted nothing must render as "insufficient data", not as a
// perfect call.
func HasEvidence(m *CallMetrics) bool {
	if m == nil {
		return false
	}
	if len(m.ProviderSegments) > 0 || len(m.StreamingSummaries) > 0 {
		return true
	}
	if m.UnderflowCount > 0 || m.GateClosures > 0 || m.GateFlutterDetected {
		return true
	}
	if m.VADSettings != nil {
		return true
	}
	if m.AudioSocketFormat != "" || m.ProviderInputFormat != "" || m.ProviderOutputFormat != "" || m.SampleRate > 0 {
		return true
	}
	if m.FormatAlignment != nil {
		if m.FormatAlignment.RuntimeAudioSocketFormat != "" || m.FormatAlignment.RuntimeProviderInputFormat != "" || m.FormatAlignment.RuntimeSampleRate > 0 {
			return true
		}
		if len(m.FormatAlignment.Issues) > 0 {
			return true
		}
	}
	return false
}
