package rca

import (
	"fmt"
	"strings"
)

// AnalyzeFormatAlignment cross-checks configuration-declared format/sampling
// values against runtime-observed ones.
//
// The analysis is log-driven: config-side values come from the call header
// emitted at call start, never from reading config files. A missing header is
// fine; config-vs-runtime checks are simply suppressed while the golden
// baseline checks still run on runtime data alone.
func AnalyzeFormatAlignment(metrics *CallMetrics, header *CallHeader) *FormatAlignment {
	alignment := &FormatAlignment{
		Issues: []string{},
	}

	if header != nil {
		alignment.ConfigAudioTransport = strings.ToLower(strings.TrimSpace(header.AudioTransport))
		alignment.ConfigAudioSocketFormat = strings.TrimSpace(header.AudioSocketFormat)
		alignment.ConfigSampleRate = header.StreamingSampleRate
		if header.ProviderInputEncoding != "" {
			alignment.ConfigProviderInputFormat = header.ProviderInputEncoding
		} else if header.ProviderProviderInputEncoding != "" {
			alignment.ConfigProviderInputFormat = header.ProviderProviderInputEncoding
		}
		if header.ProviderOutputEncoding != "" {
			alignment.ConfigProviderOutputFormat = header.ProviderOutputEncoding
		}
	}

	alignment.RuntimeAudioSocketFormat = metrics.AudioSocketFormat
	alignment.RuntimeProviderInputFormat = metrics.ProviderInputFormat
	alignment.RuntimeSampleRate = metrics.SampleRate

	analyzeFrameSizes(alignment, metrics)
	detectMisalignments(alignment)

	return alignment
}

func analyzeFrameSizes(alignment *FormatAlignment, metrics *CallMetrics) {
	switch alignment.RuntimeAudioSocketFormat {
	case "slin", "slin16":
		// PCM16 @ 8kHz, 20ms frame
		alignment.ExpectedFrameSize = 320
	case "ulaw", "mulaw", "alaw":
		// 8-bit companded @ 8kHz, 20ms frame
		alignment.ExpectedFrameSize = 160
	}

	// Rough order-of-magnitude estimate from the first segment, not a precise
	// per-frame measurement. The mismatch tolerance below is tuned against
	// this exact estimate.
	if len(metrics.ProviderSegments) > 0 {
		alignment.ObservedFrameSize = metrics.ProviderSegments[0].ProviderBytes / 10
	}
}

func detectMisalignments(alignment *FormatAlignment) {
	transport := strings.ToLower(strings.TrimSpace(alignment.ConfigAudioTransport))

	// AudioSocket format: config vs runtime.
	if transport == "audiosocket" && alignment.ConfigAudioSocketFormat != "" && alignment.RuntimeAudioSocketFormat != "" {
		if alignment.ConfigAudioSocketFormat != alignment.RuntimeAudioSocketFormat {
			alignment.AudioSocketMismatch = true
			alignment.Issues = append(alignment.Issues, fmt.Sprintf(
				"AudioSocket format mismatch: config=%s, runtime=%s",
				alignment.ConfigAudioSocketFormat, alignment.RuntimeAudioSocketFormat))
		}
	}

	// Provider input format, compared after encoding-name normalization.
	if alignment.ConfigProviderInputFormat != "" && alignment.RuntimeProviderInputFormat != "" {
		configNorm := normalizeEncoding(alignment.ConfigProviderInputFormat)
		runtimeNorm := normalizeEncoding(alignment.RuntimeProviderInputFormat)
		if configNorm != runtimeNorm {
			alignment.ProviderFormatMismatch = true
			alignment.Issues = append(alignment.Issues, fmt.Sprintf(
				"Provider input format mismatch: config=%s, runtime=%s",
				alignment.ConfigProviderInputFormat, alignment.RuntimeProviderInputFormat))
		}
	}

	// Golden baseline: AudioSocket transport must run slin regardless of what
	// the config declares.
	if transport == "audiosocket" && alignment.RuntimeAudioSocketFormat != "" && alignment.RuntimeAudioSocketFormat != AudioSocketGoldenFormat {
		alignment.AudioSocketMismatch = true
		alignment.Issues = append(alignment.Issues, fmt.Sprintf(
			"AudioSocket format should be '%s' (golden baseline), got '%s'",
			AudioSocketGoldenFormat, alignment.RuntimeAudioSocketFormat))
	}

	// Sample rate: config vs runtime.
	if alignment.ConfigSampleRate > 0 && alignment.RuntimeSampleRate > 0 && alignment.ConfigSampleRate != alignment.RuntimeSampleRate {
		alignment.SampleRateMismatch = true
		alignment.Issues = append(alignment.Issues, fmt.Sprintf(
			"Sample rate mismatch: config=%d Hz, runtime=%d Hz",
			alignment.ConfigSampleRate, alignment.RuntimeSampleRate))
	}

	// Frame size, within tolerance.
	if alignment.ExpectedFrameSize > 0 && alignment.ObservedFrameSize > 0 {
		diff := alignment.ExpectedFrameSize - alignment.ObservedFrameSize
		if diff < 0 {
			diff = -diff
		}
		tolerance := alignment.ExpectedFrameSize / FrameSizeToleranceDivisor
		if diff > tolerance {
			alignment.FrameSizeMismatch = true
			alignment.Issues = append(alignment.Issues, fmt.Sprintf(
				"Frame size mismatch: expected ~%d bytes, observed ~%d bytes",
				alignment.ExpectedFrameSize, alignment.ObservedFrameSize))
		}
	}
}

// normalizeEncoding folds encoding-name aliases into one canonical name so
// "mulaw" vs "pcmu" is not reported as a mismatch.
func normalizeEncoding(format string) string {
	switch strings.ToLower(format) {
	case "mulaw", "ulaw", "pcmu":
		return "mulaw"
	case "alaw", "pcma":
		return "alaw"
	case "linear16", "pcm16", "slin", "slin16":
		return "pcm16"
	case "linear24", "pcm24":
		return "pcm24"
	default:
		return strings.ToLower(format)
	}
}
