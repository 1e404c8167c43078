package baseline

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/voicediag/callscope/internal/rca"
)

// Severity levels for deviations, worst first.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Deviation is one departure from the golden baseline, with the exact
// expected value and the config key that sets it.
type Deviation struct {
	Parameter string `json:"parameter"`
	Current   string `json:"current"`
	Expected  string `json:"expected"`
	Severity  string `json:"severity"`
	ConfigKey string `json:"config_key,omitempty"`
}

// Comparison is the result of holding one call's metrics against a baseline.
type Comparison struct {
	BaselineName string      `json:"baseline_name"`
	Deviations   []Deviation `json:"deviations"`

	// Distribution of per-segment enqueued ratios, when segments exist.
	RatioMean   float64 `json:"ratio_mean,omitempty"`
	RatioStdDev float64 `json:"ratio_stddev,omitempty"`
}

// Compare holds metrics against the named golden baseline. Unknown baseline
// names yield nil; selecting baselines is the caller's concern.
func Compare(m *rca.CallMetrics, name string) *Comparison {
	profile, ok := Lookup(name)
	if !ok || m == nil {
		return nil
	}

	cmp := &Comparison{
		BaselineName: name,
		Deviations:   []Deviation{},
	}

	// Ratio distribution across segments.
	if ratios := segmentRatios(m); len(ratios) > 0 {
		cmp.RatioMean = stat.Mean(ratios, nil)
		if len(ratios) > 1 {
			cmp.RatioStdDev = stat.StdDev(ratios, nil)
		}
	}

	// Overall pacing ratio.
	if m.ProviderBytesTotal > 0 {
		ratio := float64(m.EnqueuedBytesTotal) / float64(m.ProviderBytesTotal)
		if ratio < profile.RatioMin || ratio > profile.RatioMax {
			cmp.Deviations = append(cmp.Deviations, Deviation{
				Parameter: "provider_bytes_ratio",
				Current:   fmt.Sprintf("%.3f", ratio),
				Expected:  fmt.Sprintf("%.2f-%.2f", profile.RatioMin, profile.RatioMax),
				Severity:  SeverityCritical,
			})
		}
	}

	// Drift envelope (greeting segments already excluded upstream).
	if drift := m.WorstDriftPct; drift > profile.MaxDriftPct || drift < -profile.MaxDriftPct {
		cmp.Deviations = append(cmp.Deviations, Deviation{
			Parameter: "drift_pct",
			Current:   fmt.Sprintf("%.1f%%", drift),
			Expected:  fmt.Sprintf("within ±%.0f%%", profile.MaxDriftPct),
			Severity:  SeverityCritical,
			ConfigKey: "streaming.sample_rate",
		})
	}

	// Underflow rate.
	if m.UnderflowCount > 0 {
		totalFrames := 0
		for _, seg := range m.StreamingSummaries {
			totalFrames += seg.BytesSent / rca.BytesPerFrame
		}
		if totalFrames > 0 {
			rate := float64(m.UnderflowCount) / float64(totalFrames) * 100
			if rate > profile.MaxUnderflowRatePct {
				cmp.Deviations = append(cmp.Deviations, Deviation{
					Parameter: "underflow_rate_pct",
					Current:   fmt.Sprintf("%.1f%%", rate),
					Expected:  fmt.Sprintf("<=%.1f%%", profile.MaxUnderflowRatePct),
					Severity:  SeverityWarning,
					ConfigKey: "streaming.jitter_buffer_ms",
				})
			}
		}
	}

	// VAD aggressiveness set point.
	if profile.VADAggressiveness != nil && m.VADSettings != nil {
		if m.VADSettings.WebRTCAggressiveness != *profile.VADAggressiveness {
			cmp.Deviations = append(cmp.Deviations, Deviation{
				Parameter: "webrtc_aggressiveness",
				Current:   fmt.Sprintf("%d", m.VADSettings.WebRTCAggressiveness),
				Expected:  fmt.Sprintf("%d", *profile.VADAggressiveness),
				Severity:  SeverityWarning,
				ConfigKey: "vad.webrtc_aggressiveness",
			})
		}
	}

	// AudioSocket wire format.
	if profile.AudioSocketFormat != "" && m.AudioSocketFormat != "" && m.AudioSocketFormat != profile.AudioSocketFormat {
		cmp.Deviations = append(cmp.Deviations, Deviation{
			Parameter: "audiosocket_format",
			Current:   m.AudioSocketFormat,
			Expected:  profile.AudioSocketFormat,
			Severity:  SeverityCritical,
			ConfigKey: "audiosocket.format",
		})
	}

	// Streaming sample rate.
	if profile.SampleRate > 0 && m.SampleRate > 0 && m.SampleRate != profile.SampleRate {
		cmp.Deviations = append(cmp.Deviations, Deviation{
			Parameter: "sample_rate",
			Current:   fmt.Sprintf("%d Hz", m.SampleRate),
			Expected:  fmt.Sprintf("%d Hz", profile.SampleRate),
			Severity:  SeverityCritical,
			ConfigKey: "streaming.sample_rate",
		})
	}

	return cmp
}

func segmentRatios(m *rca.CallMetrics) []float64 {
	ratios := make([]float64, 0, len(m.ProviderSegments))
	for _, seg := range m.ProviderSegments {
		if seg.Ratio != 0 {
			ratios = append(ratios, seg.Ratio)
		}
	}
	return ratios
}

// FormatForLLM renders the deviation table for the deep-diagnosis prompt.
func (c *Comparison) FormatForLLM() string {
	if c == nil || len(c.Deviations) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("\n=== GOLDEN BASELINE DEVIATIONS (%s) ===\n\n", c.BaselineName))
	for i, d := range c.Deviations {
		out.WriteString(fmt.Sprintf("%d. [%s] %s: current=%s expected=%s", i+1, strings.ToUpper(d.Severity), d.Parameter, d.Current, d.Expected))
		if d.ConfigKey != "" {
			out.WriteString(fmt.Sprintf(" (config: %s)", d.ConfigKey))
		}
		out.WriteString("\n")
	}
	if c.RatioMean != 0 {
		out.WriteString(fmt.Sprintf("\nSegment ratio distribution: mean=%.3f stddev=%.3f\n", c.RatioMean, c.RatioStdDev))
	}
	return out.String()
}
