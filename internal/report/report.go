// Package report renders a completed call analysis as a console report or as
// JSON. Verdict presentation lives here, not in the scorer: folding the raw
// error count into the displayed score is a reporting policy, and the JSON
// output carries the unfolded score alongside it.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/voicediag/callscope/internal/baseline"
	"github.com/voicediag/callscope/internal/rca"
)

var (
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgBlue)
)

// MaxListedLines caps how many raw error/warning lines a report carries.
const MaxListedLines = 20

// Pipeline summarizes which media components were observed in the call.
type Pipeline struct {
	AudioTransport   string `json:"audio_transport,omitempty"`
	HasAudioSocket   bool   `json:"has_audiosocket"`
	HasExternalMedia bool   `json:"has_external_media"`
	HasTranscription bool   `json:"has_transcription"`
	HasPlayback      bool   `json:"has_playback"`
}

// Report is the full analysis of one call, ready to render.
type Report struct {
	CallID     string    `json:"call_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	LineCount  int       `json:"line_count"`

	Header          *rca.CallHeader           `json:"call_header,omitempty"`
	ProviderRuntime *rca.ProviderRuntimeAudio `json:"provider_runtime,omitempty"`
	Pipeline        Pipeline                  `json:"pipeline"`

	ErrorCount   int      `json:"error_count"`
	WarningCount int      `json:"warning_count"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`

	ToolCalls []rca.ToolCallRecord `json:"tool_calls,omitempty"`

	Metrics  *rca.CallMetrics     `json:"metrics,omitempty"`
	Baseline *baseline.Comparison `json:"baseline_comparison,omitempty"`

	QualityScore float64  `json:"quality_score"`
	Issues       []string `json:"issues,omitempty"`

	DeepDiagnosisRan bool   `json:"deep_diagnosis_ran"`
	Diagnosis        string `json:"diagnosis,omitempty"`
}

// CapLines trims the stored error/warning lists to MaxListedLines while the
// counts keep the true totals.
func (r *Report) CapLines() {
	if len(r.Errors) > MaxListedLines {
		r.Errors = r.Errors[:MaxListedLines]
	}
	if len(r.Warnings) > MaxListedLines {
		r.Warnings = r.Warnings[:MaxListedLines]
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// DisplayScore folds hard errors into the score for verdict purposes: a call
// with errors never reads better than FAIR, however clean the audio metrics.
func (r *Report) DisplayScore() float64 {
	score := r.QualityScore
	if r.ErrorCount > 0 {
		if score > 70 {
			score = 70
		}
		score -= 20.0
		if score < 0 {
			score = 0
		}
	}
	return score
}

func separator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════")
}

// WriteText renders the multi-section console report.
func (r *Report) WriteText(w io.Writer) {
	separator(w)
	fmt.Fprintf(w, "📞 CALL ANALYSIS: %s\n", r.CallID)
	separator(w)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Log lines analyzed: %d\n", r.LineCount)
	fmt.Fprintln(w)

	r.writeHeader(w)
	r.writePipeline(w)
	r.writeErrors(w)
	r.writeToolCalls(w)
	r.writeMetrics(w)
	r.writeBaseline(w)
	r.writeQuality(w)

	if r.Diagnosis != "" {
		separator(w)
		fmt.Fprintln(w, "🧠 DEEP DIAGNOSIS")
		separator(w)
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimSpace(r.Diagnosis))
		fmt.Fprintln(w)
	}
}

func (r *Report) writeHeader(w io.Writer) {
	h := r.Header
	if h == nil {
		return
	}
	infoColor.Fprintln(w, "Call Configuration:")
	if h.ProviderName != "" {
		fmt.Fprintf(w, "  Provider: %s\n", h.ProviderName)
	}
	if h.PipelineName != "" {
		fmt.Fprintf(w, "  Pipeline: %s\n", h.PipelineName)
	}
	if h.AudioTransport != "" {
		fmt.Fprintf(w, "  Transport: %s\n", h.AudioTransport)
	}
	if h.TransportProfileEncoding != "" {
		fmt.Fprintf(w, "  Transport profile: %s @ %d Hz\n", h.TransportProfileEncoding, h.TransportProfileSampleRate)
	}
	if h.AudioSocketFormat != "" {
		fmt.Fprintf(w, "  AudioSocket format: %s\n", h.AudioSocketFormat)
	}
	if h.StreamingSampleRate > 0 {
		fmt.Fprintf(w, "  Streaming sample rate: %d Hz\n", h.StreamingSampleRate)
	}
	if h.StreamingJitterBufferMs > 0 {
		fmt.Fprintf(w, "  Jitter buffer: %d ms\n", h.StreamingJitterBufferMs)
	}
	if h.VADEnhancedEnabled || h.VADWebRTCAggressiveness > 0 {
		fmt.Fprintf(w, "  VAD: aggressiveness %d\n", h.VADWebRTCAggressiveness)
	}
	if r.ProviderRuntime != nil {
		pr := r.ProviderRuntime
		fmt.Fprintf(w, "  Provider runtime output rate: %d Hz", pr.UsedOutputSampleRateHz)
		if pr.ProviderReportedOutputSampleRateHz > 0 && pr.ConfiguredOutputSampleRateHz > 0 &&
			pr.ProviderReportedOutputSampleRateHz != pr.ConfiguredOutputSampleRateHz {
			warningColor.Fprintf(w, " (provider reports %d Hz, configured %d Hz)",
				pr.ProviderReportedOutputSampleRateHz, pr.ConfiguredOutputSampleRateHz)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func (r *Report) writePipeline(w io.Writer) {
	p := r.Pipeline
	infoColor.Fprintln(w, "Pipeline Status:")

	if p.HasAudioSocket {
		successColor.Fprintln(w, "  ✅ AudioSocket: Detected")
	} else if p.AudioTransport == "audiosocket" {
		errorColor.Fprintln(w, "  ❌ AudioSocket: Not detected")
	} else {
		infoColor.Fprintln(w, "  ℹ️  AudioSocket: Not used")
	}

	if p.HasExternalMedia {
		successColor.Fprintln(w, "  ✅ ExternalMedia: Detected")
	} else if p.AudioTransport == "externalmedia" {
		errorColor.Fprintln(w, "  ❌ ExternalMedia: Not detected")
	} else {
		infoColor.Fprintln(w, "  ℹ️  ExternalMedia: Not used")
	}

	if p.HasTranscription {
		successColor.Fprintln(w, "  ✅ Transcription: Active")
	} else {
		warningColor.Fprintln(w, "  ⚠️  Transcription: Not detected")
	}

	if p.HasPlayback {
		successColor.Fprintln(w, "  ✅ Playback: Active")
	} else {
		warningColor.Fprintln(w, "  ⚠️  Playback: Not detected")
	}
	fmt.Fprintln(w)
}

func (r *Report) writeErrors(w io.Writer) {
	if r.ErrorCount > 0 {
		errorColor.Fprintf(w, "Errors (%d):\n", r.ErrorCount)
		shown := len(r.Errors)
		if shown > 5 {
			shown = 5
		}
		for i := 0; i < shown; i++ {
			fmt.Fprintf(w, "  %d. %s\n", i+1, truncate(r.Errors[i], 100))
		}
		if r.ErrorCount > shown {
			fmt.Fprintf(w, "  ... and %d more\n", r.ErrorCount-shown)
		}
		fmt.Fprintln(w)
	}

	if r.WarningCount > 0 {
		warningColor.Fprintf(w, "Warnings (%d):\n", r.WarningCount)
		shown := len(r.Warnings)
		if shown > 3 {
			shown = 3
		}
		for i := 0; i < shown; i++ {
			fmt.Fprintf(w, "  %d. %s\n", i+1, truncate(r.Warnings[i], 100))
		}
		if r.WarningCount > shown {
			fmt.Fprintf(w, "  ... and %d more\n", r.WarningCount-shown)
		}
		fmt.Fprintln(w)
	}
}

func (r *Report) writeToolCalls(w io.Writer) {
	if len(r.ToolCalls) == 0 {
		return
	}
	infoColor.Fprintf(w, "Tool Calls (%d):\n", len(r.ToolCalls))
	shown := len(r.ToolCalls)
	if shown > 5 {
		shown = 5
	}
	for i := 0; i < shown; i++ {
		tc := r.ToolCalls[i]
		line := fmt.Sprintf("  %d. %s", i+1, tc.Name)
		if tc.Status != "" {
			line += fmt.Sprintf(" → %s", tc.Status)
		}
		if tc.Arguments != "" {
			line += fmt.Sprintf(" args=%s", truncate(tc.Arguments, 80))
		}
		fmt.Fprintln(w, line)
	}
	if len(r.ToolCalls) > shown {
		fmt.Fprintf(w, "  ... and %d more\n", len(r.ToolCalls)-shown)
	}
	fmt.Fprintln(w)
}

func (r *Report) writeMetrics(w io.Writer) {
	m := r.Metrics
	if m == nil || !rca.HasEvidence(m) {
		return
	}

	separator(w)
	fmt.Fprintln(w, "📈 STREAMING METRICS")
	separator(w)
	fmt.Fprintln(w)

	if len(m.ProviderSegments) > 0 {
		successColor.Fprintln(w, "Provider Bytes Tracking:")
		fmt.Fprintf(w, "  Segments: %d\n", len(m.ProviderSegments))
		fmt.Fprintf(w, "  Total provider bytes: %s\n", formatBytes(m.ProviderBytesTotal))
		fmt.Fprintf(w, "  Total enqueued bytes: %s\n", formatBytes(m.EnqueuedBytesTotal))

		if m.ProviderBytesTotal > 0 {
			ratio := float64(m.EnqueuedBytesTotal) / float64(m.ProviderBytesTotal)
			switch {
			case ratio >= 0.99 && ratio <= 1.01:
				successColor.Fprintf(w, "  Ratio: %.3f ✅ PERFECT\n", ratio)
			case ratio >= rca.RatioLowerBound && ratio <= rca.RatioUpperBound:
				warningColor.Fprintf(w, "  Ratio: %.3f ⚠️  ACCEPTABLE\n", ratio)
			default:
				errorColor.Fprintf(w, "  Ratio: %.3f ❌ CRITICAL (should be 1.0)\n", ratio)
			}
		}
		fmt.Fprintln(w)
	}

	if len(m.StreamingSummaries) > 0 || m.WorstDriftPct != 0 {
		infoColor.Fprintln(w, "Pacing:")
		drift := math.Abs(m.WorstDriftPct)
		switch {
		case drift < 5.0:
			successColor.Fprintf(w, "  Drift: %.1f%% ✅ EXCELLENT\n", m.WorstDriftPct)
		case drift <= rca.DriftCriticalPct:
			warningColor.Fprintf(w, "  Drift: %.1f%% ⚠️  ACCEPTABLE\n", m.WorstDriftPct)
		default:
			errorColor.Fprintf(w, "  Drift: %.1f%% ❌ CRITICAL (should be <10%%)\n", m.WorstDriftPct)
		}
		fmt.Fprintln(w)
	}

	infoColor.Fprintln(w, "Buffer Health:")
	totalFrames := 0
	for _, s := range m.StreamingSummaries {
		totalFrames += s.BytesSent / rca.BytesPerFrame
	}
	if m.UnderflowCount == 0 {
		successColor.Fprintln(w, "  Underflows: 0 ✅")
	} else if totalFrames > 0 {
		rate := float64(m.UnderflowCount) / float64(totalFrames) * 100
		if rate >= rca.UnderflowSignificantRatePct {
			errorColor.Fprintf(w, "  Underflows: %d (%.1f%% of %d frames) ❌\n", m.UnderflowCount, rate, totalFrames)
		} else {
			warningColor.Fprintf(w, "  Underflows: %d (%.1f%% of %d frames) ⚠️\n", m.UnderflowCount, rate, totalFrames)
		}
	} else {
		warningColor.Fprintf(w, "  Underflows: %d ⚠️\n", m.UnderflowCount)
	}
	if m.GateClosures > 0 {
		fmt.Fprintf(w, "  Gate closures: %d\n", m.GateClosures)
		if m.GateFlutterDetected {
			errorColor.Fprintf(w, "  ❌ CRITICAL: Gate flutter detected (>%d closures)\n", rca.GateFlutterThreshold)
		}
	}
	fmt.Fprintln(w)

	if m.VADSettings != nil {
		infoColor.Fprintln(w, "VAD Settings:")
		fmt.Fprintf(w, "  Enhanced VAD: %t\n", m.VADSettings.EnhancedEnabled)
		if m.VADSettings.WebRTCAggressiveness == 0 {
			warningColor.Fprintln(w, "  Aggressiveness: 0 ⚠️  (too sensitive, background noise may trigger)")
		} else {
			fmt.Fprintf(w, "  Aggressiveness: %d\n", m.VADSettings.WebRTCAggressiveness)
		}
		fmt.Fprintln(w)
	}

	if m.FormatAlignment != nil && len(m.FormatAlignment.Issues) > 0 {
		errorColor.Fprintf(w, "Format Alignment Issues (%d):\n", len(m.FormatAlignment.Issues))
		for _, issue := range m.FormatAlignment.Issues {
			fmt.Fprintf(w, "  • %s\n", issue)
		}
		fmt.Fprintln(w)
	}
}

func (r *Report) writeBaseline(w io.Writer) {
	b := r.Baseline
	if b == nil {
		return
	}
	separator(w)
	fmt.Fprintf(w, "📊 BASELINE COMPARISON: %s\n", b.BaselineName)
	separator(w)
	fmt.Fprintln(w)
	if len(b.Deviations) == 0 {
		successColor.Fprintln(w, "  ✅ All parameters within baseline envelope")
	} else {
		for _, d := range b.Deviations {
			if d.Severity == baseline.SeverityCritical {
				errorColor.Fprintf(w, "  ❌ %s: %s (expected %s)\n", d.Parameter, d.Current, d.Expected)
			} else {
				warningColor.Fprintf(w, "  ⚠️  %s: %s (expected %s)\n", d.Parameter, d.Current, d.Expected)
			}
			if d.ConfigKey != "" {
				fmt.Fprintf(w, "     config: %s\n", d.ConfigKey)
			}
		}
	}
	fmt.Fprintln(w)
}

func (r *Report) writeQuality(w io.Writer) {
	separator(w)
	fmt.Fprintln(w, "🎯 OVERALL CALL QUALITY")
	separator(w)
	fmt.Fprintln(w)

	if r.Metrics == nil || !rca.HasEvidence(r.Metrics) {
		warningColor.Fprintln(w, "Verdict: ⚠️  INSUFFICIENT DATA - No streaming metrics extracted from logs")
		fmt.Fprintln(w, "Quality Score: N/A")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Notes:")
		fmt.Fprintln(w, "  • This usually means the engine is logging at console/info level without metric events,")
		fmt.Fprintln(w, "    or the collected logs do not include the streaming/provider markers for this call.")
		fmt.Fprintln(w, "  • Enable debug logs, place a test call, and re-run the analysis.")
		fmt.Fprintln(w)
		return
	}

	score := r.DisplayScore()
	issues := r.Issues
	if r.ErrorCount > 0 {
		issues = append(issues[:len(issues):len(issues)],
			fmt.Sprintf("Errors in logs (%d) - call stability issue", r.ErrorCount))
	}

	switch {
	case score >= 90:
		successColor.Fprintln(w, "Verdict: ✅ EXCELLENT - No significant issues detected")
	case score >= 70:
		warningColor.Fprintln(w, "Verdict: ⚠️  FAIR - Minor issues detected")
	case score >= 50:
		warningColor.Fprintln(w, "Verdict: ⚠️  POOR - Multiple issues affecting quality")
	default:
		errorColor.Fprintln(w, "Verdict: ❌ CRITICAL - Severe issues detected")
	}

	fmt.Fprintf(w, "Quality Score: %.0f/100\n", score)

	if len(issues) > 0 {
		fmt.Fprintln(w, "\nIssues Detected:")
		for _, issue := range issues {
			fmt.Fprintf(w, "  • %s\n", issue)
		}
	} else {
		fmt.Fprintln(w, "\n✅ All metrics within acceptable thresholds")
	}
	fmt.Fprintln(w)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func formatBytes(b int) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := unit, 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
