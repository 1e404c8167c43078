// Package app orchestrates a single analysis run: collect the call's logs,
// run the extraction core, compare against a baseline, score, and optionally
// hand off to deep diagnosis.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/voicediag/callscope/internal/baseline"
	"github.com/voicediag/callscope/internal/collect"
	"github.com/voicediag/callscope/internal/llm"
	"github.com/voicediag/callscope/internal/rca"
	"github.com/voicediag/callscope/internal/report"
)

// LogSource yields raw log text for calls. Satisfied by collect.Collector.
type LogSource interface {
	CallLogs(callID string) (string, error)
	RecentCalls(limit int) ([]collect.Call, error)
}

// Diagnoser runs the optional deep-diagnosis step. Satisfied by llm.Client.
type Diagnoser interface {
	Diagnose(ctx context.Context, rep *report.Report, logData string) (*llm.Diagnosis, error)
}

// Runner holds the collaborators for one analysis run.
type Runner struct {
	Source    LogSource
	Diagnoser Diagnoser // nil disables deep diagnosis entirely

	// BaselineName forces a baseline profile; empty means auto-detect.
	BaselineName string

	// ForceDiagnosis runs deep diagnosis even when the gate would skip a
	// healthy call.
	ForceDiagnosis bool

	Log zerolog.Logger
}

// Analyze builds the full report for one call. An empty callID or the
// keyword "last" resolves to the most recent call in the collection window.
func (r *Runner) Analyze(ctx context.Context, callID string) (*report.Report, error) {
	if callID == "" || callID == "last" {
		calls, err := r.Source.RecentCalls(1)
		if err != nil {
			return nil, err
		}
		if len(calls) == 0 {
			return nil, fmt.Errorf("no calls found in the collection window")
		}
		callID = calls[0].ID
		r.Log.Info().Str("call_id", callID).Msg("auto-selected most recent call")
	}

	logData, err := r.Source.CallLogs(callID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(logData) == "" {
		return nil, fmt.Errorf("no log lines found for call %s", callID)
	}

	rep := r.buildReport(callID, logData)

	if rep.DeepDiagnosisRan {
		r.runDiagnosis(ctx, rep, logData)
	}

	return rep, nil
}

func (r *Runner) buildReport(callID, logData string) *report.Report {
	lines := strings.Split(logData, "\n")

	rep := &report.Report{
		CallID:     callID,
		AnalyzedAt: time.Now(),
	}

	var errs, warns []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rep.LineCount++
		if rca.IsErrorLine(line) && !rca.IsBenignErrorLine(line) {
			errs = append(errs, line)
		}
		if rca.IsWarningLine(line) {
			warns = append(warns, line)
		}
	}
	rep.ErrorCount = len(errs)
	rep.WarningCount = len(warns)
	rep.Errors = errs
	rep.Warnings = warns
	rep.CapLines()

	rep.Header = rca.ExtractCallHeader(logData)
	rep.ProviderRuntime = rca.ExtractProviderRuntime(logData)
	rep.ToolCalls = rca.ExtractToolCalls(logData)
	rep.Pipeline = detectPipeline(lines, rep.Header)

	metrics := rca.ExtractMetrics(logData)
	metrics.FormatAlignment = rca.AnalyzeFormatAlignment(metrics, rep.Header)
	rep.Metrics = metrics

	name := r.BaselineName
	if name == "" {
		name = baseline.Detect(logData)
	}
	if cmp := baseline.Compare(metrics, name); cmp != nil {
		rep.Baseline = cmp
	} else if r.BaselineName != "" {
		r.Log.Warn().Str("baseline", r.BaselineName).Msg("unknown baseline profile, skipping comparison")
	}

	score, issues := rca.ScoreCallQuality(metrics)
	rep.QualityScore = score
	rep.Issues = issues

	rep.DeepDiagnosisRan = r.Diagnoser != nil &&
		(r.ForceDiagnosis || rca.ShouldRunDeepDiagnosis(metrics, rep.LineCount, rep.ErrorCount, rep.WarningCount))

	r.Log.Debug().
		Int("lines", rep.LineCount).
		Int("errors", rep.ErrorCount).
		Int("warnings", rep.WarningCount).
		Float64("score", score).
		Bool("deep_diagnosis", rep.DeepDiagnosisRan).
		Msg("analysis complete")

	return rep
}

// runDiagnosis is best-effort: a provider failure downgrades the report, it
// never fails the run.
func (r *Runner) runDiagnosis(ctx context.Context, rep *report.Report, logData string) {
	r.Log.Info().Msg("running deep diagnosis")
	d, err := r.Diagnoser.Diagnose(ctx, rep, logData)
	if err != nil {
		r.Log.Warn().Err(err).Msg("deep diagnosis failed")
		rep.DeepDiagnosisRan = false
		return
	}
	rep.Diagnosis = d.Analysis
}

// detectPipeline scans for transport and media-component evidence. The
// configured transport from the call header breaks ties when runtime evidence
// is ambiguous.
func detectPipeline(lines []string, header *rca.CallHeader) report.Pipeline {
	var p report.Pipeline
	for _, line := range lines {
		lower := strings.ToLower(line)

		if strings.Contains(lower, `"audiosocket_channel_id"`) ||
			strings.Contains(lower, "audiosocket channel entered stasis") ||
			(strings.Contains(lower, "audiosocket") && strings.Contains(lower, "channel") && strings.Contains(lower, "stasis")) {
			p.HasAudioSocket = true
		}
		if strings.Contains(lower, "externalmedia channel") ||
			strings.Contains(lower, `"external_media_id"`) ||
			strings.Contains(lower, "external_media_id=") ||
			strings.Contains(lower, `"pending_external_media_id"`) ||
			strings.Contains(lower, "pending_external_media_id=") ||
			strings.Contains(lower, "create_external_media_channel") {
			p.HasExternalMedia = true
		}
		if strings.Contains(lower, "transcription") || strings.Contains(lower, "transcript") {
			p.HasTranscription = true
		}
		if strings.Contains(lower, "playback") || strings.Contains(lower, "playing") {
			p.HasPlayback = true
		}
	}

	switch {
	case p.HasExternalMedia && !p.HasAudioSocket:
		p.AudioTransport = "externalmedia"
	case p.HasAudioSocket && !p.HasExternalMedia:
		p.AudioTransport = "audiosocket"
	}
	if p.AudioTransport == "" && header != nil && header.AudioTransport != "" {
		p.AudioTransport = strings.ToLower(strings.TrimSpace(header.AudioTransport))
	}
	return p
}
