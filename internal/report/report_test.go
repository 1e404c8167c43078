package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/voicediag/callscope/internal/rca"
)

func init() {
	color.NoColor = true
}

func healthyMetrics() *rca.CallMetrics {
	return &rca.CallMetrics{
		ProviderSegments: []rca.ProviderSegment{
			{ProviderBytes: 16000, EnqueuedBytes: 16000, Ratio: 1.0},
		},
		ProviderBytesTotal: 16000,
		EnqueuedBytesTotal: 16000,
		WorstEnqueuedRatio: 1.0,
		StreamingSummaries: []rca.StreamingSummary{
			{StreamID: "resp-1", BytesSent: 16000, DriftPct: 0.5},
		},
	}
}

func TestDisplayScoreFoldsErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		score      float64
		errorCount int
		want       float64
	}{
		{"clean call untouched", 100, 0, 100},
		{"perfect score capped then penalized", 100, 3, 50},
		{"already below cap", 60, 1, 40},
		{"floor at zero", 10, 2, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := &Report{QualityScore: tc.score, ErrorCount: tc.errorCount}
			if got := r.DisplayScore(); got != tc.want {
				t.Errorf("DisplayScore() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWriteTextVerdicts(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		score   float64
		verdict string
	}{
		{"excellent", 100, "EXCELLENT"},
		{"fair", 75, "FAIR"},
		{"poor", 55, "POOR"},
		{"critical", 20, "CRITICAL"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := &Report{
				CallID:       "1756500000.100",
				Metrics:      healthyMetrics(),
				QualityScore: tc.score,
			}
			var buf bytes.Buffer
			r.WriteText(&buf)
			if !strings.Contains(buf.String(), tc.verdict) {
				t.Errorf("expected verdict %q in output:\n%s", tc.verdict, buf.String())
			}
		})
	}
}

func TestWriteTextInsufficientData(t *testing.T) {
	t.Parallel()
	r := &Report{CallID: "1756500000.100", Metrics: &rca.CallMetrics{WorstEnqueuedRatio: 1.0}}
	var buf bytes.Buffer
	r.WriteText(&buf)
	out := buf.String()
	if !strings.Contains(out, "INSUFFICIENT DATA") {
		t.Errorf("missing insufficient-data verdict:\n%s", out)
	}
	if !strings.Contains(out, "Quality Score: N/A") {
		t.Errorf("score should render as N/A:\n%s", out)
	}
}

func TestWriteTextErrorFoldInVerdict(t *testing.T) {
	t.Parallel()
	r := &Report{
		CallID:       "1756500000.100",
		Metrics:      healthyMetrics(),
		QualityScore: 100,
		ErrorCount:   2,
		Errors:       []string{"provider websocket closed", "ARI request failed"},
	}
	var buf bytes.Buffer
	r.WriteText(&buf)
	out := buf.String()
	if !strings.Contains(out, "Quality Score: 50/100") {
		t.Errorf("expected folded score 50, got:\n%s", out)
	}
	if !strings.Contains(out, "Errors in logs (2)") {
		t.Errorf("expected error issue line:\n%s", out)
	}
	if !strings.Contains(out, "POOR") {
		t.Errorf("expected POOR verdict at 50:\n%s", out)
	}
}

func TestWriteTextListsCapsAndCounts(t *testing.T) {
	t.Parallel()
	r := &Report{CallID: "1756500000.100"}
	for i := 0; i < 30; i++ {
		r.Errors = append(r.Errors, "error line")
		r.Warnings = append(r.Warnings, "warning line")
	}
	r.ErrorCount = 30
	r.WarningCount = 30
	r.CapLines()
	if len(r.Errors) != MaxListedLines || len(r.Warnings) != MaxListedLines {
		t.Fatalf("CapLines did not cap: %d errors, %d warnings", len(r.Errors), len(r.Warnings))
	}

	var buf bytes.Buffer
	r.WriteText(&buf)
	out := buf.String()
	if !strings.Contains(out, "Errors (30):") {
		t.Errorf("error count should show the true total:\n%s", out)
	}
	if !strings.Contains(out, "... and 25 more") {
		t.Errorf("expected overflow note for 30 errors showing 5:\n%s", out)
	}
}

func TestWriteTextBufferAndByteSections(t *testing.T) {
	t.Parallel()
	m := healthyMetrics()
	m.UnderflowCount = 2
	r := &Report{CallID: "1756500000.100", Metrics: m, QualityScore: 95}
	var buf bytes.Buffer
	r.WriteText(&buf)
	out := buf.String()

	if !strings.Contains(out, "Total provider bytes: 15.6 KB") {
		t.Errorf("provider bytes not rendered from metric totals:\n%s", out)
	}
	// 16000 bytes sent = 50 frames; 2 underflows = 4.0% rate.
	if !strings.Contains(out, "Underflows: 2 (4.0% of 50 frames)") {
		t.Errorf("underflow rate not computed from frame count:\n%s", out)
	}
}

func TestWriteJSONCarriesUnfoldedScore(t *testing.T) {
	t.Parallel()
	r := &Report{
		CallID:       "1756500000.100",
		Metrics:      healthyMetrics(),
		QualityScore: 100,
		ErrorCount:   1,
	}
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["quality_score"].(float64) != 100 {
		t.Errorf("JSON should carry the raw score, got %v", decoded["quality_score"])
	}
	if decoded["call_id"] != "1756500000.100" {
		t.Errorf("call_id missing: %v", decoded["call_id"])
	}
}
