package baseline

import (
	"math"
	"strings"
	"testing"

	"github.com/voicediag/callscope/internal/rca"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	if got := Detect("connected to OpenAI Realtime session"); got != "openai_realtime" {
		t.Fatalf("got %q", got)
	}
	if got := Detect("Deepgram websocket opened"); got != "deepgram_standard" {
		t.Fatalf("got %q", got)
	}
	if got := Detect("🎛️ STREAMING TUNING SUMMARY drift_pct=1.0"); got != "streaming_performance" {
		t.Fatalf("got %q", got)
	}
}

func TestCompareCleanCall(t *testing.T) {
	t.Parallel()

	m := &rca.CallMetrics{
		ProviderSegments: []rca.ProviderSegment{
			{ProviderBytes: 16000, EnqueuedBytes: 16000, Ratio: 1.0},
			{ProviderBytes: 16000, EnqueuedBytes: 15980, Ratio: 0.999},
		},
		ProviderBytesTotal: 32000,
		EnqueuedBytesTotal: 31980,
		WorstEnqueuedRatio: 0.999,
		AudioSocketFormat:  "slin",
		SampleRate:         8000,
		VADSettings:        &rca.VADSettings{WebRTCAggressiveness: 1},
	}

	c := Compare(m, "openai_realtime")
	if c == nil {
		t.Fatalf("expected comparison")
	}
	if len(c.Deviations) != 0 {
		t.Fatalf("deviations=%v", c.Deviations)
	}
	if math.Abs(c.RatioMean-0.9995) > 1e-9 {
		t.Fatalf("ratio mean=%v", c.RatioMean)
	}
	if c.RatioStdDev == 0 {
		t.Fatalf("two distinct ratios should have nonzero spread")
	}
}

func TestCompareDeviations(t *testing.T) {
	t.Parallel()

	m := &rca.CallMetrics{
		ProviderSegments: []rca.ProviderSegment{
			{ProviderBytes: 16000, EnqueuedBytes: 12000, Ratio: 0.75},
		},
		ProviderBytesTotal: 16000,
		EnqueuedBytesTotal: 12000,
		WorstEnqueuedRatio: 0.75,
		WorstDriftPct:      -14.0,
		AudioSocketFormat:  "ulaw",
		SampleRate:         16000,
		VADSettings:        &rca.VADSettings{WebRTCAggressiveness: 0},
	}

	c := Compare(m, "openai_realtime")
	if c == nil {
		t.Fatalf("expected comparison")
	}

	want := map[string]bool{
		"provider_bytes_ratio":  false,
		"drift_pct":             false,
		"webrtc_aggressiveness": false,
		"audiosocket_format":    false,
		"sample_rate":           false,
	}
	for _, d := range c.Deviations {
		if _, ok := want[d.Parameter]; ok {
			want[d.Parameter] = true
		}
	}
	for param, seen := range want {
		if !seen {
			t.Fatalf("missing deviation %q in %v", param, c.Deviations)
		}
	}

	text := c.FormatForLLM()
	if !strings.Contains(text, "openai_realtime") || !strings.Contains(text, "webrtc_aggressiveness") {
		t.Fatalf("prompt rendering incomplete:\n%s", text)
	}
	if !strings.Contains(text, "vad.webrtc_aggressiveness") {
		t.Fatalf("config key hint missing:\n%s", text)
	}
}

func TestCompareUnknownBaseline(t *testing.T) {
	t.Parallel()

	if c := Compare(&rca.CallMetrics{}, "nonexistent"); c != nil {
		t.Fatalf("unknown baseline must yield nil, got %+v", c)
	}
}

func TestCompareUnderflowRate(t *testing.T) {
	t.Parallel()

	m := &rca.CallMetrics{
		StreamingSummaries: []rca.StreamingSummary{
			{StreamID: "stream-1", BytesSent: 320000},
		},
		UnderflowCount: 30, // 1000 frames -> 3%
	}

	c := Compare(m, "streaming_performance")
	if c == nil || len(c.Deviations) != 1 {
		t.Fatalf("comparison=%+v", c)
	}
	if c.Deviations[0].Parameter != "underflow_rate_pct" || c.Deviations[0].Severity != SeverityWarning {
		t.Fatalf("deviation=%+v", c.Deviations[0])
	}
}
