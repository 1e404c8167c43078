package rca

import (
	"strings"
	"testing"
)

func TestAlignmentAudioSocketMismatch(t *testing.T) {
	t.Parallel()

	metrics := &CallMetrics{AudioSocketFormat: "ulaw"}
	header := &CallHeader{
		AudioTransport:    "AudioSocket",
		AudioSocketFormat: "slin",
	}

	a := AnalyzeFormatAlignment(metrics, header)
	if a.ConfigAudioTransport != "audiosocket" {
		t.Fatalf("transport should normalize, got %q", a.ConfigAudioTransport)
	}
	if !a.AudioSocketMismatch {
		t.Fatalf("expected audiosocket mismatch")
	}
	found := false
	for _, issue := range a.Issues {
		if strings.Contains(issue, "config=slin") && strings.Contains(issue, "runtime=ulaw") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no issue names both values: %v", a.Issues)
	}
}

func TestAlignmentGoldenBaselineWithoutHeader(t *testing.T) {
	t.Parallel()

	// No header at all: config-vs-runtime checks are suppressed, but an
	// AudioSocket call must still run slin.
	metrics := &CallMetrics{AudioSocketFormat: "ulaw"}

	a := AnalyzeFormatAlignment(metrics, nil)
	if a.AudioSocketMismatch {
		t.Fatalf("transport unknown, golden check should not fire")
	}

	header := &CallHeader{AudioTransport: "audiosocket"}
	a = AnalyzeFormatAlignment(metrics, header)
	if !a.AudioSocketMismatch {
		t.Fatalf("runtime ulaw on audiosocket should violate the golden baseline")
	}
}

func TestAlignmentEncodingAliases(t *testing.T) {
	t.Parallel()

	metrics := &CallMetrics{ProviderInputFormat: "pcmu"}
	header := &CallHeader{ProviderInputEncoding: "mulaw"}

	a := AnalyzeFormatAlignment(metrics, header)
	if a.ProviderFormatMismatch {
		t.Fatalf("mulaw and pcmu are the same encoding class: %v", a.Issues)
	}

	metrics = &CallMetrics{ProviderInputFormat: "mulaw"}
	header = &CallHeader{ProviderInputEncoding: "pcm16"}

	a = AnalyzeFormatAlignment(metrics, header)
	if !a.ProviderFormatMismatch {
		t.Fatalf("pcm16 vs mulaw must mismatch")
	}
}

func TestAlignmentSampleRateMismatch(t *testing.T) {
	t.Parallel()

	metrics := &CallMetrics{SampleRate: 16000}
	header := &CallHeader{StreamingSampleRate: 8000}

	a := AnalyzeFormatAlignment(metrics, header)
	if !a.SampleRateMismatch {
		t.Fatalf("expected sample-rate mismatch")
	}

	// Either side missing suppresses the check.
	a = AnalyzeFormatAlignment(&CallMetrics{SampleRate: 16000}, nil)
	if a.SampleRateMismatch {
		t.Fatalf("missing config rate must not flag")
	}
}

func TestAlignmentFrameSizes(t *testing.T) {
	t.Parallel()

	metrics := &CallMetrics{
		AudioSocketFormat: "slin",
		ProviderSegments: []ProviderSegment{
			{ProviderBytes: 3200},
		},
	}

	a := AnalyzeFormatAlignment(metrics, nil)
	if a.ExpectedFrameSize != 320 {
		t.Fatalf("expected frame size=%d", a.ExpectedFrameSize)
	}
	if a.ObservedFrameSize != 320 {
		t.Fatalf("observed frame size=%d", a.ObservedFrameSize)
	}
	if a.FrameSizeMismatch {
		t.Fatalf("320 vs 320 should align")
	}

	metrics.ProviderSegments[0].ProviderBytes = 16000
	a = AnalyzeFormatAlignment(metrics, nil)
	if !a.FrameSizeMismatch {
		t.Fatalf("1600 vs 320 should mismatch")
	}
}

func TestAlignmentUnknownFormatLeavesFrameSizeZero(t *testing.T) {
	t.Parallel()

	metrics := &CallMetrics{AudioSocketFormat: "opus"}
	a := AnalyzeFormatAlignment(metrics, nil)
	if a.ExpectedFrameSize != 0 {
		t.Fatalf("unrecognized format should leave expected size 0, got %d", a.ExpectedFrameSize)
	}
	if a.FrameSizeMismatch {
		t.Fatalf("no expectation, no mismatch")
	}
}
