package rca

import "testing"

func TestExtractCallHeaderFromConsoleLog(t *testing.T) {
	t.Parallel()

	logData := "2026-01-30T12:00:00.000000-07:00 [info     ] RCA_CALL_START [src.engine] call_id=1769799752.1415 caller_number=15555550123 called_number=2765 context_name=demo_google provider_name=google_live audio_transport=externalmedia tp_encoding=ulaw tp_sample_rate=8000 streaming_sample_rate=8000 vad_webrtc_aggressiveness=1 vad_confidence_threshold=0.6 vad_enhanced_enabled=true\n"

	h := ExtractCallHeader(logData)
	if h == nil {
		t.Fatalf("expected header, got nil")
	}
	if h.CallID != "1769799752.1415" {
		t.Fatalf("call_id=%q", h.CallID)
	}
	if h.CallerNumber != "15555550123" {
		t.Fatalf("caller_number=%q", h.CallerNumber)
	}
	if h.CalledNumber != "2765" {
		t.Fatalf("called_number=%q", h.CalledNumber)
	}
	if h.ProviderName != "google_live" {
		t.Fatalf("provider_name=%q", h.ProviderName)
	}
	if h.ContextName != "demo_google" {
		t.Fatalf("context_name=%q", h.ContextName)
	}
	if h.AudioTransport != "externalmedia" {
		t.Fatalf("audio_transport=%q", h.AudioTransport)
	}
	if h.TransportProfileEncoding != "ulaw" || h.TransportProfileSampleRate != 8000 {
		t.Fatalf("transport_profile=%s@%d", h.TransportProfileEncoding, h.TransportProfileSampleRate)
	}
	if h.StreamingSampleRate != 8000 {
		t.Fatalf("streaming_sample_rate=%d", h.StreamingSampleRate)
	}
	if h.VADWebRTCAggressiveness != 1 || h.VADConfidenceThreshold != 0.6 || !h.VADEnhancedEnabled {
		t.Fatalf("vad snapshot wrong: %+v", h)
	}
}

func TestExtractCallHeaderFromJSONLog(t *testing.T) {
	t.Parallel()

	logData := `{"level":"info","event":"RCA_CALL_START","call_id":"1769799752.1415","audio_transport":"audiosocket","audiosocket_format":"slin","audiosocket_port":8090,"provider_input_encoding":"mulaw"}`

	h := ExtractCallHeader(logData)
	if h == nil {
		t.Fatalf("expected header, got nil")
	}
	if h.AudioTransport != "audiosocket" || h.AudioSocketFormat != "slin" {
		t.Fatalf("transport=%q format=%q", h.AudioTransport, h.AudioSocketFormat)
	}
	if h.AudioSocketPort != 8090 {
		t.Fatalf("port=%d", h.AudioSocketPort)
	}
	if h.ProviderInputEncoding != "mulaw" {
		t.Fatalf("provider_input_encoding=%q", h.ProviderInputEncoding)
	}
}

func TestExtractCallHeaderAbsent(t *testing.T) {
	t.Parallel()

	if h := ExtractCallHeader("no header in here\n"); h != nil {
		t.Fatalf("expected nil, got %+v", h)
	}
}
