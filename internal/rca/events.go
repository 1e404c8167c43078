package rca

import "strings"

// eventKind is the closed set of metric-bearing events the engine understands.
// Classification is a variant match so adding a new event forces a decision in
// every switch; anything else lands in eventUnknown and goes through the
// fallback text checks.
type eventKind int

const (
	eventUnknown eventKind = iota
	eventProviderSegmentBytes
	eventStreamingTuningSummary
	eventTransportAlignment
	eventVADSettings
	eventSegmentBytesV2
	eventCallHeader
)

// classifyEvent maps an event string to its kind. The ai_engine decorates
// several event names with emoji prefixes in console mode, so matching is by
// substring for those.
func classifyEvent(event string) eventKind {
	event = strings.TrimSpace(event)
	switch {
	case event == "PROVIDER SEGMENT BYTES":
		return eventProviderSegmentBytes
	case strings.Contains(event, "STREAMING TUNING SUMMARY"):
		return eventStreamingTuningSummary
	case event == "Transport alignment summary":
		return eventTransportAlignment
	case strings.Contains(event, "WebRTC VAD settings"):
		return eventVADSettings
	case strings.Contains(event, "Streaming segment bytes summary v2"):
		return eventSegmentBytesV2
	case event == "RCA_CALL_START":
		return eventCallHeader
	default:
		return eventUnknown
	}
}
