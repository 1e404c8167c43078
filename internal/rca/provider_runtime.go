package rca

import "strings"

// ProviderRuntimeAudio captures provider-reported/used audio rates discovered
// from logs. This complements the call header, which is a configured snapshot.
type ProviderRuntimeAudio struct {
	ProviderName string `json:"provider_name,omitempty"`

	ConfiguredOutputSampleRateHz       int `json:"configured_output_sample_rate_hz,omitempty"`
	ProviderReportedOutputSampleRateHz int `json:"provider_reported_output_sample_rate_hz,omitempty"`
	UsedOutputSampleRateHz             int `json:"used_output_sample_rate_hz,omitempty"`
}

// ExtractProviderRuntime returns the first runtime audio-rate report found in
// the log text, or nil when the provider never reported one.
func ExtractProviderRuntime(logData string) *ProviderRuntimeAudio {
	for _, line := range strings.Split(logData, "\n") {
		_, _, fields, ok := ParseLine(line)
		if !ok || len(fields) == 0 {
			continue
		}

		used := atoiSafe(fields["used_output_sample_rate_hz"])
		if used <= 0 {
			continue
		}

		return &ProviderRuntimeAudio{
			ProviderName:                       strings.TrimSpace(fields["provider"]),
			ConfiguredOutputSampleRateHz:       atoiSafe(fields["configured_output_sample_rate_hz"]),
			ProviderReportedOutputSampleRateHz: atoiSafe(fields["provider_reported_output_sample_rate_hz"]),
			UsedOutputSampleRateHz:             used,
		}
	}
	return nil
}
