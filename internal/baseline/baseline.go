// Package baseline compares extracted call metrics against golden baseline
// profiles: known-good configuration/metric envelopes validated in production
// for each provider family.
package baseline

import (
	_ "embed"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profile is one golden baseline: the metric envelope a healthy call is
// expected to stay inside, plus the config values that produce it.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	RatioMin            float64 `yaml:"ratio_min"`
	RatioMax            float64 `yaml:"ratio_max"`
	MaxDriftPct         float64 `yaml:"max_drift_pct"`
	MaxUnderflowRatePct float64 `yaml:"max_underflow_rate_pct"`

	// Pointer so "no expectation" is distinguishable from "expect 0".
	VADAggressiveness *int `yaml:"vad_aggressiveness,omitempty"`

	AudioSocketFormat string `yaml:"audiosocket_format,omitempty"`
	SampleRate        int    `yaml:"sample_rate,omitempty"`
}

var (
	profilesOnce sync.Once
	profiles     map[string]Profile
)

func loadProfiles() map[string]Profile {
	profilesOnce.Do(func() {
		var doc struct {
			Profiles []Profile `yaml:"profiles"`
		}
		if err := yaml.Unmarshal(profilesYAML, &doc); err != nil {
			// The profile set ships inside the binary; a decode failure is a
			// build defect, not a runtime condition.
			panic("baseline: embedded profiles.yaml is invalid: " + err.Error())
		}
		profiles = make(map[string]Profile, len(doc.Profiles))
		for _, p := range doc.Profiles {
			profiles[p.Name] = p
		}
	})
	return profiles
}

// Lookup returns the named profile, if it exists.
func Lookup(name string) (Profile, bool) {
	p, ok := loadProfiles()[name]
	return p, ok
}

// Names returns the known profile names.
func Names() []string {
	m := loadProfiles()
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	return out
}

// Detect picks the baseline profile for a call from provider markers in its
// log text. There is always an answer; generic streaming performance is the
// fallback envelope.
func Detect(logData string) string {
	lower := strings.ToLower(logData)

	if strings.Contains(lower, "openai") && strings.Contains(lower, "realtime") {
		return "openai_realtime"
	}
	if strings.Contains(lower, "deepgram") {
		return "deepgram_standard"
	}
	return "streaming_performance"
}
