// Package collect gathers ai_engine log text for one call. The analysis core
// never fetches anything itself; this package is the collaborator that hands
// it an in-memory, call-filtered log string.
package collect

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultContainer is the ai_engine container whose logs carry call events.
const DefaultContainer = "ai_engine"

// Call is one caller channel discovered in the logs.
type Call struct {
	ID        string
	Timestamp time.Time
}

// Collector reads docker logs and filters them down to single calls.
type Collector struct {
	Container string
	Since     string

	log zerolog.Logger

	// Overridable for tests; production runs docker logs.
	readLogs func() ([]byte, error)
}

// New builds a collector for the given container. The collection window comes
// from CALLSCOPE_LOG_SINCE, defaulting to 72h: post-call analysis often runs
// well after the call under investigation.
func New(container string, logger zerolog.Logger) *Collector {
	if container == "" {
		container = DefaultContainer
	}
	since := os.Getenv("CALLSCOPE_LOG_SINCE")
	if since == "" {
		since = "72h"
	}
	c := &Collector{
		Container: container,
		Since:     since,
		log:       logger,
	}
	c.readLogs = func() ([]byte, error) {
		cmd := exec.Command("docker", "logs", "--since", c.Since, c.Container)
		return cmd.CombinedOutput()
	}
	return c
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func (c *Collector) lines() ([]string, error) {
	output, err := c.readLogs()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s logs: %w", c.Container, err)
	}
	// Console-format logs carry ANSI color codes; JSON logs do not, so the
	// strip is safe for both.
	clean := ansiRe.ReplaceAllString(string(output), "")
	lines := strings.Split(clean, "\n")
	c.log.Debug().Int("lines", len(lines)).Str("container", c.Container).Msg("read docker logs")
	return lines, nil
}

// RecentCalls lists caller channels seen in the collection window, newest
// first, excluding AudioSocket/ExternalMedia helper channels.
func (c *Collector) RecentCalls(limit int) ([]Call, error) {
	lines, err := c.lines()
	if err != nil {
		return nil, err
	}
	calls := discoverCalls(lines, c.log)
	if len(calls) > limit {
		calls = calls[:limit]
	}
	return calls, nil
}

// CallLogs returns the log text for one call: every line referencing the
// caller channel id plus lines referencing its helper channels.
func (c *Collector) CallLogs(callID string) (string, error) {
	lines, err := c.lines()
	if err != nil {
		return "", err
	}
	included := filterToCall(lines, callID)
	c.log.Debug().Int("included", len(included)).Str("call_id", callID).Msg("filtered call logs")
	return strings.Join(included, "\n"), nil
}

var (
	audioSocketChanRe   = regexp.MustCompile(`(?i)(?:"audiosocket_channel_id"\s*:\s*"([0-9]+\.[0-9]+)"|audiosocket_channel_id=([0-9]+\.[0-9]+))`)
	externalMediaRe     = regexp.MustCompile(`(?i)(?:"external_media_id"\s*:\s*"([0-9]+\.[0-9]+)"|external_media_id=([0-9]+\.[0-9]+))`)
	pendingExtMediaRe   = regexp.MustCompile(`(?i)(?:"pending_external_media_id"\s*:\s*"([0-9]+\.[0-9]+)"|pending_external_media_id=([0-9]+\.[0-9]+))`)
	callIDPatterns      = []*regexp.Regexp{
		regexp.MustCompile(`"call_id":\s*"([0-9]+\.[0-9]+)"`),
		regexp.MustCompile(`(?:call_id|channel_id)[=:][\s]*"?([0-9]+\.[0-9]+)"?`),
		regexp.MustCompile(`"caller_channel_id":\s*"([0-9]+\.[0-9]+)"`),
		regexp.MustCompile(`caller_channel_id[=:][\s]*"?([0-9]+\.[0-9]+)"?`),
	}
	relatedIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`audiosocket_channel_id=([0-9]+\.[0-9]+)`),
		regexp.MustCompile(`external_media_id=([0-9]+\.[0-9]+)`),
		regexp.MustCompile(`pending_external_media_id=([0-9]+\.[0-9]+)`),
		regexp.MustCompile(`\bchannel_id=([0-9]+\.[0-9]+)`),
		regexp.MustCompile(`\bbridge_id=([0-9a-fA-F-]{36})`),
	}
)

func firstNonEmpty(matches []string, idxs ...int) string {
	for _, i := range idxs {
		if i >= 0 && i < len(matches) && strings.TrimSpace(matches[i]) != "" {
			return strings.TrimSpace(matches[i])
		}
	}
	return ""
}

// discoverCalls finds caller channel ids. Helper channels (AudioSocket,
// ExternalMedia) show up with the same id shape and must be excluded or every
// call would list two or three times.
func discoverCalls(lines []string, log zerolog.Logger) []Call {
	excluded := make(map[string]bool)
	for _, line := range lines {
		if id := firstNonEmpty(audioSocketChanRe.FindStringSubmatch(line), 1, 2); id != "" {
			excluded[id] = true
		}
		if id := firstNonEmpty(externalMediaRe.FindStringSubmatch(line), 1, 2); id != "" {
			excluded[id] = true
		}
		if id := firstNonEmpty(pendingExtMediaRe.FindStringSubmatch(line), 1, 2); id != "" {
			excluded[id] = true
		}
	}

	callMap := make(map[string]Call)
	for _, line := range lines {
		for _, pattern := range callIDPatterns {
			m := pattern.FindStringSubmatch(line)
			if len(m) < 2 {
				continue
			}
			id := m[1]
			if excluded[id] {
				log.Debug().Str("channel_id", id).Msg("skipping helper channel")
				break
			}
			if _, exists := callMap[id]; !exists {
				callMap[id] = Call{ID: id, Timestamp: time.Now()}
				log.Debug().Str("call_id", id).Msg("found call")
			}
			break
		}
	}

	calls := make([]Call, 0, len(callMap))
	for _, call := range callMap {
		calls = append(calls, call)
	}
	// Asterisk channel ids start with an epoch, so descending id order is
	// newest first.
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].ID > calls[j].ID
	})
	return calls
}

// filterToCall keeps lines mentioning the caller id, harvests related helper
// channel ids from them, then adds lines mentioning those. Order is preserved
// and duplicates are dropped.
func filterToCall(lines []string, callID string) []string {
	relatedIDs := make(map[string]bool)
	for _, line := range lines {
		if !strings.Contains(line, callID) {
			continue
		}
		for _, re := range relatedIDPatterns {
			if m := re.FindStringSubmatch(line); len(m) > 1 && m[1] != callID {
				relatedIDs[m[1]] = true
			}
		}
	}

	mentions := func(line string) bool {
		if strings.Contains(line, callID) {
			return true
		}
		for id := range relatedIDs {
			if strings.Contains(line, id) {
				return true
			}
		}
		return false
	}

	included := make([]string, 0, 1024)
	includedSet := make(map[string]bool)
	for _, line := range lines {
		if line == "" || includedSet[line] || !mentions(line) {
			continue
		}
		includedSet[line] = true
		included = append(included, line)
	}
	return included
}
