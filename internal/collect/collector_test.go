package collect

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDiscoverCallsExcludesHelperChannels(t *testing.T) {
	t.Parallel()
	lines := []string{
		`{"call_id": "1756500000.100", "event": "RCA_CALL_START"}`,
		`2026-08-29 [info] Bridge created [bridge] audiosocket_channel_id=1756500000.101`,
		`{"call_id": "1756500000.101", "event": "AudioSocket connected"}`,
		`{"call_id": "1756500001.200", "event": "RCA_CALL_START"}`,
	}
	calls := discoverCalls(lines, zerolog.Nop())
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d: %+v", len(calls), calls)
	}
	// Newest first by channel id epoch.
	if calls[0].ID != "1756500001.200" || calls[1].ID != "1756500000.100" {
		t.Errorf("wrong order or ids: %+v", calls)
	}
	for _, c := range calls {
		if c.ID == "1756500000.101" {
			t.Error("helper channel leaked into call list")
		}
	}
}

func TestDiscoverCallsJSONHelperExclusion(t *testing.T) {
	t.Parallel()
	lines := []string{
		`{"call_id": "1756500000.300", "external_media_id": "1756500000.301"}`,
		`{"call_id": "1756500000.301", "event": "ExternalMedia started"}`,
	}
	calls := discoverCalls(lines, zerolog.Nop())
	if len(calls) != 1 || calls[0].ID != "1756500000.300" {
		t.Fatalf("expected only the caller channel, got %+v", calls)
	}
}

func TestFilterToCallPullsRelatedChannels(t *testing.T) {
	t.Parallel()
	lines := []string{
		`line for 1756500000.100 audiosocket_channel_id=1756500000.101`,
		`line for 1756500000.101 only`,
		`line for some other call 1756500099.500`,
		`another line for 1756500000.100`,
	}
	got := filterToCall(lines, "1756500000.100")
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d: %v", len(got), got)
	}
	// Chronological order is preserved even for helper-channel lines.
	if got[1] != `line for 1756500000.101 only` {
		t.Errorf("helper line out of order: %v", got)
	}
	for _, l := range got {
		if strings.Contains(l, "1756500099.500") {
			t.Errorf("unrelated call leaked in: %q", l)
		}
	}
}

func TestFilterToCallDeduplicates(t *testing.T) {
	t.Parallel()
	lines := []string{
		`repeated line 1756500000.100`,
		`repeated line 1756500000.100`,
	}
	got := filterToCall(lines, "1756500000.100")
	if len(got) != 1 {
		t.Fatalf("expected dedupe to 1 line, got %d", len(got))
	}
}

func TestCallLogsUsesInjectedReader(t *testing.T) {
	t.Parallel()
	c := New("", zerolog.Nop())
	c.readLogs = func() ([]byte, error) {
		return []byte("\x1b[32mcolored line 1756500000.100\x1b[0m\nother call 1756500055.900\n"), nil
	}
	out, err := c.CallLogs("1756500000.100")
	if err != nil {
		t.Fatal(err)
	}
	if out != "colored line 1756500000.100" {
		t.Errorf("unexpected filtered output: %q", out)
	}
	if strings.Contains(out, "\x1b") {
		t.Error("ANSI codes not stripped")
	}
}

func TestRecentCallsLimit(t *testing.T) {
	t.Parallel()
	c := New(DefaultContainer, zerolog.Nop())
	c.readLogs = func() ([]byte, error) {
		var b strings.Builder
		b.WriteString(`{"call_id": "1756500001.1"}` + "\n")
		b.WriteString(`{"call_id": "1756500002.2"}` + "\n")
		b.WriteString(`{"call_id": "1756500003.3"}` + "\n")
		return []byte(b.String()), nil
	}
	calls, err := c.RecentCalls(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(calls) != 2 {
		t.Fatalf("limit not applied: %+v", calls)
	}
	if calls[0].ID != "1756500003.3" {
		t.Errorf("expected newest first, got %+v", calls)
	}
}
