package rca

import (
	"regexp"
	"strings"
)

// ToolCallRecord is one tool invocation made by the agent during the call,
// paired with its execution result when one was logged.
type ToolCallRecord struct {
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
	Message   string `json:"message,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

var (
	toolCallRe = regexp.MustCompile(`(?i)tool call:\s*([a-zA-Z0-9_]+)\((.*)\)`)
	toolExecRe = regexp.MustCompile(`(?i)Tool\s+([a-zA-Z0-9_]+)\s+executed:\s*([a-zA-Z0-9_]+)`)
)

// ExtractToolCalls pairs tool invocations with their results. Matching is by
// function_call_id when present, else FIFO per tool name.
func ExtractToolCalls(logData string) []ToolCallRecord {
	records := make([]ToolCallRecord, 0, 8)
	pendingByID := make(map[string]int)
	pendingByName := make(map[string][]int)

	for _, line := range strings.Split(logData, "\n") {
		_, event, fields, ok := ParseLine(line)
		if !ok {
			continue
		}

		if m := toolCallRe.FindStringSubmatch(event); len(m) > 2 {
			rec := ToolCallRecord{
				Name:      strings.TrimSpace(m[1]),
				Arguments: strings.TrimSpace(m[2]),
			}
			records = append(records, rec)
			idx := len(records) - 1
			if id := strings.TrimSpace(fields["function_call_id"]); id != "" {
				pendingByID[id] = idx
			} else {
				pendingByName[rec.Name] = append(pendingByName[rec.Name], idx)
			}
			continue
		}

		if m := toolExecRe.FindStringSubmatch(event); len(m) > 2 {
			name := strings.TrimSpace(m[1])
			status := strings.TrimSpace(m[2])
			idx := -1
			if id := strings.TrimSpace(fields["function_call_id"]); id != "" {
				if v, ok := pendingByID[id]; ok {
					idx = v
					delete(pendingByID, id)
				}
			}
			if idx == -1 {
				queue := pendingByName[name]
				if len(queue) > 0 {
					idx = queue[0]
					if len(queue) > 1 {
						pendingByName[name] = queue[1:]
					} else {
						delete(pendingByName, name)
					}
				}
			}
			if idx == -1 {
				// Result without a logged invocation; keep it anyway.
				records = append(records, ToolCallRecord{Name: name})
				idx = len(records) - 1
			}
			rec := records[idx]
			rec.Status = status
			if msg := strings.TrimSpace(fields["message"]); msg != "" {
				rec.Message = msg
			}
			records[idx] = rec
		}
	}

	return records
}
