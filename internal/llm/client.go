// Package llm runs the optional deep-diagnosis step against a hosted model.
// It is strictly best-effort: every failure path returns an error the caller
// logs and moves past, never one that fails the analysis run.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/voicediag/callscope/internal/rca"
	"github.com/voicediag/callscope/internal/report"
)

// Diagnosis is the model's root-cause write-up.
type Diagnosis struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Analysis string `json:"analysis"`
}

// Client calls one of the supported hosted-model APIs.
type Client struct {
	provider string
	apiKey   string
	model    string

	httpClient *http.Client

	// Endpoint overrides for tests.
	openAIURL    string
	anthropicURL string
}

// NewFromEnv builds a client from CALLSCOPE_LLM_PROVIDER or, absent that,
// whichever API key is set.
func NewFromEnv() (*Client, error) {
	provider := os.Getenv("CALLSCOPE_LLM_PROVIDER")
	if provider == "" {
		if os.Getenv("OPENAI_API_KEY") != "" {
			provider = "openai"
		} else if os.Getenv("ANTHROPIC_API_KEY") != "" {
			provider = "anthropic"
		} else {
			return nil, fmt.Errorf("no LLM provider configured")
		}
	}

	var apiKey, model string
	switch provider {
	case "openai":
		apiKey = os.Getenv("OPENAI_API_KEY")
		model = "gpt-4o-mini"
	case "anthropic":
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		model = "claude-3-haiku-20240307"
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key found for provider: %s", provider)
	}

	return &Client{
		provider:     provider,
		apiKey:       apiKey,
		model:        model,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		openAIURL:    "https://api.openai.com/v1/chat/completions",
		anthropicURL: "https://api.anthropic.com/v1/messages",
	}, nil
}

// Diagnose asks the model for a root-cause analysis of the reported call.
func (c *Client) Diagnose(ctx context.Context, rep *report.Report, logData string) (*Diagnosis, error) {
	prompt := buildPrompt(rep, logData)

	var response string
	var err error
	switch c.provider {
	case "openai":
		response, err = c.callOpenAI(ctx, prompt)
	case "anthropic":
		response, err = c.callAnthropic(ctx, prompt)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", c.provider)
	}
	if err != nil {
		return nil, err
	}

	return &Diagnosis{Provider: c.provider, Model: c.model, Analysis: response}, nil
}

func buildPrompt(rep *report.Report, logData string) string {
	var prompt strings.Builder

	prompt.WriteString("You are an expert in diagnosing Asterisk AI voice agent issues. ")
	prompt.WriteString("Analyze the following call logs and provide a concise diagnosis.\n")
	prompt.WriteString("Be evidence-driven: if the call looks healthy, do NOT invent problems or propose config changes.\n\n")

	prompt.WriteString("Call ID: " + rep.CallID + "\n\n")

	if h := rep.Header; h != nil {
		prompt.WriteString("Call Header (log-derived):\n")
		if h.CallerNumber != "" {
			fmt.Fprintf(&prompt, "- Caller: %s\n", h.CallerNumber)
		}
		if h.CalledNumber != "" {
			fmt.Fprintf(&prompt, "- Called: %s\n", h.CalledNumber)
		}
		if h.ProviderName != "" {
			fmt.Fprintf(&prompt, "- Provider: %s\n", h.ProviderName)
		}
		if h.AudioTransport != "" {
			fmt.Fprintf(&prompt, "- Transport: %s\n", h.AudioTransport)
		}
		if h.TransportProfileEncoding != "" || h.TransportProfileSampleRate > 0 {
			fmt.Fprintf(&prompt, "- TransportProfile: %s@%d\n", h.TransportProfileEncoding, h.TransportProfileSampleRate)
		}
		if h.StreamingSampleRate > 0 || h.StreamingJitterBufferMs > 0 {
			fmt.Fprintf(&prompt, "- Streaming: sample_rate=%d jitter_buffer_ms=%d\n", h.StreamingSampleRate, h.StreamingJitterBufferMs)
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("Pipeline Status:\n")
	transport := strings.ToLower(strings.TrimSpace(rep.Pipeline.AudioTransport))
	if transport != "" {
		fmt.Fprintf(&prompt, "- Transport: %s\n", rep.Pipeline.AudioTransport)
	}
	switch transport {
	case "externalmedia":
		fmt.Fprintf(&prompt, "- AudioSocket detected: %v (NOT APPLICABLE in ExternalMedia mode)\n", rep.Pipeline.HasAudioSocket)
		fmt.Fprintf(&prompt, "- ExternalMedia detected: %v\n", rep.Pipeline.HasExternalMedia)
	case "audiosocket":
		fmt.Fprintf(&prompt, "- AudioSocket detected: %v\n", rep.Pipeline.HasAudioSocket)
		fmt.Fprintf(&prompt, "- ExternalMedia detected: %v (NOT APPLICABLE in AudioSocket mode)\n", rep.Pipeline.HasExternalMedia)
	default:
		fmt.Fprintf(&prompt, "- AudioSocket detected: %v\n", rep.Pipeline.HasAudioSocket)
		fmt.Fprintf(&prompt, "- ExternalMedia detected: %v\n", rep.Pipeline.HasExternalMedia)
	}
	fmt.Fprintf(&prompt, "- Transcription: %v\n", rep.Pipeline.HasTranscription)
	fmt.Fprintf(&prompt, "- Playback: %v\n\n", rep.Pipeline.HasPlayback)

	writeLines(&prompt, "Errors found", rep.ErrorCount, rep.Errors)
	writeLines(&prompt, "Warnings found", rep.WarningCount, rep.Warnings)

	if m := rep.Metrics; m != nil && rca.HasEvidence(m) {
		prompt.WriteString("Extracted Metrics:\n")
		if m.ProviderBytesTotal > 0 {
			ratio := float64(m.EnqueuedBytesTotal) / float64(m.ProviderBytesTotal)
			fmt.Fprintf(&prompt, "- Provider bytes: %d, enqueued: %d (ratio %.3f, worst segment %.3f)\n",
				m.ProviderBytesTotal, m.EnqueuedBytesTotal, ratio, m.WorstEnqueuedRatio)
		}
		fmt.Fprintf(&prompt, "- Worst drift: %.1f%%\n", m.WorstDriftPct)
		fmt.Fprintf(&prompt, "- Underflows: %d\n", m.UnderflowCount)
		fmt.Fprintf(&prompt, "- Gate closures: %d (flutter: %v)\n", m.GateClosures, m.GateFlutterDetected)
		if m.VADSettings != nil {
			fmt.Fprintf(&prompt, "- VAD: enhanced=%v webrtc_aggressiveness=%d\n",
				m.VADSettings.EnhancedEnabled, m.VADSettings.WebRTCAggressiveness)
		}
		prompt.WriteString("\n")
	}

	if b := rep.Baseline; b != nil {
		prompt.WriteString(b.FormatForLLM())
		prompt.WriteString("IMPORTANT: Use the exact configuration values from the golden baseline deviations above.\n")
		prompt.WriteString("These are VALIDATED production values that are known to work.\n\n")
	}

	if m := rep.Metrics; m != nil && m.FormatAlignment != nil && len(m.FormatAlignment.Issues) > 0 {
		prompt.WriteString("Format Alignment Issues:\n")
		for _, issue := range m.FormatAlignment.Issues {
			fmt.Fprintf(&prompt, "- %s\n", issue)
		}
		prompt.WriteString("CRITICAL: Format mismatches cause garbled audio, distortion, or complete audio failure.\n")
		switch transport {
		case "audiosocket":
			prompt.WriteString("Golden baseline: audiosocket.format=slin, provider transcodes as needed.\n\n")
		case "externalmedia":
			prompt.WriteString("Golden baseline: external_media.codec matches RTP wire codec (typically ulaw@8k); provider transcodes/resamples as needed.\n\n")
		default:
			prompt.WriteString("Golden baseline depends on transport (audiosocket vs externalmedia); validate transport/profile alignment first.\n\n")
		}
	}

	if m := rep.Metrics; m != nil && rca.HasEvidence(m) && math.Abs(m.WorstDriftPct) > rca.DriftCriticalPct && m.UnderflowCount == 0 {
		prompt.WriteString("DRIFT GUIDANCE:\n")
		prompt.WriteString("- Drift above 10% with zero underflows usually means a sample-rate mismatch or resampling bug, not jitter buffer tuning.\n")
		prompt.WriteString("- Do NOT suggest changing jitter_buffer_ms/min_start_ms/low_watermark_ms without underflow evidence.\n\n")
	}

	prompt.WriteString("Sample Log Lines:\n")
	lines := strings.Split(logData, "\n")
	shown := 0
	for _, line := range lines {
		if shown >= 10 {
			break
		}
		if line == "" {
			continue
		}
		prompt.WriteString(truncate(line, 200) + "\n")
		shown++
	}
	prompt.WriteString("\n")

	prompt.WriteString("Please provide:\n")
	prompt.WriteString("1. Root Cause: based on baseline deviations and alignment issues, citing current vs expected values\n")
	prompt.WriteString("   - Greeting segments show high drift and pause underflows; that is NORMAL, not an issue\n")
	prompt.WriteString("   - If all metrics are good (ratio ~1.0, drift <10%, no underflows), state that the call is healthy\n")
	prompt.WriteString("2. Confidence: High/Medium/Low\n")
	prompt.WriteString("3. Quick Fix: exact config changes in config/ai-agent.yaml (or 'N/A'), naming section and parameter\n")
	prompt.WriteString("4. Prevention\n")
	prompt.WriteString("\nCOMMON FALSE POSITIVES TO IGNORE:\n")
	prompt.WriteString("- 'DeepgramProviderConfig has no field target_encoding' is a benign validation warning; do NOT suggest adding target_encoding to Deepgram config\n")
	prompt.WriteString("\nKeep your response concise and actionable (under 400 words).")

	return prompt.String()
}

func writeLines(prompt *strings.Builder, label string, count int, lines []string) {
	if count == 0 {
		return
	}
	fmt.Fprintf(prompt, "%s: %d\n", label, count)
	shown := len(lines)
	if shown > 5 {
		shown = 5
	}
	for i := 0; i < shown; i++ {
		fmt.Fprintf(prompt, "- %s\n", truncate(lines[i], 200))
	}
	prompt.WriteString("\n")
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) callOpenAI(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  800,
		"temperature": 0.3,
	}

	raw, err := c.post(ctx, c.openAIURL, body, map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI request failed: %w", err)
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return result.Choices[0].Message.Content, nil
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *Client) callAnthropic(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": 800,
	}

	raw, err := c.post(ctx, c.anthropicURL, body, map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic request failed: %w", err)
	}

	var result messagesResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 || result.Content[0].Text == "" {
		return "", fmt.Errorf("no content in response")
	}
	return result.Content[0].Text, nil
}

func (c *Client) post(ctx context.Context, url string, body interface{}, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
