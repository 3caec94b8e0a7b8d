// Package summarizer turns clause-level diffs into a plain-language
// verdict using an OpenAI-compatible chat-completions endpoint, degrading
// to a deterministic local analysis when the model is unavailable.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
	"github.com/Varshith-Kola/PolicyDiff/internal/retry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config controls the chat-completions client. An empty APIKey disables
// remote analysis entirely.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements monitor.Summarizer.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      retry.Policy
	logger     *zap.Logger
}

// New builds a summarizer client.
func New(cfg Config, policy retry.Policy, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      policy,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// analysisPayload is the JSON schema the model is instructed to emit.
type analysisPayload struct {
	Summary        string   `json:"summary"`
	Severity       string   `json:"severity"`
	SeverityScore  float64  `json:"severity_score"`
	KeyChanges     []string `json:"key_changes"`
	Recommendation string   `json:"recommendation"`
}

// Summarize analyzes one diff. Remote failures are retried with backoff;
// exhaustion falls back to the local analysis rather than returning an
// error, so a check never fails because the model is down.
func (c *Client) Summarize(ctx context.Context, req monitor.SummaryRequest) (monitor.Analysis, error) {
	if c.cfg.APIKey == "" {
		c.logger.Warn("no summarizer API key configured, using local analysis",
			zap.String("policy", req.PolicyName))
		metrics.ObserveSummarizerFallback()
		return Fallback(req), nil
	}

	prompt := buildPrompt(req)

	var analysis monitor.Analysis
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		got, attemptErr := c.complete(ctx, prompt)
		if attemptErr != nil {
			return attemptErr
		}
		analysis = got
		return nil
	})
	if err != nil {
		c.logger.Error("summarizer unavailable, using local analysis",
			zap.String("policy", req.PolicyName),
			zap.Error(err))
		metrics.ObserveSummarizerFallback()
		return Fallback(req), nil
	}

	c.logger.Info("summarizer analysis complete",
		zap.String("policy", req.PolicyName),
		zap.String("severity", string(analysis.Severity)))
	return analysis, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (monitor.Analysis, error) {
	body := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}
	body.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(body)
	if err != nil {
		return monitor.Analysis{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return monitor.Analysis{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return monitor.Analysis{}, fmt.Errorf("%w: %v", monitor.ErrSummarizerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return monitor.Analysis{}, fmt.Errorf("%w: status %d", monitor.ErrSummarizerUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return monitor.Analysis{}, fmt.Errorf("read response: %w", err)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return monitor.Analysis{}, fmt.Errorf("parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return monitor.Analysis{}, fmt.Errorf("no choices in response")
	}

	var parsed analysisPayload
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &parsed); err != nil {
		return monitor.Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}
	return normalize(parsed), nil
}

// normalize coerces model output onto the allowed severity values and
// clamps the score into [0, 1].
func normalize(p analysisPayload) monitor.Analysis {
	score := p.SeverityScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return monitor.Analysis{
		Summary:        p.Summary,
		Severity:       monitor.CoerceSeverity(strings.ToLower(p.Severity)),
		SeverityScore:  score,
		KeyChanges:     p.KeyChanges,
		Recommendation: p.Recommendation,
	}
}
