package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

// WebhookConfig controls one webhook channel.
type WebhookConfig struct {
	URL         string
	MinSeverity monitor.Severity
	Timeout     time.Duration
}

// Webhook posts alerts as JSON. Slack and Discord webhook URLs get a
// Block Kit payload; anything else gets a flat JSON body.
type Webhook struct {
	cfg    WebhookConfig
	client *http.Client
}

// NewWebhook builds a webhook channel.
func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MinSeverity == "" {
		cfg.MinSeverity = monitor.SeverityInformational
	}
	return &Webhook{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) MinSeverity() monitor.Severity { return w.cfg.MinSeverity }

// Deliver posts the alert payload. Non-2xx responses are errors.
func (w *Webhook) Deliver(ctx context.Context, alert monitor.Alert) error {
	body, err := json.Marshal(w.payload(alert))
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) payload(alert monitor.Alert) any {
	if isSlackStyle(w.cfg.URL) {
		return slackPayload(alert)
	}
	return genericPayload(alert)
}

// isSlackStyle reports whether the URL expects Slack's Block Kit format.
// Discord accepts it too via its /slack compatibility endpoint.
func isSlackStyle(url string) bool {
	return strings.Contains(url, "hooks.slack.com") || strings.Contains(url, "discord.com/api/webhooks")
}

func slackPayload(alert monitor.Alert) map[string]any {
	emoji := severityEmoji[alert.Severity]
	severity := strings.ToUpper(string(alert.Severity))

	mrkdwn := func(text string) map[string]any {
		return map[string]any{"type": "mrkdwn", "text": text}
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": emoji + " PolicyDiff Alert"},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				mrkdwn("*Policy:*\n" + alert.PolicyName),
				mrkdwn("*Company:*\n" + alert.Company),
				mrkdwn("*Severity:*\n" + severity),
				mrkdwn(fmt.Sprintf("*Diff ID:*\n#%d", alert.DiffID)),
			},
		},
		{
			"type": "section",
			"text": mrkdwn("*Summary:*\n" + alert.Summary),
		},
	}
	if len(alert.KeyChanges) > 0 {
		capped := alert.KeyChanges
		if len(capped) > 5 {
			capped = capped[:5]
		}
		var lines []string
		for _, c := range capped {
			lines = append(lines, "  • "+c)
		}
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": mrkdwn("*Key Changes:*\n" + strings.Join(lines, "\n")),
		})
	}
	blocks = append(blocks, map[string]any{
		"type": "section",
		"text": mrkdwn("*Recommendation:*\n" + alert.Recommendation),
	})

	return map[string]any{
		"text": fmt.Sprintf("%s PolicyDiff: %s — %s (%s)",
			emoji, severity, alert.PolicyName, alert.Company),
		"blocks": blocks,
	}
}

func genericPayload(alert monitor.Alert) map[string]any {
	keyChanges := alert.KeyChanges
	if keyChanges == nil {
		keyChanges = []string{}
	}
	return map[string]any{
		"event":          "policy_change",
		"policy_name":    alert.PolicyName,
		"company":        alert.Company,
		"severity":       string(alert.Severity),
		"severity_emoji": severityEmoji[alert.Severity],
		"summary":        alert.Summary,
		"key_changes":    keyChanges,
		"recommendation": alert.Recommendation,
		"diff_id":        alert.DiffID,
	}
}
