package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Varshith-Kola/PolicyDiff/internal/metrics"
	"github.com/Varshith-Kola/PolicyDiff/internal/monitor"
)

func TestMain(m *testing.M) {
	metrics.Init()
	m.Run()
}

func sampleAlert(sev monitor.Severity) monitor.Alert {
	return monitor.Alert{
		PolicyID:       7,
		DiffID:         42,
		PolicyName:     "Privacy Policy",
		Company:        "ExampleCorp",
		Severity:       sev,
		Summary:        "ExampleCorp may now sell your data.",
		KeyChanges:     []string{"Data selling introduced", "Opt-out removed"},
		Recommendation: "Opt out before the effective date.",
	}
}

type fakeChannel struct {
	name     string
	min      monitor.Severity
	err      error
	delivers int
}

func (c *fakeChannel) Name() string                  { return c.name }
func (c *fakeChannel) MinSeverity() monitor.Severity { return c.min }
func (c *fakeChannel) Deliver(context.Context, monitor.Alert) error {
	c.delivers++
	return c.err
}

func TestDispatcherAnySuccess(t *testing.T) {
	t.Parallel()

	failing := &fakeChannel{name: "a", min: monitor.SeverityInformational, err: errors.New("down")}
	working := &fakeChannel{name: "b", min: monitor.SeverityInformational}
	d := NewDispatcher(zap.NewNop(), failing, working)

	if !d.Send(context.Background(), sampleAlert(monitor.SeverityConcerning)) {
		t.Fatal("expected success when one channel delivers")
	}
	if failing.delivers != 1 || working.delivers != 1 {
		t.Fatalf("both channels should be attempted: %d/%d", failing.delivers, working.delivers)
	}
}

func TestDispatcherAllFail(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(zap.NewNop(),
		&fakeChannel{name: "a", min: monitor.SeverityInformational, err: errors.New("down")})
	if d.Send(context.Background(), sampleAlert(monitor.SeverityConcerning)) {
		t.Fatal("expected failure when every channel fails")
	}
}

func TestDispatcherNoChannels(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(zap.NewNop())
	if d.Send(context.Background(), sampleAlert(monitor.SeverityActionNeeded)) {
		t.Fatal("no channels means no success")
	}
}

func TestDispatcherSeverityThreshold(t *testing.T) {
	t.Parallel()

	quiet := &fakeChannel{name: "quiet", min: monitor.SeverityActionNeeded}
	d := NewDispatcher(zap.NewNop(), quiet)

	if d.Send(context.Background(), sampleAlert(monitor.SeverityConcerning)) {
		t.Fatal("alert below threshold should not be delivered")
	}
	if quiet.delivers != 0 {
		t.Fatalf("channel below threshold was called %d times", quiet.delivers)
	}

	if !d.Send(context.Background(), sampleAlert(monitor.SeverityActionNeeded)) {
		t.Fatal("alert at threshold should be delivered")
	}
}

func TestWebhookGenericPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{URL: srv.URL})
	if err := wh.Deliver(context.Background(), sampleAlert(monitor.SeverityConcerning)); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if got["event"] != "policy_change" || got["severity"] != "concerning" {
		t.Fatalf("unexpected generic payload: %v", got)
	}
	if _, hasBlocks := got["blocks"]; hasBlocks {
		t.Fatal("generic payload must not carry Slack blocks")
	}
}

func TestWebhookSlackPayloadDetection(t *testing.T) {
	t.Parallel()

	alert := sampleAlert(monitor.SeverityActionNeeded)
	for _, url := range []string{
		"https://hooks.slack.com/services/T000/B000/XXXX",
		"https://discord.com/api/webhooks/123/abc",
	} {
		wh := NewWebhook(WebhookConfig{URL: url})
		payload, ok := wh.payload(alert).(map[string]any)
		if !ok {
			t.Fatalf("unexpected payload type for %s", url)
		}
		if _, hasBlocks := payload["blocks"]; !hasBlocks {
			t.Fatalf("expected Block Kit payload for %s", url)
		}
		text, _ := payload["text"].(string)
		if !strings.Contains(text, "ACTION-NEEDED") {
			t.Fatalf("fallback text missing severity: %q", text)
		}
	}
}

func TestWebhookNon2xxIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	wh := NewWebhook(WebhookConfig{URL: srv.URL})
	if err := wh.Deliver(context.Background(), sampleAlert(monitor.SeverityConcerning)); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestEmailNotConfigured(t *testing.T) {
	t.Parallel()

	e := NewEmail(EmailConfig{Host: "smtp.example.com", Port: 587})
	if err := e.Deliver(context.Background(), sampleAlert(monitor.SeverityConcerning)); err == nil {
		t.Fatal("unconfigured email channel should report an error")
	}
}

func TestEmailMessageFormat(t *testing.T) {
	t.Parallel()

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  []byte
	)
	e := NewEmail(EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "alerts@example.com",
		Password: "secret",
		To:       "user@example.com",
	})
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	if err := e.Deliver(context.Background(), sampleAlert(monitor.SeverityActionNeeded)); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Fatalf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "alerts@example.com" || len(gotTo) != 1 || gotTo[0] != "user@example.com" {
		t.Fatalf("unexpected envelope: %q -> %v", gotFrom, gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "multipart/alternative") {
		t.Fatal("message should be multipart/alternative")
	}
	if !strings.Contains(msg, "text/plain") || !strings.Contains(msg, "text/html") {
		t.Fatal("message should carry both plain and HTML parts")
	}
	if !strings.Contains(msg, "PolicyDiff Alert") {
		t.Fatal("message body missing alert header")
	}
}
