package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/offhours/internal/logger"
)

const (
	requestTimeout = 5 * time.Second
	maxRetries     = 3
)

// WebhookConfig defines a webhook destination.
type WebhookConfig struct {
	URL     string            `yaml:"url"     json:"url" validate:"required,url"`
	Format  string            `yaml:"format"  json:"format" validate:"omitempty,oneof=generic slack"`
	Kinds   []string          `yaml:"kinds"   json:"kinds"` // empty means every kind
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// WebhookSink posts matching events to a URL on its own goroutine.
type WebhookSink struct {
	cfg     WebhookConfig
	client  *http.Client
	backoff time.Duration
	log     *logger.Logger
}

// NewWebhookSink creates a sink for cfg.
func NewWebhookSink(cfg WebhookConfig, log *logger.Logger) *WebhookSink {
	if log == nil {
		log = logger.Named("notify")
	}
	return &WebhookSink{
		cfg:     cfg,
		client:  &http.Client{Timeout: requestTimeout},
		backoff: time.Second,
		log:     log,
	}
}

// Notify fires a goroutine. Does not block the caller.
func (w *WebhookSink) Notify(ev Event) {
	if !w.matches(ev) {
		return
	}
	go func() {
		if err := w.Send(ev); err != nil {
			w.log.Warn().Err(err).Str("url", w.cfg.URL).Str("kind", string(ev.Kind)).Msg("webhook delivery failed")
		}
	}()
}

func (w *WebhookSink) matches(ev Event) bool {
	if len(w.cfg.Kinds) == 0 {
		return true
	}
	for _, k := range w.cfg.Kinds {
		if k == string(ev.Kind) {
			return true
		}
	}
	return false
}

// Send posts ev synchronously with retry on 5xx.
func (w *WebhookSink) Send(ev Event) error {
	body, err := FormatPayload(w.cfg.Format, ev)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * w.backoff)
		}

		req, err := http.NewRequest(http.MethodPost, w.cfg.URL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range w.cfg.Headers {
			req.Header.Set(k, v)
		}

		resp, err := w.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return fmt.Errorf("webhook rejected: HTTP %d", resp.StatusCode)
		}
		lastErr = fmt.Errorf("webhook server error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", maxRetries, lastErr)
}

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, ev Event) ([]byte, error) {
	switch format {
	case "slack":
		return json.Marshal(map[string]any{"text": SlackText(ev)})
	default:
		return json.Marshal(ev)
	}
}

// SlackText renders a one-line summary.
func SlackText(ev Event) string {
	who := logger.MaskNumber(ev.PhoneNumber)
	if who == "" {
		who = "unknown"
	}
	s := fmt.Sprintf("offhours %s from %s", ev.Kind, who)
	if ev.Decision != nil {
		s += ": " + ev.Decision.String()
	}
	if ev.State != "" {
		s += " [" + ev.State + "]"
	}
	return s
}
