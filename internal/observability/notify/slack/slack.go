// Package slack delivers alerts through a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/target/eventnav/internal/observability/notify"
)

const (
	defaultUsername = "eventnav"
	defaultTimeout  = 5 * time.Second
	baseBackoff     = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
	errorBodyLimit  = 512
)

// Config describes the webhook and its delivery policy.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client posts alerts to one webhook. Rate limits and 5xx responses are
// retried up to RetryLimit times; other failures are returned at once.
type Client struct {
	webhookURL string
	channel    string
	username   string
	retryLimit int
	client     *http.Client
	now        func() time.Time
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}
	if u, err := url.Parse(webhookURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("slack webhook url %q is not absolute", webhookURL)
	}

	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = defaultUsername
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		retryLimit: max(cfg.RetryLimit, 0),
		client:     hc,
		now:        time.Now,
	}, nil
}

type payload struct {
	Text     string `json:"text"`
	Username string `json:"username"`
	Channel  string `json:"channel,omitempty"`
}

// deliveryError carries whether a failed post is worth repeating.
type deliveryError struct {
	status     int
	body       string
	retryAfter time.Duration
}

func (e *deliveryError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("slack webhook returned %d", e.status)
	}
	return fmt.Sprintf("slack webhook returned %d: %s", e.status, e.body)
}

func (e *deliveryError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= 500
}

// SendAlert posts alert, backing off between attempts.
func (c *Client) SendAlert(ctx context.Context, alert notify.Alert) error {
	body, err := json.Marshal(c.payload(alert))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		var de *deliveryError
		isDelivery := errors.As(err, &de)
		if attempt >= c.retryLimit || (isDelivery && !de.retryable()) {
			return err
		}

		wait := min(baseBackoff<<min(attempt, 5), maxBackoff)
		if isDelivery && de.retryAfter > 0 {
			wait = de.retryAfter
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func (c *Client) payload(alert notify.Alert) payload {
	occurred := alert.OccurredAt
	if occurred.IsZero() {
		occurred = c.now()
	}
	severity := alert.Severity
	if severity == "" {
		severity = notify.SeverityWarning
	}

	var b strings.Builder
	b.WriteString(":warning: *")
	b.WriteString(escape(alert.Message))
	b.WriteString("*\n")
	field(&b, "source", alert.Source)
	field(&b, "severity", severity)
	keys := make([]string, 0, len(alert.Metadata))
	for k := range alert.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		field(&b, k, alert.Metadata[k])
	}
	fmt.Fprintf(&b, "<!date^%d^{date_short_pretty} {time_secs}|%s>",
		occurred.Unix(), occurred.UTC().Format(time.RFC3339))

	return payload{Text: b.String(), Username: c.username, Channel: c.channel}
}

func field(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	fmt.Fprintf(b, "• %s: `%s`\n", escape(label), escape(value))
}

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return slackEscaper.Replace(s) }

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	de := &deliveryError{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
		de.retryAfter = min(time.Duration(secs)*time.Second, maxBackoff)
	}
	return de
}
