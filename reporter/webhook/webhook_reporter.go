// Package webhook POSTs detections to an HTTP endpoint, one JSON record
// per request.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/solwatch/shredscan/reporter"
	"github.com/solwatch/shredscan/scan"
)

// WebhookReporterCfg holds the configuration for a WebhookReporter.
type WebhookReporterCfg struct {
	URL        string            `mapstructure:"url" yaml:"url"`               // Endpoint receiving the POSTs.
	TimeoutMS  int               `mapstructure:"timeoutMS" yaml:"timeoutMS"`   // Per-request timeout; 0 uses 3000.
	MaxRetries int               `mapstructure:"maxRetries" yaml:"maxRetries"` // Retries after the first attempt.
	Headers    map[string]string `mapstructure:"headers" yaml:"headers"`       // Extra request headers, e.g. auth tokens.
}

// Validate checks the configuration.
func (c *WebhookReporterCfg) Validate() error {
	if c.URL == "" {
		return errors.New("URL cannot be empty")
	}
	if c.MaxRetries < 0 {
		return errors.New("MaxRetries cannot be negative")
	}
	return nil
}

// WebhookReporter implements reporter.Reporter over HTTP POST.
type WebhookReporter struct {
	cfg    *WebhookReporterCfg
	client *http.Client
}

// NewWebhookReporter creates a WebhookReporter from cfg.
func NewWebhookReporter(cfg *WebhookReporterCfg) (*WebhookReporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid WebhookReporterCfg: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &WebhookReporter{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Name implements reporter.Reporter.
func (r *WebhookReporter) Name() string { return "webhook" }

// FactoryName identifies this plugin instance.
func (r *WebhookReporter) FactoryName() string { return "webhook_reporter" }

// Report POSTs the JSON record, retrying transient failures with a short
// linear backoff.
func (r *WebhookReporter) Report(ctx context.Context, det *scan.Detection) error {
	buf, err := reporter.EncodeDetection(det)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		if lastErr = r.post(ctx, buf); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (r *WebhookReporter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Close implements reporter.Reporter.
func (r *WebhookReporter) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
