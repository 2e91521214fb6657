package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
)

// NewHTTPClient returns a client that retries connection errors and 5xx
// responses with exponential backoff.
func NewHTTPClient(retries int, timeout time.Duration, logger *logrus.Entry) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	if logger != nil {
		rc.Logger = logrusLogger{logger.WithField("component", "llm-http")}
	} else {
		rc.Logger = nil
	}

	client := rc.StandardClient()
	client.Timeout = timeout
	return client
}

// logrusLogger adapts a logrus entry to retryablehttp.LeveledLogger.
type logrusLogger struct {
	entry *logrus.Entry
}

func (l logrusLogger) Error(msg string, kv ...interface{}) { l.with(kv).Error(msg) }
func (l logrusLogger) Info(msg string, kv ...interface{})  { l.with(kv).Debug(msg) }
func (l logrusLogger) Debug(msg string, kv ...interface{}) { l.with(kv).Debug(msg) }
func (l logrusLogger) Warn(msg string, kv ...interface{})  { l.with(kv).Warn(msg) }

func (l logrusLogger) with(kv []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return l.entry.WithFields(fields)
}

// postJSON sends payload to url and decodes a 2xx JSON response into out.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("llm returned status: %d", e.StatusCode)
	}
	return fmt.Sprintf("llm returned status: %d: %s", e.StatusCode, e.Body)
}
