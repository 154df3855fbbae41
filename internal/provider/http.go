package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blues/antugrow/internal/metrics"
)

// StatusError 服务端返回非 2xx
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("code %d: %s", e.Code, e.Body)
}

// session 带超时的 HTTP 会话，所有数据服务共用
type session struct {
	baseURL string
	client  *http.Client
	metrics *metrics.Metrics
	header  http.Header
}

func newSession(baseURL string, timeout time.Duration, m *metrics.Metrics) session {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return session{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		metrics: m,
		header:  make(http.Header),
	}
}

func (s session) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range s.header {
		req.Header[k] = v
	}
	return req, nil
}

// doJSON 发送请求并解码 JSON，不做重试
func (s session) doJSON(req *http.Request, endpoint string, out interface{}) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveProvider(endpoint, start, err) }()

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s request: %w", endpoint, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		})
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}
