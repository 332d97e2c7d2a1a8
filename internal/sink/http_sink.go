package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chtzvt/certtab/internal/compression"
	"github.com/chtzvt/certtab/internal/secrets"
)

// HTTPSink POSTs each object to an endpoint once it is closed. The object
// name is sent in the X-Object-Name header.
type HTTPSink struct {
	endpoint    string
	compression string
	maxRetries  int
	headers     map[string]string
	tokenSecret string
	secrets     *secrets.Store
	client      *http.Client
}

func NewHTTPSink(opts map[string]interface{}, secrets *secrets.Store) (Sink, error) {
	endpoint, ok := opts["endpoint"].(string)
	if !ok || endpoint == "" {
		return nil, errors.New("http sink requires 'endpoint' option")
	}
	maxRetries := 3
	switch v := opts["max_retries"].(type) {
	case float64:
		if v > 0 {
			maxRetries = int(v)
		}
	case int:
		if v > 0 {
			maxRetries = v
		}
	}
	headers := map[string]string{}
	if m, ok := opts["headers"].(map[string]interface{}); ok {
		for k, v := range m {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}
	return &HTTPSink{
		endpoint:    endpoint,
		compression: stringOpt(opts, "compression", "none"),
		maxRetries:  maxRetries,
		headers:     headers,
		tokenSecret: stringOpt(opts, "auth_token_secret", ""),
		secrets:     secrets,
		client:      &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type httpSinkWriter struct {
	sink   *HTTPSink
	ctx    context.Context
	name   string
	token  string
	buf    *bytes.Buffer
	w      io.WriteCloser
	closed bool
}

func (s *HTTPSink) Open(ctx context.Context, name string) (SinkWriter, error) {
	var token string
	if s.tokenSecret != "" {
		var err error
		if token, err = secret(ctx, s.secrets, s.tokenSecret); err != nil {
			return nil, err
		}
	}
	buf := &bytes.Buffer{}
	w, err := compression.NewWriter(buf, s.compression)
	if err != nil {
		return nil, err
	}
	return &httpSinkWriter{
		sink:  s,
		ctx:   ctx,
		name:  name,
		token: token,
		buf:   buf,
		w:     w,
	}, nil
}

func (w *httpSinkWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("sinkwriter closed")
	}
	return w.w.Write(p)
}

func (w *httpSinkWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.w.Close(); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= w.sink.maxRetries; attempt++ {
		lastErr = w.post()
		if lastErr == nil {
			return nil
		}
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		case <-time.After(time.Duration(attempt*200) * time.Millisecond):
		}
	}
	return fmt.Errorf("all HTTP POST attempts failed: %w", lastErr)
}

func (w *httpSinkWriter) post() error {
	req, err := http.NewRequestWithContext(w.ctx, http.MethodPost, w.sink.endpoint, bytes.NewReader(w.buf.Bytes()))
	if err != nil {
		return err
	}
	for k, v := range w.sink.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-Object-Name", w.name)
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}
	// Set compression headers for already-compressed content
	switch w.sink.compression {
	case "gzip":
		req.Header.Set("Content-Encoding", "gzip")
	case "bzip2":
		req.Header.Set("Content-Encoding", "x-bzip2")
	case "zstd":
		req.Header.Set("Content-Encoding", "zstd")
	}
	resp, err := w.sink.client.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

func init() {
	Register("http", NewHTTPSink)
}
