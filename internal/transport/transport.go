// Package transport forwards compilation results and diagnostics to an
// external consumer such as an editor or a build service.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ruka-lang/ruka/internal/compiler/diag"
)

type Kind string

const (
	KindResult     Kind = "result"
	KindDiagnostic Kind = "diagnostic"
)

// Payload is the envelope sent for every message. Exactly one of Result and
// Diagnostic is set, matching Kind.
type Payload struct {
	Kind       Kind             `json:"kind"`
	Unit       string           `json:"unit"`
	Result     any              `json:"result,omitempty"`
	Diagnostic *diag.Diagnostic `json:"diagnostic,omitempty"`
}

// Transport must be safe for concurrent use; units compiled in parallel
// share one.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

type nop struct{}

func (nop) Send(context.Context, Payload) error { return nil }

// Nop drops every payload.
var Nop Transport = nop{}

// --- HTTP ---

const DefaultTimeout = 10 * time.Second

// HTTP posts each payload as JSON to URL.
type HTTP struct {
	URL    string
	Client *http.Client
}

func NewHTTP(url string, timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTP{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (h *HTTP) Send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", p.Kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", h.URL, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("posting to %s: unexpected status %s", h.URL, resp.Status)
	}
	return nil
}

// --- Stream ---

// Stream writes newline-delimited JSON, one payload per line.
type Stream struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewStream(w io.Writer) *Stream {
	return &Stream{enc: json.NewEncoder(w)}
}

func (s *Stream) Send(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(p); err != nil {
		return fmt.Errorf("writing %s payload: %w", p.Kind, err)
	}
	return nil
}
