package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type compileResponse struct {
	Success bool `json:"success"`
	Units   []struct {
		Name        string `json:"name"`
		Status      string `json:"status"`
		Tree        string `json:"tree"`
		Diagnostics []struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"diagnostics"`
	} `json:"units"`
}

func post(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/compile", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCompileEndpoint(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	defer srv.Close()

	resp := post(t, srv, `{"units":[{"name":"a.ruka","source":"let x = "},{"name":"b.ruka","source":"let y = 1"}],"emit_tree":true}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %s", resp.Status)
	}

	var got compileResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Success || len(got.Units) != 2 {
		t.Fatalf("unexpected response %+v", got)
	}
	a, b := got.Units[0], got.Units[1]
	if a.Status != "failed" || len(a.Diagnostics) != 1 || a.Diagnostics[0].Kind != "expected-expression" {
		t.Errorf("unexpected a.ruka %+v", a)
	}
	if b.Status != "succeeded" || b.Tree != "(program \"b.ruka\"\n  (let y (int 1)))\n" {
		t.Errorf("unexpected b.ruka %+v", b)
	}
}

func TestCompileRejectsBadRequests(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	defer srv.Close()

	tests := []struct {
		body   string
		status int
	}{
		{`not json`, http.StatusBadRequest},
		{`{"units":[]}`, http.StatusBadRequest},
		{`{"units":[{"source":"x"}]}`, http.StatusBadRequest},
		{`{"units":[{"name":"a.ruka","source":"x"}],"extra":1}`, http.StatusBadRequest},
		{`{"units":[{"name":"a.ruka","source":"` + strings.Repeat("a", MaxBodyBytes) + `"}]}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		resp := post(t, srv, tt.body)
		if resp.StatusCode != tt.status {
			b, _ := io.ReadAll(resp.Body)
			t.Errorf("body %.40q: expected %d, got %d: %s", tt.body, tt.status, resp.StatusCode, b)
		}
	}
}

func TestHealthAndRouting(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(b) != "ok\n" {
		t.Errorf("unexpected health response %s %q", resp.Status, b)
	}

	resp, err = http.Get(srv.URL + "/v1/compile")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /v1/compile: expected 405, got %s", resp.Status)
	}
}
