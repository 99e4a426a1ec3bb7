package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"labelgen"
)

func newTestServer(t *testing.T) (http.Handler, string) {
	t.Helper()
	gen, err := labelgen.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()
	return newServer(gen, dir), dir
}

func post(t *testing.T, h http.Handler, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(raw))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func TestTemplatesEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/templates", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Templates []string `json:"templates"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Templates) != 3 || resp.Templates[0] != "Avery 5160 (30 labels)" {
		t.Errorf("templates = %v", resp.Templates)
	}
}

func TestGenerateStreamsPDF(t *testing.T) {
	h, _ := newTestServer(t)
	resp := post(t, h, generateRequest{Start: 1, End: 3, Template: "Avery 5160 (30 labels)", Header: "Bin"})
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Error("body is not a PDF")
	}
}

func TestGenerateErrors(t *testing.T) {
	h, _ := newTestServer(t)
	tests := []struct {
		name string
		req  generateRequest
		want int
	}{
		{"reversed range", generateRequest{Start: 5, End: 1, Template: "Avery 5160 (30 labels)"}, http.StatusBadRequest},
		{"unknown template", generateRequest{Start: 1, End: 1, Template: "nope"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, h, tt.req)
			defer func() {
				_ = resp.Body.Close()
			}()
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.want)
			}
			var e map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e["error"] == "" {
				t.Errorf("error body = %v, %v", e, err)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json: status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/generate", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /generate: status = %d", w.Code)
	}
}

func TestGenerateSavesInsideOutDir(t *testing.T) {
	h, dir := newTestServer(t)
	resp := post(t, h, generateRequest{Start: 1, End: 31, Template: "Avery 5160 (30 labels)", Output: "../../escape.pdf"})
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Pages  int `json:"pages"`
		Labels int `json:"labels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Pages != 2 || out.Labels != 31 {
		t.Errorf("response = %+v", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.pdf")); err != nil {
		t.Errorf("file not saved inside outdir: %v", err)
	}
}

func TestRenderDownloadRejectsBadFont(t *testing.T) {
	cfg := config{start: 1, end: 1, template: "Avery 5160 (30 labels)", font: "comic", dpi: 300, scale: 1}
	if err := render(cfg); err == nil {
		t.Error("expected error for unknown font")
	}
}

func TestRenderWritesFile(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "templates.json")
	err := os.WriteFile(catalog, []byte(`{"templates":[{"name":"tiny","columns":4,"rows":4,"label_width":"1.5in","label_height":"1in","margin_left":"0.25in","margin_top":"0.5in"}]}`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	cfg := config{
		start: 1, end: 20, template: "tiny",
		out: filepath.Join(dir, "out.pdf"), templates: catalog,
		font: "helvetica", dpi: 150, scale: 1,
	}
	if err := render(cfg); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(cfg.out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestGenerateRejectsLargeBody(t *testing.T) {
	h, _ := newTestServer(t)
	body := `{"start":1,"end":1,"template":"Avery 5160 (30 labels)","header":"` + strings.Repeat("x", maxRequestBytes) + `"}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestDebouncerRunsDoNotOverlap(t *testing.T) {
	var active, peak, runs atomic.Int32
	d := newDebouncer(time.Millisecond, func() {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		active.Add(-1)
		runs.Add(1)
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.fire()
		}()
	}
	wg.Wait()

	if runs.Load() != 4 {
		t.Errorf("runs = %d, want 4", runs.Load())
	}
	if peak.Load() != 1 {
		t.Errorf("%d renders ran at once, want 1", peak.Load())
	}
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	var runs atomic.Int32
	d := newDebouncer(50*time.Millisecond, func() { runs.Add(1) })
	defer d.stop()

	for i := 0; i < 5; i++ {
		d.trigger()
	}
	time.Sleep(300 * time.Millisecond)
	if runs.Load() != 1 {
		t.Errorf("runs = %d, want 1 after a burst", runs.Load())
	}
}
