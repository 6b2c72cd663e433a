package filter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dtnitsch/llm-feed-filter/models"
	"github.com/dtnitsch/llm-feed-filter/pkg/classifier"
	pagefilter "github.com/dtnitsch/llm-feed-filter/pkg/filter"
)

const homeFeed = `<!DOCTYPE html><html><head><title>home</title></head><body>
<div class="container">
  <div class="bili-video-card" id="spoiler"><h3 class="bili-video-card__info--tit" title="Finale spoilers inside">Finale...</h3></div>
  <div class="bili-video-card" id="cooking"><h3 class="bili-video-card__info--tit" title="Ten minute pasta">Ten minute pasta</h3></div>
  <div class="bili-video-card" id="hero"><div class="cover"></div></div>
  <div class="bili-video-card" id="broken"><h3 class="bili-video-card__info--tit" title="Server trouble">Server trouble</h3></div>
</div>
</body></html>`

// fakeOllama answers True for spoilers, fails for "Server trouble" and False otherwise.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		var req struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		switch {
		case strings.Contains(req.Prompt, "Server trouble"):
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		case strings.Contains(req.Prompt, "spoilers"):
			_, _ = w.Write([]byte(`{"response":"True"}`))
		default:
			_, _ = w.Write([]byte(`{"response":"False\n"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun_EndToEnd(t *testing.T) {
	srv := fakeOllama(t)
	cfg := models.DefaultConfig()
	cfg.APIURL = srv.URL
	cfg.Rules = "Anything that spoils a show"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	summary, html, err := Run(context.Background(), logger, cfg, []byte(homeFeed), classifier.New(cfg))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := pagefilter.Stats{Dispatched: 3, Blocked: 1, Passed: 1, Failed: 1, Skipped: 1}
	if summary.Stats != want {
		t.Errorf("Stats = %+v, want %+v", summary.Stats, want)
	}
	if summary.Status != "partial_failure" {
		t.Errorf("Status = %q, want partial_failure", summary.Status)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("output is not HTML: %v", err)
	}
	hidden := func(id string) bool {
		_, ok := doc.Find("#" + id).Attr("hidden")
		return ok
	}
	if !hidden("spoiler") {
		t.Error("spoiler card is visible")
	}
	if hidden("cooking") {
		t.Error("compliant card is hidden")
	}
	if !hidden("broken") {
		t.Error("failed card is visible")
	}
	if hidden("hero") {
		t.Error("title-less card is hidden")
	}
	if doc.Find("[data-checked]").Length() != 4 {
		t.Errorf("checked cards = %d, want 4", doc.Find("[data-checked]").Length())
	}
}

func TestRun_NoContainer(t *testing.T) {
	cfg := models.DefaultConfig()
	cfg.APIURL = "http://127.0.0.1:1/unused"

	raw := `<html><body><div class="bili-video-card"><p class="title" title="x"></p></div></body></html>`
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	summary, html, err := Run(context.Background(), logger, cfg, []byte(raw), classifier.New(cfg))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Observed || summary.Status != "inactive" {
		t.Errorf("summary = %+v, want inactive", summary)
	}
	if strings.Contains(html, "hidden") || strings.Contains(html, "data-checked") {
		t.Errorf("page was modified without a container: %s", html)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		observed bool
		stats    pagefilter.Stats
		want     string
	}{
		{false, pagefilter.Stats{}, "inactive"},
		{true, pagefilter.Stats{Dispatched: 2, Passed: 1, Blocked: 1}, "success"},
		{true, pagefilter.Stats{Dispatched: 1, Unintelligible: 1}, "partial_failure"},
		{true, pagefilter.Stats{Dispatched: 1, Failed: 1}, "partial_failure"},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.observed, tt.stats); got != tt.want {
			t.Errorf("StatusFor(%v, %+v) = %q, want %q", tt.observed, tt.stats, got, tt.want)
		}
	}
}
