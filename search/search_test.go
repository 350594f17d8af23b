package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func testConfig() Config {
	return Config{
		SerperAPIKey: "serper-key",
		MaxResults:   2,
		HTTPClient:   http.DefaultClient,
		Logger:       log.New(io.Discard),
	}
}

func TestSerper_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("X-API-KEY") != "serper-key" {
			t.Errorf("missing api key header")
		}
		var req serperRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		if req.Query != "SEAP praguri 2024" || req.Num != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		io.WriteString(w, `{
			"answerBox": {"answer": "135.060 lei"},
			"organic": [
				{"title": "Praguri achiziții", "link": "https://e-licitatie.ro/a", "snippet": "Pragurile valorice"},
				{"title": "Legea 98/2016", "link": "https://legislatie.just.ro/b", "snippet": "Achiziții publice"},
				{"title": "Ignored", "link": "https://example.com", "snippet": "over the limit"}
			]
		}`)
	}))
	defer srv.Close()

	s := NewSerper(testConfig())
	s.endpoint = srv.URL

	got, err := s.Search(context.Background(), "SEAP praguri 2024")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := "Answer: 135.060 lei\n\n" +
		"Title: Praguri achiziții\nLink: https://e-licitatie.ro/a\nSnippet: Pragurile valorice\n---\n" +
		"Title: Legea 98/2016\nLink: https://legislatie.just.ro/b\nSnippet: Achiziții publice\n---"
	if got != want {
		t.Errorf("unexpected result\n got: %q\nwant: %q", got, want)
	}
}

func TestSerper_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := NewSerper(testConfig())
	s.endpoint = srv.URL

	_, err := s.Search(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("expected 401 error, got %v", err)
	}
}

const duckDuckGoPage = `<html><body>
<div class="result results_links web-result">
  <h2 class="result__title">
    <a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fe-licitatie.ro%2Fanunt&amp;rut=abc">Anunț <b>licitație</b></a>
  </h2>
  <a class="result__snippet" href="#">Procedură   deschisă pentru
  lucrări</a>
</div>
<div class="result">
  <a class="result__a" href="https://www.anap.gov.ro/">ANAP</a>
  <div class="result__snippet">Agenția Națională pentru Achiziții Publice</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/">Third</a>
</div>
</body></html>`

func TestDuckDuckGo_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "licitație drumuri" {
			t.Errorf("unexpected query %q", q)
		}
		io.WriteString(w, duckDuckGoPage)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(testConfig())
	d.endpoint = srv.URL + "/html/"

	got, err := d.Search(context.Background(), "licitație drumuri")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	want := "Title: Anunț licitație\nLink: https://e-licitatie.ro/anunt\nSnippet: Procedură deschisă pentru lucrări\n---\n" +
		"Title: ANAP\nLink: https://www.anap.gov.ro/\nSnippet: Agenția Națională pentru Achiziții Publice\n---"
	if got != want {
		t.Errorf("unexpected result\n got: %q\nwant: %q", got, want)
	}
}

func TestDuckDuckGo_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	d := NewDuckDuckGo(testConfig())
	d.endpoint = srv.URL

	if _, err := d.Search(context.Background(), "x"); err == nil {
		t.Error("expected error for 503")
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig()

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := s.(*Serper); !ok {
		t.Errorf("expected Serper when a key is set, got %T", s)
	}

	cfg.SerperAPIKey = ""
	s, _ = New(cfg)
	if _, ok := s.(*DuckDuckGo); !ok {
		t.Errorf("expected DuckDuckGo without a key, got %T", s)
	}

	cfg.Provider = ProviderOff
	if s, err := New(cfg); err != nil || s != nil {
		t.Errorf("expected nil searcher when off, got %v, %v", s, err)
	}

	cfg.Provider = ProviderSerper
	if _, err := New(cfg); err == nil {
		t.Error("expected error for serper without key")
	}

	cfg.Provider = "bing"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
