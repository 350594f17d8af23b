package knowledge

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const tenderFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Anunțuri de participare</title>
  <link>https://e-licitatie.ro</link>
  <description>Licitații publice</description>
  <item>
    <title>Reabilitare drum județean DJ 107</title>
    <link>https://e-licitatie.ro/anunt/1</link>
    <description>Valoare estimată 4.500.000 lei</description>
    <pubDate>Mon, 04 Mar 2024 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Furnizare echipamente IT</title>
    <link>https://e-licitatie.ro/anunt/2</link>
    <description>Laptopuri și imprimante</description>
  </item>
</channel>
</rss>`

func TestFeedProcessor_ParseFeedFromString(t *testing.T) {
	fp := NewFeedProcessor()

	items, err := fp.ParseFeedFromString(tenderFeed)
	if err != nil {
		t.Fatalf("ParseFeedFromString failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Reabilitare drum județean DJ 107" || first.Link != "https://e-licitatie.ro/anunt/1" {
		t.Errorf("unexpected item %+v", first)
	}
	want := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	if !first.PublicationDate.Equal(want) {
		t.Errorf("expected %v, got %v", want, first.PublicationDate)
	}
	if !items[1].PublicationDate.IsZero() {
		t.Errorf("expected zero date, got %v", items[1].PublicationDate)
	}

	if _, err := fp.ParseFeedFromString("not a feed"); err == nil {
		t.Error("expected error for invalid feed")
	}
}

func TestFeedItem_FileNameAndMarkdown(t *testing.T) {
	item := &FeedItem{
		Title:           "Reabilitare drum județean DJ 107",
		Description:     "Valoare estimată",
		Link:            "https://e-licitatie.ro/anunt/1",
		PublicationDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}

	if got, want := item.FileName(), "2024-03-04-reabilitare-drum-județean-dj-107.md"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := (&FeedItem{Title: "!!!"}).FileName(); got != "anunt.md" {
		t.Errorf("expected fallback name, got %q", got)
	}

	md := item.Markdown()
	for _, part := range []string{"# Reabilitare drum județean DJ 107", "Publicat: 2024-03-04", "Link: https://e-licitatie.ro/anunt/1", "Valoare estimată"} {
		if !strings.Contains(md, part) {
			t.Errorf("markdown missing %q:\n%s", part, md)
		}
	}
}

func TestStore_Ingest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, tenderFeed)
	}))
	defer srv.Close()

	s := newTestStore(t)
	n, err := s.Ingest(context.Background(), NewFeedProcessor(), []string{srv.URL + "/feed"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 files written, got %d", n)
	}
	names, _ := s.List()
	if len(names) != 2 {
		t.Errorf("expected 2 stored files, got %v", names)
	}

	if _, err := s.Ingest(context.Background(), NewFeedProcessor(), []string{srv.URL + "/feed", srv.URL + "/broken"}); err == nil {
		t.Error("expected error when a feed fails")
	}
}

const repeatedTitleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Anunțuri</title>
  <item>
    <title>Anunț licitație</title>
    <link>https://e-licitatie.ro/anunt/10</link>
    <description>Lucrări de asfaltare</description>
  </item>
  <item>
    <title>Anunț licitație</title>
    <link>https://e-licitatie.ro/anunt/11</link>
    <description>Servicii de curățenie</description>
  </item>
</channel>
</rss>`

func TestStore_IngestRepeatedTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		io.WriteString(w, repeatedTitleFeed)
	}))
	defer srv.Close()

	s := newTestStore(t)
	// The same feed twice: the second copy adds nothing.
	n, err := s.Ingest(context.Background(), NewFeedProcessor(), []string{srv.URL + "/a", srv.URL + "/a"})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 files written, got %d", n)
	}

	names, _ := s.List()
	if strings.Join(names, ",") != "anunț-licitație-2.md,anunț-licitație.md" {
		t.Fatalf("unexpected files %v", names)
	}
	var bodies []string
	for _, name := range names {
		data, err := s.Read(name)
		if err != nil {
			t.Fatal(err)
		}
		bodies = append(bodies, string(data))
	}
	joined := strings.Join(bodies, "\n")
	if !strings.Contains(joined, "asfaltare") || !strings.Contains(joined, "curățenie") {
		t.Errorf("expected both announcements to be kept:\n%s", joined)
	}
}
