package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Medical Feed</title>
    <item>
      <title>Novel anticoagulant trial results</title>
      <link>https://example.org/articles/1</link>
      <description>Trial description body.</description>
      <pubDate>Mon, 24 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Undated item is skipped</title>
      <link>https://example.org/articles/2</link>
      <description>No date here.</description>
    </item>
    <item>
      <title>Second dated item</title>
      <link>https://example.org/articles/3</link>
      <description>Another body.</description>
      <pubDate>Tue, 25 Aug 2026 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFetchMapsFeedItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	src := NewSource([]config.FeedConfig{
		{Name: "example", URL: server.URL, Tier: "B", Specialization: "cardiology"},
	}, nil)

	docs, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("expected 2 dated documents, got %d", len(docs))
	}

	first := docs[0]
	if first.URL != "https://example.org/articles/1" {
		t.Fatalf("unexpected url: %s", first.URL)
	}
	if first.Title != "Novel anticoagulant trial results" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Body != "Trial description body." {
		t.Fatalf("unexpected body: %q", first.Body)
	}
	if first.Source.Name != "example" || first.Source.TierHint != domain.SourceTier("B") {
		t.Fatalf("source metadata lost: %+v", first.Source)
	}
	if first.Specialization != domain.SpecCardiology {
		t.Fatalf("declared specialization lost: %s", first.Specialization)
	}
	if first.PublishedAt.IsZero() {
		t.Fatal("published date not parsed")
	}
}

func TestFetchHonorsLimit(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer server.Close()

	src := NewSource([]config.FeedConfig{
		{Name: "example", URL: server.URL},
	}, nil)

	docs, err := src.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("limit ignored: got %d documents", len(docs))
	}
}

func TestFetchSkipsBrokenFeed(t *testing.T) {
	t.Parallel()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	}))
	defer healthy.Close()

	src := NewSource([]config.FeedConfig{
		{Name: "broken", URL: broken.URL},
		{Name: "healthy", URL: healthy.URL},
	}, nil)

	docs, err := src.Fetch(context.Background(), 10)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("healthy feed not processed after broken one: got %d", len(docs))
	}
}
