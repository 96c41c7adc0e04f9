package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
)

const fetchTimeout = 15 * time.Second

// Source pulls documents from the configured RSS feeds. Each feed
// carries its own tier hint and declared specialization; items the
// feed cannot date are skipped.
type Source struct {
	client *http.Client
	feeds  []config.FeedConfig
	logger *slog.Logger
}

var _ ports.DocumentSource = (*Source)(nil)

// NewSource builds a Source over the configured feed list.
func NewSource(feeds []config.FeedConfig, logger *slog.Logger) *Source {
	if logger != nil {
		logger = logger.With("component", "rss")
	}
	return &Source{
		client: &http.Client{Timeout: fetchTimeout},
		feeds:  feeds,
		logger: logger,
	}
}

// Fetch pulls up to limit documents across all feeds. A feed that
// fails to download or parse is logged and skipped; the rest of the
// run continues.
func (s *Source) Fetch(ctx context.Context, limit int) ([]domain.Document, error) {
	parser := gofeed.NewParser()
	docs := make([]domain.Document, 0, limit)

	for _, fc := range s.feeds {
		if len(docs) >= limit {
			break
		}

		feed, err := s.download(ctx, parser, fc.URL)
		if err != nil {
			if ctx.Err() != nil {
				return docs, ctx.Err()
			}
			s.warn("feed fetch failed", "feed", fc.Name, "error", err)
			continue
		}

		for _, item := range feed.Items {
			if len(docs) >= limit {
				break
			}

			published := itemTime(item)
			if published.IsZero() {
				continue
			}

			url := strings.TrimSpace(item.Link)
			title := strings.TrimSpace(item.Title)
			if url == "" || title == "" {
				continue
			}

			docs = append(docs, domain.Document{
				URL:            url,
				Title:          title,
				Body:           itemBody(item),
				Specialization: domain.Specialization(fc.Specialization),
				PublishedAt:    published,
				Source: domain.Source{
					Name:     fc.Name,
					TierHint: domain.SourceTier(fc.Tier),
				},
			})
		}
	}

	return docs, nil
}

func (s *Source) download(ctx context.Context, parser *gofeed.Parser, url string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.TransientError{Op: "feed download", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransientError{Op: "feed download",
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	feed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func itemTime(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return time.Time{}
}

func itemBody(item *gofeed.Item) string {
	if strings.TrimSpace(item.Content) != "" {
		return item.Content
	}
	return item.Description
}

func (s *Source) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
