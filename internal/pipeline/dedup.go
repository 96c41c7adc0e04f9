package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
	"MedDigest/internal/ports"
	"MedDigest/internal/textutil"
)

// Deduplicator rejects documents already seen: by exact URL, by
// fingerprint of the normalized body, or by near-duplicate title
// within a recency window. Checks short-circuit on first match.
type Deduplicator struct {
	repo      ports.Repository
	threshold float64
	window    int
	logger    *slog.Logger

	// In-run caches so a retried batch does not hit the repository
	// for documents it already admitted this run.
	seenURLs   *lru.Cache[string, struct{}]
	seenHashes *lru.Cache[string, struct{}]
}

// NewDeduplicator wires the repository and dedup thresholds.
func NewDeduplicator(repo ports.Repository, cfg config.PipelineConfig, logger *slog.Logger) *Deduplicator {
	urls, _ := lru.New[string, struct{}](4096)
	hashes, _ := lru.New[string, struct{}](4096)
	return &Deduplicator{
		repo:       repo,
		threshold:  cfg.DuplicateThreshold,
		window:     cfg.TitleWindow,
		logger:     logger,
		seenURLs:   urls,
		seenHashes: hashes,
	}
}

// IsDuplicate reports whether the document was already ingested.
// A duplicate is dropped, not an error; callers count it as skipped.
func (d *Deduplicator) IsDuplicate(ctx context.Context, doc domain.Document) (bool, error) {
	if _, ok := d.seenURLs.Get(doc.URL); ok {
		return true, nil
	}
	known, err := d.repo.IsKnownByURL(ctx, doc.URL)
	if err != nil {
		return false, fmt.Errorf("check url: %w", err)
	}
	if known {
		return true, nil
	}

	hash := textutil.Fingerprint(textutil.Clean(doc.Body))
	if _, ok := d.seenHashes.Get(hash); ok {
		return true, nil
	}
	known, err = d.repo.IsKnownByHash(ctx, hash)
	if err != nil {
		return false, fmt.Errorf("check hash: %w", err)
	}
	if known {
		return true, nil
	}

	titles, err := d.repo.RecentTitles(ctx, d.window)
	if err != nil {
		return false, fmt.Errorf("recent titles: %w", err)
	}
	candidate := textutil.CleanTitle(doc.Title)
	for _, title := range titles {
		if textutil.Jaccard(candidate, title) > d.threshold {
			d.debug("near-duplicate title", "url", doc.URL, "matched", title)
			return true, nil
		}
	}

	return false, nil
}

// Remember records an admitted document so retries within the same
// run short-circuit without repository lookups.
func (d *Deduplicator) Remember(url, hash string) {
	d.seenURLs.Add(url, struct{}{})
	d.seenHashes.Add(hash, struct{}{})
}

func (d *Deduplicator) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
