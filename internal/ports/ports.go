package ports

import (
	"context"
	"time"

	"MedDigest/internal/domain"
)

// DocumentSource pulls raw documents from upstream feeds.
type DocumentSource interface {
	Fetch(ctx context.Context, limit int) ([]domain.Document, error)
}

// Repository is the single durable store the pipeline stages share.
// Stages never call each other; all coupling goes through here.
type Repository interface {
	SaveDocument(ctx context.Context, doc domain.Document) error
	FetchUnprocessedDocuments(ctx context.Context, limit int) ([]domain.Document, error)
	IsKnownByURL(ctx context.Context, url string) (bool, error)
	IsKnownByHash(ctx context.Context, hash string) (bool, error)
	RecentTitles(ctx context.Context, window int) ([]string, error)
	SaveArticle(ctx context.Context, article domain.Article) (int64, error)

	FetchUnscoredArticles(ctx context.Context, limit int) ([]domain.Article, error)
	SaveScore(ctx context.Context, articleID int64, score domain.Score) error
	FetchArticlesAboveThreshold(ctx context.Context, minScore int, limit int) ([]domain.ScoredArticle, error)

	SavePost(ctx context.Context, post domain.Post) (int64, error)
	CountPostsByStatus(ctx context.Context) (map[domain.PostStatus]int, error)
	FetchPendingPosts(ctx context.Context, spec domain.Specialization) ([]domain.Post, error)
	ApplyModerationDecision(ctx context.Context, postID int64, expected domain.PostStatus, decision domain.ModerationDecision) error
	FetchApprovedPosts(ctx context.Context, types []domain.ContentType) ([]domain.Post, error)
	MarkPublished(ctx context.Context, postID int64, messageRef string) error
	MarkPublishError(ctx context.Context, postID int64) error
	FetchPostsInRevision(ctx context.Context) ([]domain.Post, error)
	ApplyRevisedContent(ctx context.Context, postID int64, newContent string) error
}

// Publisher delivers a formatted post to its distribution channel and
// returns an external message reference.
type Publisher interface {
	Publish(ctx context.Context, post domain.Post) (string, error)
}

// ModerationUI delivers a pending post to a human moderator.
// Decisions come back asynchronously through the moderation use case.
type ModerationUI interface {
	SendForReview(ctx context.Context, post domain.Post, position, total int) error
}

// Scheduler triggers each stage on a cadence.
type Scheduler interface {
	Schedule(spec string, job func(time.Time)) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Pacer enforces a cooperative delay between outbound sends. Wait
// blocks until the next send is allowed or the context is cancelled.
type Pacer interface {
	Wait(ctx context.Context) error
}
