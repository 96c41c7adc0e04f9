package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"MedDigest/internal/domain"
	"MedDigest/internal/moderation"
	"MedDigest/internal/ports"
)

// PostgresRepository persists pipeline state into Postgres. Every
// write is idempotent so a re-run after a crash converges to the same
// state.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveDocument stores a raw document; replays are no-ops by URL.
func (r *PostgresRepository) SaveDocument(ctx context.Context, doc domain.Document) error {
	query, args, err := r.builder.
		Insert("documents").
		Columns("url", "title", "body", "specialization", "source_name", "source_tier", "published_at").
		Values(doc.URL, doc.Title, doc.Body, string(doc.Specialization),
			doc.Source.Name, string(doc.Source.TierHint), doc.PublishedAt).
		Suffix("ON CONFLICT (url) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert document: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// FetchUnprocessedDocuments returns documents not yet promoted to
// articles, oldest first.
func (r *PostgresRepository) FetchUnprocessedDocuments(ctx context.Context, limit int) ([]domain.Document, error) {
	query, args, err := r.builder.
		Select("url", "title", "body", "specialization", "source_name", "source_tier", "published_at").
		From("documents d").
		Where("NOT EXISTS (SELECT 1 FROM articles a WHERE a.url = d.url)").
		OrderBy("published_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select documents: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var spec, tier string
		if err := rows.Scan(&doc.URL, &doc.Title, &doc.Body, &spec,
			&doc.Source.Name, &tier, &doc.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.Specialization = domain.Specialization(spec)
		doc.Source.TierHint = domain.SourceTier(tier)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// IsKnownByURL reports whether an article with this URL exists.
func (r *PostgresRepository) IsKnownByURL(ctx context.Context, url string) (bool, error) {
	return r.exists(ctx, sq.Eq{"url": url})
}

// IsKnownByHash reports whether an article with this fingerprint exists.
func (r *PostgresRepository) IsKnownByHash(ctx context.Context, hash string) (bool, error) {
	return r.exists(ctx, sq.Eq{"content_hash": hash})
}

func (r *PostgresRepository) exists(ctx context.Context, pred sq.Eq) (bool, error) {
	query, args, err := r.builder.
		Select("1").
		From("articles").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// RecentTitles returns the most recently ingested article titles.
func (r *PostgresRepository) RecentTitles(ctx context.Context, window int) ([]string, error) {
	query, args, err := r.builder.
		Select("title").
		From("articles").
		OrderBy("processed_at DESC").
		Limit(uint64(window)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent titles: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// SaveArticle upserts the processed article snapshot by URL and
// returns its id.
func (r *PostgresRepository) SaveArticle(ctx context.Context, article domain.Article) (int64, error) {
	query, args, err := r.builder.
		Insert("articles").
		Columns("url", "title", "body", "summary", "content_hash", "language",
			"content_type", "specialization", "source_name", "keywords",
			"word_count", "reading_time", "published_at", "processed_at").
		Values(article.URL, article.Title, article.Body, article.Summary,
			article.ContentHash, string(article.Language), string(article.ContentType),
			string(article.Specialization), article.SourceName, pq.Array(article.Keywords),
			article.WordCount, article.ReadingTime, article.PublishedAt, article.ProcessedAt).
		Suffix(`ON CONFLICT (url) DO UPDATE
            SET body = EXCLUDED.body,
                summary = EXCLUDED.summary,
                content_hash = EXCLUDED.content_hash,
                processed_at = EXCLUDED.processed_at
            RETURNING id`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build upsert article: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert article: %w", err)
	}
	return id, nil
}

const articleColumns = `a.id, a.url, a.title, a.body, a.summary, a.content_hash,
    a.language, a.content_type, a.specialization, a.source_name, a.keywords,
    a.word_count, a.reading_time, a.published_at, a.processed_at`

// FetchUnscoredArticles returns articles without a live score.
func (r *PostgresRepository) FetchUnscoredArticles(ctx context.Context, limit int) ([]domain.Article, error) {
	query, args, err := r.builder.
		Select(articleColumns).
		From("articles a").
		Where("NOT EXISTS (SELECT 1 FROM scores s WHERE s.article_id = a.id)").
		OrderBy("a.processed_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select unscored: %w", err)
	}
	return r.queryArticles(ctx, query, args)
}

// FetchArticlesAboveThreshold returns articles at or above the
// generation gate that have no post yet, each paired with the score
// that cleared the gate.
func (r *PostgresRepository) FetchArticlesAboveThreshold(ctx context.Context, minScore int, limit int) ([]domain.ScoredArticle, error) {
	query, args, err := r.builder.
		Select(articleColumns + `,
    s.scientific, s.relevance, s.practicality, s.breakdown, s.total, s.tier, s.scored_at`).
		From("articles a").
		Join("scores s ON s.article_id = a.id").
		Where(sq.GtOrEq{"s.total": minScore}).
		Where("NOT EXISTS (SELECT 1 FROM posts p WHERE p.article_id = a.id)").
		OrderBy("s.total DESC", "a.processed_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select above threshold: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scored articles: %w", err)
	}
	defer rows.Close()

	var scored []domain.ScoredArticle
	for rows.Next() {
		var sa domain.ScoredArticle
		a := &sa.Article
		s := &sa.Score
		var lang, ctype, spec, tier string
		var breakdown []byte
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Body, &a.Summary, &a.ContentHash,
			&lang, &ctype, &spec, &a.SourceName, pq.Array(&a.Keywords),
			&a.WordCount, &a.ReadingTime, &a.PublishedAt, &a.ProcessedAt,
			&s.Scientific, &s.Relevance, &s.Practicality, &breakdown,
			&s.Total, &tier, &s.ScoredAt); err != nil {
			return nil, fmt.Errorf("scan scored article: %w", err)
		}
		a.Language = domain.Language(lang)
		a.ContentType = domain.ContentType(ctype)
		a.Specialization = domain.Specialization(spec)
		s.Tier = domain.QualityTier(tier)
		if err := json.Unmarshal(breakdown, &s.Breakdown); err != nil {
			return nil, fmt.Errorf("unmarshal breakdown: %w", err)
		}
		scored = append(scored, sa)
	}
	return scored, rows.Err()
}

func (r *PostgresRepository) queryArticles(ctx context.Context, query string, args []interface{}) ([]domain.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		var lang, ctype, spec string
		if err := rows.Scan(&a.ID, &a.URL, &a.Title, &a.Body, &a.Summary, &a.ContentHash,
			&lang, &ctype, &spec, &a.SourceName, pq.Array(&a.Keywords),
			&a.WordCount, &a.ReadingTime, &a.PublishedAt, &a.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Language = domain.Language(lang)
		a.ContentType = domain.ContentType(ctype)
		a.Specialization = domain.Specialization(spec)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// SaveScore replaces the article's score wholesale.
func (r *PostgresRepository) SaveScore(ctx context.Context, articleID int64, score domain.Score) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	query, args, err := r.builder.
		Insert("scores").
		Columns("article_id", "scientific", "relevance", "practicality",
			"breakdown", "total", "tier", "scored_at").
		Values(articleID, score.Scientific, score.Relevance, score.Practicality,
			breakdown, score.Total, string(score.Tier), score.ScoredAt).
		Suffix(`ON CONFLICT (article_id) DO UPDATE
            SET scientific = EXCLUDED.scientific,
                relevance = EXCLUDED.relevance,
                practicality = EXCLUDED.practicality,
                breakdown = EXCLUDED.breakdown,
                total = EXCLUDED.total,
                tier = EXCLUDED.tier,
                scored_at = EXCLUDED.scored_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert score: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// SavePost stores a generated post; replays by article id are no-ops.
func (r *PostgresRepository) SavePost(ctx context.Context, post domain.Post) (int64, error) {
	query, args, err := r.builder.
		Insert("posts").
		Columns("article_id", "specialization", "content_type", "title", "body",
			"summary", "key_points", "hashtags", "source_name", "source_url",
			"score", "word_count", "reading_time", "status", "cycle", "generated_at").
		Values(post.ArticleID, string(post.Specialization), string(post.ContentType),
			post.Title, post.Body, post.Summary, pq.Array(post.KeyPoints),
			pq.Array(post.Hashtags), post.SourceName, post.SourceURL,
			post.Score, post.WordCount, post.ReadingTime, string(post.Status),
			post.Cycle, post.GeneratedAt).
		Suffix(`ON CONFLICT (article_id) DO UPDATE SET article_id = EXCLUDED.article_id
            RETURNING id`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert post: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// CountPostsByStatus reports the moderation queue composition.
func (r *PostgresRepository) CountPostsByStatus(ctx context.Context) (map[domain.PostStatus]int, error) {
	query, args, err := r.builder.
		Select("status", "COUNT(*)").
		From("posts").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count posts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()

	counts := map[domain.PostStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.PostStatus(status)] = n
	}
	return counts, rows.Err()
}

const postColumns = `id, article_id, specialization, content_type, title, body,
    summary, key_points, hashtags, source_name, source_url, score,
    word_count, reading_time, status, cycle, generated_at`

// FetchPendingPosts returns pending posts of one specialization (or
// all when empty), oldest-generated-first.
func (r *PostgresRepository) FetchPendingPosts(ctx context.Context, spec domain.Specialization) ([]domain.Post, error) {
	b := r.builder.
		Select(postColumns).
		From("posts").
		Where(sq.Eq{"status": string(domain.StatusPending)}).
		OrderBy("generated_at ASC")
	if spec != "" {
		b = b.Where(sq.Eq{"specialization": string(spec)})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select pending: %w", err)
	}
	return r.queryPosts(ctx, query, args)
}

// FetchApprovedPosts returns approved posts restricted to the given
// content types, oldest-generated-first.
func (r *PostgresRepository) FetchApprovedPosts(ctx context.Context, types []domain.ContentType) ([]domain.Post, error) {
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}

	query, args, err := r.builder.
		Select(postColumns).
		From("posts").
		Where(sq.Eq{"status": string(domain.StatusApproved)}).
		Where(sq.Eq{"content_type": names}).
		OrderBy("generated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select approved: %w", err)
	}
	return r.queryPosts(ctx, query, args)
}

// FetchPostsInRevision returns posts waiting for edited content.
func (r *PostgresRepository) FetchPostsInRevision(ctx context.Context) ([]domain.Post, error) {
	query, args, err := r.builder.
		Select(postColumns).
		From("posts").
		Where(sq.Eq{"status": string(domain.StatusRevision)}).
		OrderBy("generated_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select revision: %w", err)
	}
	return r.queryPosts(ctx, query, args)
}

func (r *PostgresRepository) queryPosts(ctx context.Context, query string, args []interface{}) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		var spec, ctype, status string
		if err := rows.Scan(&p.ID, &p.ArticleID, &spec, &ctype, &p.Title, &p.Body,
			&p.Summary, pq.Array(&p.KeyPoints), pq.Array(&p.Hashtags),
			&p.SourceName, &p.SourceURL, &p.Score, &p.WordCount, &p.ReadingTime,
			&status, &p.Cycle, &p.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Specialization = domain.Specialization(spec)
		p.ContentType = domain.ContentType(ctype)
		p.Status = domain.PostStatus(status)
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ApplyModerationDecision commits the transition only when the
// persisted status still matches the state the decision was computed
// against. A stale or replayed decision fails with
// InvalidTransitionError and mutates nothing.
func (r *PostgresRepository) ApplyModerationDecision(ctx context.Context, postID int64, expected domain.PostStatus, decision domain.ModerationDecision) error {
	next, err := moderation.Transition(expected, decision.Kind)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decision tx: %w", err)
	}
	defer tx.Rollback()

	update, args, err := r.builder.
		Update("posts").
		Set("status", string(next)).
		Where(sq.Eq{"id": postID, "status": string(expected)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	res, err := tx.ExecContext(ctx, update, args...)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, lookupErr := r.currentStatus(ctx, tx, postID)
		if lookupErr != nil {
			return lookupErr
		}
		return &domain.InvalidTransitionError{From: current, Decision: decision.Kind}
	}

	insert, args, err := r.builder.
		Insert("moderation_decisions").
		Columns("post_id", "cycle", "kind", "comment", "decided_at").
		Values(postID, sq.Expr("(SELECT cycle FROM posts WHERE id = ?)", postID),
			string(decision.Kind), decision.Comment, decision.At).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert decision: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decision: %w", err)
	}
	return nil
}

func (r *PostgresRepository) currentStatus(ctx context.Context, tx *sql.Tx, postID int64) (domain.PostStatus, error) {
	query, args, err := r.builder.
		Select("status").
		From("posts").
		Where(sq.Eq{"id": postID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build select status: %w", err)
	}

	var status string
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&status); err != nil {
		return "", fmt.Errorf("lookup status: %w", err)
	}
	return domain.PostStatus(status), nil
}

// MarkPublished records the delivery reference; guarded so a post is
// published at most once.
func (r *PostgresRepository) MarkPublished(ctx context.Context, postID int64, messageRef string) error {
	return r.finishPublish(ctx, postID, domain.StatusPublished, messageRef)
}

// MarkPublishError parks a failed dispatch until the next run.
func (r *PostgresRepository) MarkPublishError(ctx context.Context, postID int64) error {
	return r.finishPublish(ctx, postID, domain.StatusError, "")
}

func (r *PostgresRepository) finishPublish(ctx context.Context, postID int64, status domain.PostStatus, messageRef string) error {
	b := r.builder.
		Update("posts").
		Set("status", string(status)).
		Where(sq.Eq{"id": postID, "status": string(domain.StatusApproved)})
	if status == domain.StatusPublished {
		b = b.Set("published_at", sq.Expr("NOW()")).Set("message_ref", messageRef)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build finish publish: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("finish publish: %w", err)
	}
	return nil
}

// ApplyRevisedContent replaces the body and re-enters pending as a
// new moderation cycle. Prior decisions are kept for audit.
func (r *PostgresRepository) ApplyRevisedContent(ctx context.Context, postID int64, newContent string) error {
	query, args, err := r.builder.
		Update("posts").
		Set("body", newContent).
		Set("status", string(domain.StatusPending)).
		Set("cycle", sq.Expr("cycle + 1")).
		Where(sq.Eq{"id": postID, "status": string(domain.StatusRevision)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build apply revision: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("apply revision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var status string
		lookup, lookupArgs, err := r.builder.
			Select("status").From("posts").Where(sq.Eq{"id": postID}).ToSql()
		if err != nil {
			return fmt.Errorf("build select status: %w", err)
		}
		if err := r.db.QueryRowContext(ctx, lookup, lookupArgs...).Scan(&status); err != nil {
			return fmt.Errorf("lookup status: %w", err)
		}
		return &domain.InvalidTransitionError{From: domain.PostStatus(status), Decision: domain.DecisionRevision}
	}
	return nil
}
