package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
	"MedDigest/internal/moderation"
	"MedDigest/internal/pipeline"
	"MedDigest/internal/ports"
	"MedDigest/internal/publish"
	"MedDigest/internal/textutil"
)

// JobsDeps wires all collaborators into the batch jobs.
type JobsDeps struct {
	Config     config.Config
	Source     ports.DocumentSource
	Repository ports.Repository
	Dedup      *pipeline.Deduplicator
	Classifier *pipeline.Classifier
	Scorer     *pipeline.Scorer
	Generator  *pipeline.Generator
	Moderation *moderation.Service
	Queue      *moderation.Queue
	Dispatcher *publish.Dispatcher
	Logger     *slog.Logger
}

// Jobs implements every scheduled pipeline stage. Stages only talk to
// each other through repository state; within a batch, items run
// sequentially and one item's failure never aborts the rest.
type Jobs struct {
	cfg        config.Config
	source     ports.DocumentSource
	repo       ports.Repository
	dedup      *pipeline.Deduplicator
	classifier *pipeline.Classifier
	scorer     *pipeline.Scorer
	generator  *pipeline.Generator
	moderation *moderation.Service
	queue      *moderation.Queue
	dispatcher *publish.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewJobs constructs the orchestration component.
func NewJobs(deps JobsDeps) *Jobs {
	return &Jobs{
		cfg:        deps.Config,
		source:     deps.Source,
		repo:       deps.Repository,
		dedup:      deps.Dedup,
		classifier: deps.Classifier,
		scorer:     deps.Scorer,
		generator:  deps.Generator,
		moderation: deps.Moderation,
		queue:      deps.Queue,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// CollectDocuments pulls raw documents from the upstream source and
// persists them for the processing stage.
func (j *Jobs) CollectDocuments(ctx context.Context) (domain.BatchStats, error) {
	var stats domain.BatchStats
	if j.source == nil {
		return stats, nil
	}

	docs, err := j.source.Fetch(ctx, j.cfg.Pipeline.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("fetch documents: %w", err)
	}

	for _, doc := range docs {
		if err := j.repo.SaveDocument(ctx, doc); err != nil {
			stats.Errored++
			j.warn("save document failed", "url", doc.URL, "error", err)
			continue
		}
		stats.Processed++
	}

	j.report("collect", stats)
	return stats, nil
}

// CollectAndProcess runs collection and promotion back to back and
// reports the combined ingest batch.
func (j *Jobs) CollectAndProcess(ctx context.Context) (domain.BatchStats, error) {
	stats, err := j.CollectDocuments(ctx)
	if err != nil {
		return stats, err
	}

	processed, err := j.ProcessDocuments(ctx)
	stats.Add(processed)
	j.report("ingest", stats)
	return stats, err
}

// ProcessDocuments runs the dedup gate, cleaning and classification
// over a bounded batch and promotes survivors to articles.
func (j *Jobs) ProcessDocuments(ctx context.Context) (domain.BatchStats, error) {
	var stats domain.BatchStats
	if err := j.cfg.Validate(); err != nil {
		return stats, err
	}

	docs, err := j.repo.FetchUnprocessedDocuments(ctx, j.cfg.Pipeline.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("fetch unprocessed: %w", err)
	}

	for _, doc := range docs {
		switch err := j.processDocument(ctx, doc); {
		case err == nil:
			stats.Processed++
		case errors.Is(err, domain.ErrDuplicate):
			stats.Skipped++
		case isValidation(err):
			stats.Skipped++
			j.debug("document failed validation", "url", doc.URL, "reason", err)
		default:
			stats.Errored++
			j.warn("process document failed", "url", doc.URL, "error", err)
		}
	}

	j.report("process", stats)
	return stats, nil
}

func (j *Jobs) processDocument(ctx context.Context, doc domain.Document) error {
	dup, err := j.dedup.IsDuplicate(ctx, doc)
	if err != nil {
		return &domain.TransientError{Op: "dedup check", Err: err}
	}
	if dup {
		return domain.ErrDuplicate
	}

	body := textutil.Clean(doc.Body)
	length := len([]rune(body))
	if length < j.cfg.Pipeline.MinContentLength || length > j.cfg.Pipeline.MaxContentLength {
		return &domain.ValidationError{Reason: fmt.Sprintf("content length %d out of bounds", length)}
	}

	classification := j.classifier.Classify(doc)
	hash := textutil.Fingerprint(body)
	sentences := textutil.Sentences(body)

	article := domain.Article{
		URL:            doc.URL,
		Title:          textutil.CleanTitle(doc.Title),
		Body:           body,
		Summary:        firstSentences(sentences, 3),
		ContentHash:    hash,
		Language:       classification.Language,
		ContentType:    classification.ContentType,
		Specialization: classification.Specialization,
		SourceName:     doc.Source.Name,
		Keywords:       textutil.Keywords(body),
		WordCount:      textutil.CountWords(body),
		ReadingTime:    textutil.ReadingTime(body),
		PublishedAt:    doc.PublishedAt,
		ProcessedAt:    j.now(),
	}

	if _, err := j.repo.SaveArticle(ctx, article); err != nil {
		return &domain.TransientError{Op: "save article", Err: err}
	}
	j.dedup.Remember(doc.URL, hash)
	return nil
}

// ScoreArticles computes and persists scores for unscored articles.
// Scoring itself never fails; only repository writes can error.
func (j *Jobs) ScoreArticles(ctx context.Context) (domain.BatchStats, error) {
	var stats domain.BatchStats
	if err := j.cfg.Validate(); err != nil {
		return stats, err
	}

	articles, err := j.repo.FetchUnscoredArticles(ctx, j.cfg.Pipeline.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("fetch unscored: %w", err)
	}

	for _, article := range articles {
		score := j.scorer.Score(article, j.now())
		if err := j.repo.SaveScore(ctx, article.ID, score); err != nil {
			stats.Errored++
			j.warn("save score failed", "article", article.ID, "error", err)
			continue
		}
		stats.Processed++
	}

	j.report("score", stats)
	return stats, nil
}

// GeneratePosts turns qualifying articles into pending posts, capped
// per specialization per run.
func (j *Jobs) GeneratePosts(ctx context.Context) (domain.BatchStats, error) {
	var stats domain.BatchStats
	if err := j.cfg.Validate(); err != nil {
		return stats, err
	}

	scored, err := j.repo.FetchArticlesAboveThreshold(ctx, j.cfg.Pipeline.GenerationThreshold, j.cfg.Pipeline.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("fetch above threshold: %w", err)
	}

	perSpec := map[domain.Specialization]int{}
	for _, sa := range scored {
		article := sa.Article
		if perSpec[article.Specialization] >= j.cfg.Pipeline.MaxPostsPerSpecialization {
			stats.Skipped++
			continue
		}

		// The persisted score cleared the threshold gate; recomputing
		// here could drift across a freshness boundary.
		post, err := j.generator.Generate(article, sa.Score)
		if err != nil {
			if isValidation(err) {
				stats.Skipped++
				j.debug("post failed validation", "article", article.ID, "reason", err)
			} else {
				stats.Errored++
				j.warn("generate post failed", "article", article.ID, "error", err)
			}
			continue
		}

		post.GeneratedAt = j.now()
		if _, err := j.repo.SavePost(ctx, post); err != nil {
			stats.Errored++
			j.warn("save post failed", "article", article.ID, "error", err)
			continue
		}
		perSpec[article.Specialization]++
		stats.Processed++
	}

	j.report("generate", stats)
	return stats, nil
}

// SendForModeration delivers pending posts to the moderator, grouped
// by specialization in the configured priority order.
func (j *Jobs) SendForModeration(ctx context.Context) (domain.BatchStats, error) {
	if counts, err := j.repo.CountPostsByStatus(ctx); err != nil {
		j.warn("queue composition unavailable", "error", err)
	} else {
		j.info("moderation queue",
			"pending", counts[domain.StatusPending],
			"approved", counts[domain.StatusApproved],
			"rejected", counts[domain.StatusRejected],
			"revision", counts[domain.StatusRevision])
	}

	listed := make(map[domain.Specialization]bool, len(j.cfg.Classification.SpecializationPriority))
	specs := make([]domain.Specialization, 0, len(j.cfg.Classification.SpecializationPriority))
	for _, s := range j.cfg.Classification.SpecializationPriority {
		spec := domain.Specialization(s)
		listed[spec] = true
		specs = append(specs, spec)
	}

	// Feeds may declare specializations outside the priority list;
	// their posts still go for review, after the listed ones.
	pending, err := j.repo.FetchPendingPosts(ctx, "")
	if err != nil {
		return domain.BatchStats{}, fmt.Errorf("fetch pending: %w", err)
	}
	for _, post := range pending {
		if !listed[post.Specialization] {
			listed[post.Specialization] = true
			specs = append(specs, post.Specialization)
		}
	}

	stats, err := j.queue.DeliverPending(ctx, specs)
	j.report("moderate", stats)
	return stats, err
}

// ApplyDecision records a moderator verdict for a post.
func (j *Jobs) ApplyDecision(ctx context.Context, postID int64, kind domain.DecisionKind, comment string) error {
	return j.moderation.Decide(ctx, postID, kind, comment)
}

// SubmitRevision closes a revision cycle with edited content.
func (j *Jobs) SubmitRevision(ctx context.Context, postID int64, newContent string) error {
	return j.moderation.Resubmit(ctx, postID, newContent)
}

// PublishApproved dispatches the current time band's approved posts.
func (j *Jobs) PublishApproved(ctx context.Context) (domain.BatchStats, error) {
	stats, err := j.dispatcher.Run(ctx, j.now().In(j.cfg.Scheduler.Location()))
	j.report("publish", stats)
	return stats, err
}

// ReportRevisionQueue logs posts waiting for revised content so the
// editing side sees its backlog.
func (j *Jobs) ReportRevisionQueue(ctx context.Context) (domain.BatchStats, error) {
	var stats domain.BatchStats

	posts, err := j.repo.FetchPostsInRevision(ctx)
	if err != nil {
		return stats, fmt.Errorf("fetch revision queue: %w", err)
	}

	for _, post := range posts {
		j.info("awaiting revision",
			"post", post.ID,
			"specialization", post.Specialization,
			"cycle", post.Cycle,
			"generated", post.GeneratedAt.Format(time.RFC3339))
		stats.Processed++
	}

	j.report("revisions", stats)
	return stats, nil
}

func firstSentences(sentences []string, n int) string {
	if len(sentences) == 0 {
		return ""
	}
	if len(sentences) < n {
		n = len(sentences)
	}
	joined := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			joined += ". "
		}
		joined += sentences[i]
	}
	return joined + "."
}

func isValidation(err error) bool {
	var v *domain.ValidationError
	return errors.As(err, &v)
}

func (j *Jobs) report(stage string, stats domain.BatchStats) {
	j.info("batch finished", "stage", stage,
		"processed", stats.Processed, "skipped", stats.Skipped, "errored", stats.Errored)
}

func (j *Jobs) info(msg string, args ...any) {
	if j.logger != nil {
		j.logger.Info(msg, args...)
	}
}

func (j *Jobs) warn(msg string, args ...any) {
	if j.logger != nil {
		j.logger.Warn(msg, args...)
	}
}

func (j *Jobs) debug(msg string, args ...any) {
	if j.logger != nil {
		j.logger.Debug(msg, args...)
	}
}
