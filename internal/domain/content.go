package domain

import "time"

// Language detected from the body script.
type Language string

const (
	LanguageRU      Language = "ru"
	LanguageEN      Language = "en"
	LanguageUnknown Language = "unknown"
)

// ContentType classifies what kind of material an article carries.
type ContentType string

const (
	TypeResearch  ContentType = "research"
	TypeGuideline ContentType = "guideline"
	TypeNews      ContentType = "news"
	TypeCase      ContentType = "case"
	TypeGeneral   ContentType = "general"
)

// Specialization is the target channel topic for an article or post.
type Specialization string

const (
	SpecCardiology       Specialization = "cardiology"
	SpecEndocrinology    Specialization = "endocrinology"
	SpecPediatrics       Specialization = "pediatrics"
	SpecGastroenterology Specialization = "gastroenterology"
	SpecGynecology       Specialization = "gynecology"
	SpecNeurology        Specialization = "neurology"
	SpecTherapy          Specialization = "therapy"
)

// SourceTier is the curated quality hint for a document source.
type SourceTier string

const (
	TierA SourceTier = "A"
	TierB SourceTier = "B"
	TierC SourceTier = "C"
)

// Source describes where a document came from.
type Source struct {
	Name     string
	TierHint SourceTier
}

// Document is a raw ingested unit before cleaning and classification.
// Immutable once ingested; identified by its source-scoped URL.
type Document struct {
	URL            string
	Title          string
	Body           string
	Specialization Specialization
	PublishedAt    time.Time
	Source         Source
}

// Classification is the Classifier's verdict for a document.
type Classification struct {
	Language       Language
	ContentType    ContentType
	Specialization Specialization
}

// Article is a document after cleaning, classification, and scoring.
// At most one Article exists per unique document.
type Article struct {
	ID             int64
	URL            string
	Title          string
	Body           string
	Summary        string
	ContentHash    string
	Language       Language
	ContentType    ContentType
	Specialization Specialization
	SourceName     string
	Keywords       []string
	WordCount      int
	ReadingTime    int
	PublishedAt    time.Time
	ProcessedAt    time.Time
}

// ScoreBreakdown keeps per-signal components for audit.
type ScoreBreakdown struct {
	SourceQuality         int
	EvidenceLevel         int
	PeerReview            int
	Methodology           int
	Freshness             int
	TopicalRelevance      int
	ClinicalSignificance  int
	ClinicalApplicability int
	RecommendationClarity int
	PracticeAccessibility int
}

// QualityTier grades the normalized total score.
type QualityTier string

const (
	QualityA QualityTier = "A"
	QualityB QualityTier = "B"
	QualityC QualityTier = "C"
	QualityD QualityTier = "D"
)

// Score is the immutable quality assessment of one article.
// Recomputation replaces it wholesale.
type Score struct {
	Scientific   int
	Relevance    int
	Practicality int
	Breakdown    ScoreBreakdown
	Total        int
	Tier         QualityTier
	ScoredAt     time.Time
}

// ScoredArticle pairs an article with the score persisted for it, so
// downstream stages work from the value that passed the quality gate.
type ScoredArticle struct {
	Article Article
	Score   Score
}

// PostStatus enumerates the moderation and publication lifecycle.
type PostStatus string

const (
	StatusPending   PostStatus = "pending"
	StatusApproved  PostStatus = "approved"
	StatusRejected  PostStatus = "rejected"
	StatusRevision  PostStatus = "revision"
	StatusPublished PostStatus = "published"
	StatusError     PostStatus = "error"
)

// DecisionKind is a moderator verdict on a pending post.
type DecisionKind string

const (
	DecisionApprove  DecisionKind = "approve"
	DecisionReject   DecisionKind = "reject"
	DecisionRevision DecisionKind = "revision"
)

// ModerationDecision records one verdict within a moderation cycle.
type ModerationDecision struct {
	Kind    DecisionKind
	At      time.Time
	Comment string
}

// Post is a generated publish candidate. Never deleted, only
// state-transitioned; Cycle counts how many times it re-entered
// pending after revision.
type Post struct {
	ID             int64
	ArticleID      int64
	Specialization Specialization
	ContentType    ContentType
	Title          string
	Body           string
	Summary        string
	KeyPoints      []string
	Hashtags       []string
	SourceName     string
	SourceURL      string
	Score          int
	WordCount      int
	ReadingTime    int
	Status         PostStatus
	Cycle          int
	GeneratedAt    time.Time
	PublishedAt    time.Time
	MessageRef     string
}

// BatchStats reports per-batch outcomes for observability.
type BatchStats struct {
	Processed int
	Skipped   int
	Errored   int
}

// Add folds another stats snapshot into this one.
func (s *BatchStats) Add(other BatchStats) {
	s.Processed += other.Processed
	s.Skipped += other.Skipped
	s.Errored += other.Errored
}
