package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"MedDigest/internal/domain"
)

const (
	defaultTimezone    = "UTC"
	configPathEnv      = "MEDDIGEST_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	publishTokenEnv    = "PUBLISHING_BOT_TOKEN"
	moderationTokenEnv = "MODERATION_BOT_TOKEN"
	moderatorChatEnv   = "MODERATOR_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database       DatabaseConfig       `yaml:"database"`
	Scheduler      SchedulerConfig      `yaml:"scheduler"`
	Feeds          []FeedConfig         `yaml:"feeds"`
	Telegram       TelegramConfig       `yaml:"telegram"`
	Pipeline       PipelineConfig       `yaml:"pipeline"`
	Classification ClassificationConfig `yaml:"classification"`
	Scoring        ScoringConfig        `yaml:"scoring"`
	Generation     GenerationConfig     `yaml:"generation"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// DatabaseConfig describes Postgres connection details.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines cron specs for every pipeline stage.
type SchedulerConfig struct {
	Timezone  string         `yaml:"timezone"`
	Process   string         `yaml:"process"`
	Score     string         `yaml:"score"`
	Generate  string         `yaml:"generate"`
	Moderate  string         `yaml:"moderate"`
	Publish   string         `yaml:"publish"`
	Revisions string         `yaml:"revisions"`
	location  *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FeedConfig describes one upstream RSS source.
type FeedConfig struct {
	Name           string `yaml:"name"`
	URL            string `yaml:"url"`
	Tier           string `yaml:"tier"`
	Specialization string `yaml:"specialization"`
}

// TelegramConfig wires publishing and moderation bots.
type TelegramConfig struct {
	PublishBotToken    string            `yaml:"publishBotToken"`
	ModerationBotToken string            `yaml:"moderationBotToken"`
	ModeratorChatID    string            `yaml:"moderatorChatId"`
	Channels           map[string]string `yaml:"channels"`
}

// PipelineConfig groups batch sizes, quality gates and pacing.
type PipelineConfig struct {
	BatchSize                 int     `yaml:"batchSize"`
	DuplicateThreshold        float64 `yaml:"duplicateThreshold"`
	TitleWindow               int     `yaml:"titleWindow"`
	MinContentLength          int     `yaml:"minContentLength"`
	MaxContentLength          int     `yaml:"maxContentLength"`
	GenerationThreshold       int     `yaml:"generationThreshold"`
	MinPostLength             int     `yaml:"minPostLength"`
	MaxPostLength             int     `yaml:"maxPostLength"`
	MaxPostsPerSpecialization int     `yaml:"maxPostsPerSpecialization"`
	ModerationPaceSeconds     int     `yaml:"moderationPaceSeconds"`
	PublishPaceSeconds        int     `yaml:"publishPaceSeconds"`
}

// ModerationPace is the minimum delay between moderation sends.
func (p PipelineConfig) ModerationPace() time.Duration {
	return time.Duration(p.ModerationPaceSeconds) * time.Second
}

// PublishPace is the minimum delay between publish dispatches.
func (p PipelineConfig) PublishPace() time.Duration {
	return time.Duration(p.PublishPaceSeconds) * time.Second
}

// ContentTypeKeywords binds one content type to its trigger words.
// Slice order is match priority.
type ContentTypeKeywords struct {
	Type     string   `yaml:"type"`
	Keywords []string `yaml:"keywords"`
}

// ClassificationConfig carries the classifier dictionaries.
type ClassificationConfig struct {
	ContentTypes []ContentTypeKeywords `yaml:"contentTypes"`
	// SpecializationPriority fixes iteration order across
	// specializations so tie-breaks are reproducible.
	SpecializationPriority []string            `yaml:"specializationPriority"`
	SpecializationKeywords map[string][]string `yaml:"specializationKeywords"`
	GenericSpecializations []string            `yaml:"genericSpecializations"`
}

// ScoringWeights are the fixed sub-score weights.
type ScoringWeights struct {
	Scientific   float64 `yaml:"scientific"`
	Relevance    float64 `yaml:"relevance"`
	Practicality float64 `yaml:"practicality"`
}

// SourceTiers lists curated source substrings per quality tier.
type SourceTiers struct {
	A []string `yaml:"a"`
	B []string `yaml:"b"`
	C []string `yaml:"c"`
}

// EvidenceKeywords drive the evidence-level signal.
type EvidenceKeywords struct {
	Systematic []string `yaml:"systematic"`
	RCT        []string `yaml:"rct"`
	Cohort     []string `yaml:"cohort"`
	Guideline  []string `yaml:"guideline"`
	Study      []string `yaml:"study"`
}

// ScoringConfig carries every scorer dictionary and threshold.
type ScoringConfig struct {
	Weights        ScoringWeights   `yaml:"weights"`
	SourceTiers    SourceTiers      `yaml:"sourceTiers"`
	TrustedSources []string         `yaml:"trustedSources"`
	PeerReviewHint []string         `yaml:"peerReviewHint"`
	Evidence       EvidenceKeywords `yaml:"evidence"`
	// Methodology and the practicality signals are keyword families:
	// one point per family with any hit.
	Methodology           [][]string `yaml:"methodology"`
	HotTopics             []string   `yaml:"hotTopics"`
	KeywordBonusThreshold int        `yaml:"keywordBonusThreshold"`
	ClinicalSignificance  []string   `yaml:"clinicalSignificance"`
	ClinicalApplicability [][]string `yaml:"clinicalApplicability"`
	RecommendationClarity [][]string `yaml:"recommendationClarity"`
	PracticeAccessibility [][]string `yaml:"practiceAccessibility"`
}

// GenerationConfig carries template keyword sets and hashtags.
type GenerationConfig struct {
	SectionKeywords map[string][]string `yaml:"sectionKeywords"`
	BaseHashtags    []string            `yaml:"baseHashtags"`
	TypeHashtags    map[string][]string `yaml:"typeHashtags"`
	FallbackText    string              `yaml:"fallbackText"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate reports the first fatal configuration gap. Stages check it
// before processing any item.
func (c Config) Validate() error {
	w := c.Scoring.Weights
	if w.Scientific <= 0 || w.Relevance <= 0 || w.Practicality <= 0 {
		return &domain.ConfigError{Field: "scoring.weights"}
	}
	if len(c.Scoring.SourceTiers.A) == 0 && len(c.Scoring.SourceTiers.B) == 0 {
		return &domain.ConfigError{Field: "scoring.sourceTiers"}
	}
	if len(c.Classification.ContentTypes) == 0 {
		return &domain.ConfigError{Field: "classification.contentTypes"}
	}
	if len(c.Classification.SpecializationPriority) == 0 {
		return &domain.ConfigError{Field: "classification.specializationPriority"}
	}
	if len(c.Classification.SpecializationKeywords) == 0 {
		return &domain.ConfigError{Field: "classification.specializationKeywords"}
	}
	if c.Pipeline.GenerationThreshold <= 0 {
		return &domain.ConfigError{Field: "pipeline.generationThreshold"}
	}
	if c.Pipeline.MinPostLength <= 0 || c.Pipeline.MaxPostLength <= c.Pipeline.MinPostLength {
		return &domain.ConfigError{Field: "pipeline post length bounds"}
	}
	if c.Pipeline.DuplicateThreshold <= 0 || c.Pipeline.DuplicateThreshold > 1 {
		return &domain.ConfigError{Field: "pipeline.duplicateThreshold"}
	}
	if len(c.Generation.SectionKeywords) == 0 {
		return &domain.ConfigError{Field: "generation.sectionKeywords"}
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(publishTokenEnv); v != "" {
		c.Telegram.PublishBotToken = v
	}
	if v := os.Getenv(moderationTokenEnv); v != "" {
		c.Telegram.ModerationBotToken = v
	}
	if v := os.Getenv(moderatorChatEnv); v != "" {
		c.Telegram.ModeratorChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.Process != "" {
		base.Scheduler.Process = override.Scheduler.Process
	}
	if override.Scheduler.Score != "" {
		base.Scheduler.Score = override.Scheduler.Score
	}
	if override.Scheduler.Generate != "" {
		base.Scheduler.Generate = override.Scheduler.Generate
	}
	if override.Scheduler.Moderate != "" {
		base.Scheduler.Moderate = override.Scheduler.Moderate
	}
	if override.Scheduler.Publish != "" {
		base.Scheduler.Publish = override.Scheduler.Publish
	}
	if override.Scheduler.Revisions != "" {
		base.Scheduler.Revisions = override.Scheduler.Revisions
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if override.Telegram.PublishBotToken != "" {
		base.Telegram.PublishBotToken = override.Telegram.PublishBotToken
	}
	if override.Telegram.ModerationBotToken != "" {
		base.Telegram.ModerationBotToken = override.Telegram.ModerationBotToken
	}
	if override.Telegram.ModeratorChatID != "" {
		base.Telegram.ModeratorChatID = override.Telegram.ModeratorChatID
	}
	if len(override.Telegram.Channels) > 0 {
		base.Telegram.Channels = override.Telegram.Channels
	}

	base.Pipeline = mergePipeline(base.Pipeline, override.Pipeline)

	if len(override.Classification.ContentTypes) > 0 {
		base.Classification.ContentTypes = override.Classification.ContentTypes
	}
	if len(override.Classification.SpecializationPriority) > 0 {
		base.Classification.SpecializationPriority = override.Classification.SpecializationPriority
	}
	if len(override.Classification.SpecializationKeywords) > 0 {
		base.Classification.SpecializationKeywords = override.Classification.SpecializationKeywords
	}
	if len(override.Classification.GenericSpecializations) > 0 {
		base.Classification.GenericSpecializations = override.Classification.GenericSpecializations
	}

	base.Scoring = mergeScoring(base.Scoring, override.Scoring)

	if len(override.Generation.SectionKeywords) > 0 {
		base.Generation.SectionKeywords = override.Generation.SectionKeywords
	}
	if len(override.Generation.BaseHashtags) > 0 {
		base.Generation.BaseHashtags = override.Generation.BaseHashtags
	}
	if len(override.Generation.TypeHashtags) > 0 {
		base.Generation.TypeHashtags = override.Generation.TypeHashtags
	}
	if override.Generation.FallbackText != "" {
		base.Generation.FallbackText = override.Generation.FallbackText
	}

	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	return base
}

func mergePipeline(base, override PipelineConfig) PipelineConfig {
	if override.BatchSize > 0 {
		base.BatchSize = override.BatchSize
	}
	if override.DuplicateThreshold > 0 {
		base.DuplicateThreshold = override.DuplicateThreshold
	}
	if override.TitleWindow > 0 {
		base.TitleWindow = override.TitleWindow
	}
	if override.MinContentLength > 0 {
		base.MinContentLength = override.MinContentLength
	}
	if override.MaxContentLength > 0 {
		base.MaxContentLength = override.MaxContentLength
	}
	if override.GenerationThreshold > 0 {
		base.GenerationThreshold = override.GenerationThreshold
	}
	if override.MinPostLength > 0 {
		base.MinPostLength = override.MinPostLength
	}
	if override.MaxPostLength > 0 {
		base.MaxPostLength = override.MaxPostLength
	}
	if override.MaxPostsPerSpecialization > 0 {
		base.MaxPostsPerSpecialization = override.MaxPostsPerSpecialization
	}
	if override.ModerationPaceSeconds > 0 {
		base.ModerationPaceSeconds = override.ModerationPaceSeconds
	}
	if override.PublishPaceSeconds > 0 {
		base.PublishPaceSeconds = override.PublishPaceSeconds
	}
	return base
}

func mergeScoring(base, override ScoringConfig) ScoringConfig {
	if override.Weights.Scientific > 0 {
		base.Weights = override.Weights
	}
	if len(override.SourceTiers.A) > 0 || len(override.SourceTiers.B) > 0 || len(override.SourceTiers.C) > 0 {
		base.SourceTiers = override.SourceTiers
	}
	if len(override.TrustedSources) > 0 {
		base.TrustedSources = override.TrustedSources
	}
	if len(override.PeerReviewHint) > 0 {
		base.PeerReviewHint = override.PeerReviewHint
	}
	if len(override.Evidence.Systematic) > 0 {
		base.Evidence = override.Evidence
	}
	if len(override.Methodology) > 0 {
		base.Methodology = override.Methodology
	}
	if len(override.HotTopics) > 0 {
		base.HotTopics = override.HotTopics
	}
	if override.KeywordBonusThreshold > 0 {
		base.KeywordBonusThreshold = override.KeywordBonusThreshold
	}
	if len(override.ClinicalSignificance) > 0 {
		base.ClinicalSignificance = override.ClinicalSignificance
	}
	if len(override.ClinicalApplicability) > 0 {
		base.ClinicalApplicability = override.ClinicalApplicability
	}
	if len(override.RecommendationClarity) > 0 {
		base.RecommendationClarity = override.RecommendationClarity
	}
	if len(override.PracticeAccessibility) > 0 {
		base.PracticeAccessibility = override.PracticeAccessibility
	}
	return base
}
