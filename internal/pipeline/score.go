package pipeline

import (
	"math"
	"strings"
	"time"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
)

const (
	maxScientific   = 10
	maxRelevance    = 8
	maxPracticality = 7
	scoreScale      = 25
)

// Scorer computes the deterministic 0-25 quality score. It is a pure
// function of the article fields and the configured dictionaries;
// absent signals contribute 0 and scoring never fails.
type Scorer struct {
	cfg config.ScoringConfig
}

// NewScorer builds a scorer from configured weights and dictionaries.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score assesses one article. Recomputation with identical inputs
// yields an identical Score.
func (s *Scorer) Score(article domain.Article, now time.Time) domain.Score {
	lowerBody := strings.ToLower(article.Body)

	breakdown := domain.ScoreBreakdown{
		SourceQuality:         s.sourceQuality(article.SourceName),
		EvidenceLevel:         s.evidenceLevel(article.ContentType, lowerBody),
		PeerReview:            s.peerReview(article.SourceName, lowerBody),
		Methodology:           countFamilies(lowerBody, s.cfg.Methodology, 3),
		Freshness:             freshness(now, article.PublishedAt),
		TopicalRelevance:      s.topicalRelevance(lowerBody, article.Keywords),
		ClinicalSignificance:  countHits(lowerBody, s.cfg.ClinicalSignificance, 2),
		ClinicalApplicability: countFamilies(lowerBody, s.cfg.ClinicalApplicability, 3),
		RecommendationClarity: countFamilies(lowerBody, s.cfg.RecommendationClarity, 2),
		PracticeAccessibility: countFamilies(lowerBody, s.cfg.PracticeAccessibility, 2),
	}

	scientific := capAt(breakdown.SourceQuality+breakdown.EvidenceLevel+
		breakdown.PeerReview+breakdown.Methodology, maxScientific)
	relevance := capAt(breakdown.Freshness+breakdown.TopicalRelevance+
		breakdown.ClinicalSignificance, maxRelevance)
	practicality := capAt(breakdown.ClinicalApplicability+breakdown.RecommendationClarity+
		breakdown.PracticeAccessibility, maxPracticality)

	total := s.totalScore(scientific, relevance, practicality)

	return domain.Score{
		Scientific:   scientific,
		Relevance:    relevance,
		Practicality: practicality,
		Breakdown:    breakdown,
		Total:        total,
		Tier:         qualityTier(total),
		ScoredAt:     now,
	}
}

// totalScore normalizes the weighted sum against the theoretical
// weighted maximum and scales to 25.
func (s *Scorer) totalScore(scientific, relevance, practicality int) int {
	w := s.cfg.Weights
	weighted := float64(scientific)*w.Scientific +
		float64(relevance)*w.Relevance +
		float64(practicality)*w.Practicality
	maxWeighted := float64(maxScientific)*w.Scientific +
		float64(maxRelevance)*w.Relevance +
		float64(maxPracticality)*w.Practicality

	return int(math.Round(weighted / maxWeighted * scoreScale))
}

func qualityTier(total int) domain.QualityTier {
	switch {
	case total >= 20:
		return domain.QualityA
	case total >= 15:
		return domain.QualityB
	case total >= 10:
		return domain.QualityC
	default:
		return domain.QualityD
	}
}

func (s *Scorer) sourceQuality(sourceName string) int {
	lower := strings.ToLower(sourceName)
	if matchesAny(lower, s.cfg.SourceTiers.A) {
		return 3
	}
	if matchesAny(lower, s.cfg.SourceTiers.B) {
		return 2
	}
	return 1
}

// evidenceLevel checks study-design signals in fixed order; the
// first matching class determines the points.
func (s *Scorer) evidenceLevel(contentType domain.ContentType, lowerBody string) int {
	ev := s.cfg.Evidence
	switch {
	case containsAny(lowerBody, ev.Systematic):
		return 2
	case containsAny(lowerBody, ev.RCT):
		return 2
	case containsAny(lowerBody, ev.Cohort):
		return 1
	case contentType == domain.TypeGuideline || containsAny(lowerBody, ev.Guideline):
		return 2
	case contentType == domain.TypeResearch || containsAny(lowerBody, ev.Study):
		return 1
	default:
		return 0
	}
}

func (s *Scorer) peerReview(sourceName, lowerBody string) int {
	if matchesAny(strings.ToLower(sourceName), s.cfg.TrustedSources) {
		return 2
	}
	if containsAny(lowerBody, s.cfg.PeerReviewHint) {
		return 1
	}
	return 0
}

func freshness(now, published time.Time) int {
	age := now.Sub(published)
	switch {
	case age <= 7*24*time.Hour:
		return 3
	case age <= 30*24*time.Hour:
		return 2
	case age <= 90*24*time.Hour:
		return 1
	default:
		return 0
	}
}

func (s *Scorer) topicalRelevance(lowerBody string, keywords []string) int {
	score := countHits(lowerBody, s.cfg.HotTopics, 3)
	if len(keywords) > s.cfg.KeywordBonusThreshold {
		score++
	}
	return capAt(score, 3)
}

// countHits gives one point per matching keyword, capped.
func countHits(lowerBody string, keywords []string, limit int) int {
	score := 0
	for _, kw := range keywords {
		if strings.Contains(lowerBody, strings.ToLower(kw)) {
			score++
		}
	}
	return capAt(score, limit)
}

// countFamilies gives one point per keyword family with any hit.
func countFamilies(lowerBody string, families [][]string, limit int) int {
	score := 0
	for _, family := range families {
		if containsAny(lowerBody, family) {
			score++
		}
	}
	return capAt(score, limit)
}

func containsAny(lowerBody string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lowerBody, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func matchesAny(lowerName string, sources []string) bool {
	for _, src := range sources {
		if strings.Contains(lowerName, strings.ToLower(src)) {
			return true
		}
	}
	return false
}

func capAt(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}
