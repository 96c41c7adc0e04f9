package pipeline

import (
	"testing"
	"time"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
)

var scoreNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestScoreDeterministicBreakdown(t *testing.T) {
	t.Parallel()

	s := NewScorer(config.Load().Scoring)

	article := domain.Article{
		ID:         1,
		SourceName: "NEJM",
		Body: "This randomized controlled trial used rigorous methods and statistical analysis. " +
			"Recommendations include a specific dose regimen. " +
			"The protocol is recommended and simple to apply in clinical practice.",
		ContentType: domain.TypeResearch,
		Keywords:    []string{"trial", "dose", "regimen", "protocol", "methods", "practice"},
		PublishedAt: scoreNow.Add(-3 * 24 * time.Hour),
	}

	got := s.Score(article, scoreNow)

	if got.Scientific != 9 {
		t.Fatalf("scientific: got %d, want 9 (breakdown %+v)", got.Scientific, got.Breakdown)
	}
	if got.Relevance != 6 {
		t.Fatalf("relevance: got %d, want 6 (breakdown %+v)", got.Relevance, got.Breakdown)
	}
	if got.Practicality != 4 {
		t.Fatalf("practicality: got %d, want 4 (breakdown %+v)", got.Practicality, got.Breakdown)
	}
	if got.Total != 20 {
		t.Fatalf("total: got %d, want 20", got.Total)
	}
	if got.Tier != domain.QualityA {
		t.Fatalf("tier: got %s, want A", got.Tier)
	}

	again := s.Score(article, scoreNow)
	if again != got {
		t.Fatalf("score not reproducible: %+v vs %+v", again, got)
	}
}

func TestScoreEmptySignals(t *testing.T) {
	t.Parallel()

	s := NewScorer(config.Load().Scoring)

	article := domain.Article{
		SourceName:  "unknown blog nobody heard of",
		Body:        "короткий текст без сигналов",
		ContentType: domain.TypeGeneral,
		PublishedAt: scoreNow.Add(-365 * 24 * time.Hour),
	}

	got := s.Score(article, scoreNow)
	if got.Tier != domain.QualityD {
		t.Fatalf("tier: got %s, want D (total %d)", got.Tier, got.Total)
	}
	if got.Total < 0 || got.Total > 25 {
		t.Fatalf("total out of range: %d", got.Total)
	}
}

func TestFreshnessBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		age  time.Duration
		want int
	}{
		{3 * 24 * time.Hour, 3},
		{7 * 24 * time.Hour, 3},
		{20 * 24 * time.Hour, 2},
		{60 * 24 * time.Hour, 1},
		{200 * 24 * time.Hour, 0},
	}

	for _, tc := range cases {
		if got := freshness(scoreNow, scoreNow.Add(-tc.age)); got != tc.want {
			t.Fatalf("age %v: got %d, want %d", tc.age, got, tc.want)
		}
	}
}

func TestEvidenceLevelOrder(t *testing.T) {
	t.Parallel()

	s := NewScorer(config.Load().Scoring)

	// Cohort signals are checked before guideline signals.
	body := "a prospective cohort study informing the new guideline"
	if got := s.evidenceLevel(domain.TypeGeneral, body); got != 1 {
		t.Fatalf("cohort+guideline body: got %d, want 1", got)
	}

	if got := s.evidenceLevel(domain.TypeGuideline, "no evidence keywords here"); got != 2 {
		t.Fatalf("guideline content type: got %d, want 2", got)
	}
	if got := s.evidenceLevel(domain.TypeResearch, "no evidence keywords here"); got != 1 {
		t.Fatalf("research content type: got %d, want 1", got)
	}
	if got := s.evidenceLevel(domain.TypeGeneral, "nothing relevant"); got != 0 {
		t.Fatalf("no signals: got %d, want 0", got)
	}
}

func TestTotalScoreNormalization(t *testing.T) {
	t.Parallel()

	s := NewScorer(config.Load().Scoring)

	cases := []struct {
		scientific, relevance, practicality int
		wantTotal                           int
		wantTier                            domain.QualityTier
	}{
		{8, 6, 5, 19, domain.QualityB},
		{10, 8, 7, 25, domain.QualityA},
		{0, 0, 0, 0, domain.QualityD},
	}

	for _, tc := range cases {
		got := s.totalScore(tc.scientific, tc.relevance, tc.practicality)
		if got != tc.wantTotal {
			t.Fatalf("totalScore(%d,%d,%d): got %d, want %d",
				tc.scientific, tc.relevance, tc.practicality, got, tc.wantTotal)
		}
		if tier := qualityTier(got); tier != tc.wantTier {
			t.Fatalf("tier for total %d: got %s, want %s", got, tier, tc.wantTier)
		}
	}
}

func TestQualityTierBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		total int
		want  domain.QualityTier
	}{
		{25, domain.QualityA},
		{20, domain.QualityA},
		{19, domain.QualityB},
		{15, domain.QualityB},
		{14, domain.QualityC},
		{10, domain.QualityC},
		{9, domain.QualityD},
		{0, domain.QualityD},
	}

	for _, tc := range cases {
		if got := qualityTier(tc.total); got != tc.want {
			t.Fatalf("total %d: got %s, want %s", tc.total, got, tc.want)
		}
	}
}
