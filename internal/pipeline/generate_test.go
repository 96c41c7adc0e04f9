package pipeline

import (
	"errors"
	"strings"
	"testing"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
)

func testGenerator(minLen, maxLen int) *Generator {
	return NewGenerator(config.Load().Generation, config.PipelineConfig{
		MinPostLength: minLen,
		MaxPostLength: maxLen,
	})
}

func researchArticle() domain.Article {
	return domain.Article{
		ID:             7,
		URL:            "https://example.org/study",
		Title:          "1. Новая схема терапии диабета",
		SourceName:     "NEJM",
		ContentType:    domain.TypeResearch,
		Specialization: domain.SpecEndocrinology,
		Body: "Исследование оценивало эффективность новой терапии у взрослых пациентов. " +
			"Показано значительное снижение риска осложнений в основной группе. " +
			"Рекомендуется рассмотреть применение этой схемы в повседневной практике.",
	}
}

func TestGenerateResearchPost(t *testing.T) {
	t.Parallel()

	g := testGenerator(100, 600)
	score := domain.Score{Total: 18, Tier: domain.QualityB}

	post, err := g.Generate(researchArticle(), score)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if post.Title != "Новая схема терапии диабета" {
		t.Fatalf("title not adapted: %q", post.Title)
	}
	if post.Status != domain.StatusPending {
		t.Fatalf("status: got %s, want pending", post.Status)
	}
	if post.Cycle != 1 {
		t.Fatalf("cycle: got %d, want 1", post.Cycle)
	}
	if post.Score != 18 {
		t.Fatalf("score: got %d, want 18", post.Score)
	}
	if post.ArticleID != 7 || post.SourceURL != "https://example.org/study" {
		t.Fatalf("article linkage lost: %+v", post)
	}

	for _, label := range []string{"Суть:", "Ключевые выводы:", "Практическое применение:"} {
		if !strings.Contains(post.Body, label) {
			t.Fatalf("body missing section %q:\n%s", label, post.Body)
		}
	}
	if !strings.Contains(post.Body, "- Показано значительное снижение риска осложнений в основной группе.") {
		t.Fatalf("findings sentence not extracted:\n%s", post.Body)
	}

	wantTags := []string{"#медицина", "#клиническаяпрактика", "#endocrinology", "#исследование"}
	if len(post.Hashtags) != len(wantTags) {
		t.Fatalf("hashtags: got %v, want %v", post.Hashtags, wantTags)
	}
	for i, tag := range wantTags {
		if post.Hashtags[i] != tag {
			t.Fatalf("hashtag %d: got %s, want %s", i, post.Hashtags[i], tag)
		}
	}
}

func TestGenerateRejectsShortBody(t *testing.T) {
	t.Parallel()

	g := testGenerator(200, 600)
	article := researchArticle()
	article.Body = "Мало данных."

	_, err := g.Generate(article, domain.Score{Total: 16})
	if err == nil {
		t.Fatal("expected validation error for short body")
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("unexpected error type: %v", err)
	}
}

func TestGenerateRejectsLongBody(t *testing.T) {
	t.Parallel()

	g := testGenerator(100, 600)
	article := researchArticle()
	article.Body = "Показано " + strings.Repeat("чрезвычайно ", 60) + "важное наблюдение."

	if _, err := g.Generate(article, domain.Score{Total: 16}); err == nil {
		t.Fatal("expected validation error for long body")
	}
}

func TestGenerateUntypedUsesResearchLayout(t *testing.T) {
	t.Parallel()

	g := testGenerator(50, 1000)
	article := researchArticle()
	article.ContentType = domain.TypeGeneral

	post, err := g.Generate(article, domain.Score{Total: 15})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if post.ContentType != domain.TypeGeneral {
		t.Fatalf("content type rewritten: got %s", post.ContentType)
	}
	if !strings.Contains(post.Body, "Суть:") {
		t.Fatalf("research layout not applied:\n%s", post.Body)
	}
}

func TestGenerateCaseTemplate(t *testing.T) {
	t.Parallel()

	g := testGenerator(100, 1000)
	article := researchArticle()
	article.ContentType = domain.TypeCase
	article.Body = "Пациент поступил с жалобами на одышку и слабость при нагрузке. " +
		"По итогам обследования выявлен диагноз хронической сердечной недостаточности. " +
		"Назначена терапия согласно актуальной схеме лечения. " +
		"Отмечено улучшение состояния и стабильный исход наблюдения."

	post, err := g.Generate(article, domain.Score{Total: 17})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	for _, label := range []string{"Случай:", "Диагноз:", "Лечение:", "Исход:"} {
		if !strings.Contains(post.Body, label) {
			t.Fatalf("case template missing %q:\n%s", label, post.Body)
		}
	}
}
