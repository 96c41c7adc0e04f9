package pipeline

import (
	"fmt"
	"strings"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
	"MedDigest/internal/textutil"
)

// section identifies one slot of a post template.
type section string

const (
	secSummary      section = "summary"
	secFindings     section = "findings"
	secPractical    section = "practical"
	secProblem      section = "problem"
	secSolution     section = "solution"
	secAlgorithm    section = "algorithm"
	secNews         section = "news"
	secContext      section = "context"
	secSignificance section = "significance"
	secCase         section = "case"
	secDiagnosis    section = "diagnosis"
	secTreatment    section = "treatment"
	secOutcome      section = "outcome"
)

// sectionLabels render a section heading inside the post body.
var sectionLabels = map[section]string{
	secSummary:      "Суть",
	secFindings:     "Ключевые выводы",
	secPractical:    "Практическое применение",
	secProblem:      "Проблема",
	secSolution:     "Решение",
	secAlgorithm:    "Алгоритм действий",
	secNews:         "Новость",
	secContext:      "Контекст",
	secSignificance: "Значение",
	secCase:         "Случай",
	secDiagnosis:    "Диагноз",
	secTreatment:    "Лечение",
	secOutcome:      "Исход",
}

// templates define the ordered section list per content type.
var templates = map[domain.ContentType][]section{
	domain.TypeResearch:  {secSummary, secFindings, secPractical},
	domain.TypeGuideline: {secProblem, secSolution, secAlgorithm},
	domain.TypeNews:      {secNews, secContext, secSignificance},
	domain.TypeCase:      {secCase, secDiagnosis, secTreatment, secOutcome},
}

const maxSectionItems = 3

// Generator fills a content-type template with sentences extracted
// from the article body and validates the assembled length.
type Generator struct {
	cfg       config.GenerationConfig
	minLength int
	maxLength int
}

// NewGenerator wires the section keyword dictionaries and the post
// length gate.
func NewGenerator(cfg config.GenerationConfig, pipeline config.PipelineConfig) *Generator {
	return &Generator{
		cfg:       cfg,
		minLength: pipeline.MinPostLength,
		maxLength: pipeline.MaxPostLength,
	}
}

// Generate builds a pending post from a scored article. A
// ValidationError means the assembled body failed the length gate;
// the caller counts it as skipped, not errored.
func (g *Generator) Generate(article domain.Article, score domain.Score) (domain.Post, error) {
	// Untyped articles keep their type but render with the research
	// layout.
	layout := article.ContentType
	if _, ok := templates[layout]; !ok {
		layout = domain.TypeResearch
	}

	sentences := textutil.Sentences(article.Body)
	body := g.assembleBody(layout, sentences)

	length := len([]rune(body))
	if length < g.minLength || length > g.maxLength {
		return domain.Post{}, &domain.ValidationError{
			Reason: fmt.Sprintf("post body length %d outside [%d, %d]", length, g.minLength, g.maxLength),
		}
	}

	return domain.Post{
		ArticleID:      article.ID,
		Specialization: article.Specialization,
		ContentType:    article.ContentType,
		Title:          textutil.AdaptTitle(article.Title),
		Body:           body,
		Summary:        summarize(sentences),
		KeyPoints:      g.extract(sentences, secFindings),
		Hashtags:       g.hashtags(article.Specialization, article.ContentType),
		SourceName:     article.SourceName,
		SourceURL:      article.URL,
		Score:          score.Total,
		WordCount:      textutil.CountWords(body),
		ReadingTime:    textutil.ReadingTime(body),
		Status:         domain.StatusPending,
		Cycle:          1,
	}, nil
}

func (g *Generator) assembleBody(contentType domain.ContentType, sentences []string) string {
	var b strings.Builder
	for i, sec := range templates[contentType] {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(sectionLabels[sec])
		b.WriteString(":\n")

		if sec == secSummary {
			b.WriteString(summarize(sentences))
			continue
		}
		items := g.extract(sentences, sec)
		if len(items) == 0 {
			b.WriteString(g.cfg.FallbackText)
			continue
		}
		for j, item := range items {
			if j > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + item + ".")
		}
	}
	return b.String()
}

// summarize takes the first one to three sentences.
func summarize(sentences []string) string {
	n := len(sentences)
	if n == 0 {
		return ""
	}
	if n > 3 {
		n = 3
	}
	return strings.Join(sentences[:n], ". ") + "."
}

// extract picks sentences containing any keyword of the section's
// configured set, capped at three items.
func (g *Generator) extract(sentences []string, sec section) []string {
	keywords := g.cfg.SectionKeywords[string(sec)]
	if len(keywords) == 0 {
		return nil
	}

	var items []string
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				items = append(items, sentence)
				break
			}
		}
		if len(items) == maxSectionItems {
			break
		}
	}
	return items
}

func (g *Generator) hashtags(spec domain.Specialization, contentType domain.ContentType) []string {
	tags := make([]string, 0, len(g.cfg.BaseHashtags)+3)
	tags = append(tags, g.cfg.BaseHashtags...)
	tags = append(tags, "#"+string(spec))
	tags = append(tags, g.cfg.TypeHashtags[string(contentType)]...)
	return tags
}
