package pipeline

import (
	"strings"
	"unicode"

	"MedDigest/internal/config"
	"MedDigest/internal/domain"
)

// Classifier assigns language, content type and specialization using
// keyword heuristics. All dictionaries come from configuration so
// rules are swappable per deployment.
type Classifier struct {
	contentTypes []config.ContentTypeKeywords
	priority     []string
	keywords     map[string][]string
	generic      map[string]struct{}
}

// NewClassifier builds a classifier from the configured dictionaries.
func NewClassifier(cfg config.ClassificationConfig) *Classifier {
	generic := make(map[string]struct{}, len(cfg.GenericSpecializations))
	for _, g := range cfg.GenericSpecializations {
		generic[strings.ToLower(g)] = struct{}{}
	}
	return &Classifier{
		contentTypes: cfg.ContentTypes,
		priority:     cfg.SpecializationPriority,
		keywords:     cfg.SpecializationKeywords,
		generic:      generic,
	}
}

// Classify inspects the document body and title. It never fails:
// absent signals fall back to unknown/general/therapy.
func (c *Classifier) Classify(doc domain.Document) domain.Classification {
	lowerBody := strings.ToLower(doc.Body)
	return domain.Classification{
		Language:       detectLanguage(doc.Body),
		ContentType:    c.contentType(lowerBody),
		Specialization: c.specialization(doc, lowerBody),
	}
}

// detectLanguage counts Cyrillic vs Latin letters; majority script
// wins, a tie is unknown.
func detectLanguage(body string) domain.Language {
	var cyrillic, latin int
	for _, r := range body {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case r < 128 && unicode.IsLetter(r):
			latin++
		}
	}

	switch {
	case cyrillic > latin:
		return domain.LanguageRU
	case latin > cyrillic:
		return domain.LanguageEN
	default:
		return domain.LanguageUnknown
	}
}

func (c *Classifier) contentType(lowerBody string) domain.ContentType {
	for _, ct := range c.contentTypes {
		for _, kw := range ct.Keywords {
			if strings.Contains(lowerBody, strings.ToLower(kw)) {
				return domain.ContentType(ct.Type)
			}
		}
	}
	return domain.TypeGeneral
}

// specialization prefers the declared value unless it is generic,
// then walks the configured priority list; the first dictionary with
// a keyword hit wins, therapy is the catch-all.
func (c *Classifier) specialization(doc domain.Document, lowerBody string) domain.Specialization {
	declared := strings.ToLower(string(doc.Specialization))
	if _, generic := c.generic[declared]; declared != "" && !generic {
		return doc.Specialization
	}

	haystack := strings.ToLower(doc.Title) + " " + lowerBody
	for _, spec := range c.priority {
		for _, kw := range c.keywords[spec] {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				return domain.Specialization(spec)
			}
		}
	}
	return domain.SpecTherapy
}
