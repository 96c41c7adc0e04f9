package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	spaceExpr      = regexp.MustCompile(`\s+`)
	punctBefore    = regexp.MustCompile(`\s+([.,!?;:])`)
	punctAfter     = regexp.MustCompile(`([.,!?;:])\s+`)
	leadNumberExpr = regexp.MustCompile(`^\d+\.\s*`)
	sentenceDelims = regexp.MustCompile(`[.!?]+`)
)

const (
	readingWPM      = 200
	minSentenceLen  = 10
	maxKeywords     = 10
	minKeywordRunes = 4
)

// Clean strips HTML, collapses whitespace and normalizes punctuation.
// The fingerprint is computed over this form so formatting differences
// do not evade dedup.
func Clean(content string) string {
	if content == "" {
		return ""
	}

	text := stripHTML(content)
	text = spaceExpr.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	text = dropSpecialRunes(text)
	text = punctBefore.ReplaceAllString(text, "$1")
	text = punctAfter.ReplaceAllString(text, "$1 ")

	return strings.TrimSpace(text)
}

// CleanTitle strips HTML and collapses whitespace in a title.
func CleanTitle(title string) string {
	if title == "" {
		return ""
	}
	text := stripHTML(title)
	return strings.TrimSpace(spaceExpr.ReplaceAllString(text, " "))
}

func stripHTML(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return content
	}
	return doc.Text()
}

// dropSpecialRunes keeps word characters, Cyrillic, whitespace and
// basic punctuation, replacing everything else with a space.
func dropSpecialRunes(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(".,!?;:()-", r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return spaceExpr.ReplaceAllString(b.String(), " ")
}

// Fingerprint hashes normalized body text for exact-duplicate checks.
func Fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Jaccard measures similarity between two titles as the ratio of
// shared case-folded words to all distinct words.
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}

// Sentences splits text on sentence delimiters, discarding fragments
// shorter than 10 characters.
func Sentences(text string) []string {
	parts := sentenceDelims.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if len([]rune(p)) >= minSentenceLen {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// AdaptTitle strips leading numbering, normalizes whitespace and
// truncates to 80 characters with an ellipsis.
func AdaptTitle(title string) string {
	adapted := leadNumberExpr.ReplaceAllString(title, "")
	adapted = strings.Replace(adapted, " : ", ": ", 1)
	adapted = strings.TrimSpace(spaceExpr.ReplaceAllString(adapted, " "))

	runes := []rune(adapted)
	if len(runes) > 80 {
		adapted = string(runes[:77]) + "..."
	}
	return adapted
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates minutes to read at 200 words per minute.
func ReadingTime(text string) int {
	words := CountWords(text)
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / float64(readingWPM)))
}

// Keywords returns the ten most frequent words longer than three
// runes, most frequent first. Frequency ties keep first-seen order.
func Keywords(text string) []string {
	freq := map[string]int{}
	order := map[string]int{}
	next := 0

	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if len([]rune(w)) < minKeywordRunes {
			continue
		}
		if _, seen := freq[w]; !seen {
			order[w] = next
			next++
		}
		freq[w]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}

	for i := 1; i < len(words); i++ {
		for j := i; j > 0; j-- {
			a, b := words[j-1], words[j]
			if freq[b] > freq[a] || (freq[b] == freq[a] && order[b] < order[a]) {
				words[j-1], words[j] = b, a
			} else {
				break
			}
		}
	}

	if len(words) > maxKeywords {
		words = words[:maxKeywords]
	}
	return words
}
