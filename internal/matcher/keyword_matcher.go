package matcher

import (
	"strings"

	"github.com/unifound/lostfound/internal/domain/entity"
)

// Scoring weights. Category agreement dominates because reporters pick it
// from a fixed list, while titles and tags are free text.
const (
	categoryWeight = 0.4
	tagWeight      = 0.35
	titleWeight    = 0.25
)

// KeywordMatcher scores lost/found item pairs on category, tag, and title
// overlap. Scores range from 0 to 1.
type KeywordMatcher struct{}

// NewKeywordMatcher creates a new KeywordMatcher
func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{}
}

// Score rates how likely lost and found describe the same item and
// returns the reasons contributing to the score.
func (m *KeywordMatcher) Score(lost, found *entity.Item) (float64, []string) {
	var score float64
	var reasons []string

	if lost.Category != "" && strings.EqualFold(lost.Category, found.Category) {
		score += categoryWeight
		reasons = append(reasons, "category match: "+strings.ToLower(lost.Category))
	}

	if overlap := tokenOverlap(normalizeTokens(lost.Tags), normalizeTokens(found.Tags)); overlap > 0 {
		score += tagWeight * overlap
		reasons = append(reasons, "shared tags")
	}

	lostTitle := tokenize(lost.Title)
	foundTitle := tokenize(found.Title)
	if overlap := tokenOverlap(lostTitle, foundTitle); overlap > 0 {
		score += titleWeight * overlap
		reasons = append(reasons, "title keywords overlap")
	}

	if score > 1 {
		score = 1
	}
	return score, reasons
}

// tokenize splits free text into lowercase words, dropping short filler
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var tokens []string
	for _, f := range fields {
		if len(f) >= 3 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func normalizeTokens(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// tokenOverlap returns the fraction of the smaller distinct set that
// appears in the other
func tokenOverlap(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	matched := 0
	for t := range setA {
		if setB[t] {
			matched++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(matched) / float64(smaller)
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
