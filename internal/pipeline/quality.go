package pipeline

import (
	"strings"
)

// Discourse markers and technical terms treated as signals of informative
// content.
var (
	discourseMarkers = []string{"however", "therefore", "because", "furthermore"}
	technicalTerms   = []string{"api", "feature", "integration", "performance"}
	boilerplateTerms = []string{
		"all rights reserved",
		"cookie policy",
		"privacy policy",
		"terms of service",
		"click here",
		"subscribe to our newsletter",
	}
)

// ScoreQuality rates a chunk's content value in [0,1]. Pure heuristic:
// deterministic for identical input, no I/O. The score ranks and filters
// chunks downstream and never participates in dedup identity.
func ScoreQuality(content string) float64 {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0
	}

	score := 0.5
	lower := strings.ToLower(trimmed)

	// Length band: mid-sized chunks carry the most usable context.
	switch n := len(trimmed); {
	case n >= 200 && n <= 1500:
		score += 0.2
	case n > 1500:
		score += 0.1
	case n < 50:
		score -= 0.3
	}

	if containsAny(lower, discourseMarkers) {
		score += 0.1
	}
	if containsAny(lower, technicalTerms) {
		score += 0.1
	}

	if sentences := strings.Count(trimmed, "."); sentences >= 3 && sentences <= 10 {
		score += 0.1
	}

	if containsAny(lower, boilerplateTerms) {
		score -= 0.2
	}

	// Degenerate content repeats the same few words.
	if diversity := lexicalDiversity(lower); diversity < 0.3 {
		score -= 0.1
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// lexicalDiversity is the ratio of unique words to total words.
func lexicalDiversity(content string) float64 {
	words := strings.Fields(content)
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[w] = struct{}{}
	}
	return float64(len(unique)) / float64(len(words))
}
