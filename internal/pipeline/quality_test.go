package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreQuality_BoundedRange(t *testing.T) {
	inputs := []string{
		"",
		"x",
		"A normal paragraph describing the api integration in detail. However, performance matters. Therefore we measure it. The feature ships next week.",
		strings.Repeat("word ", 500),
		strings.Repeat("same same same ", 40),
	}
	for _, in := range inputs {
		score := ScoreQuality(in)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestScoreQuality_EmptyContentScoresZero(t *testing.T) {
	assert.Equal(t, 0.0, ScoreQuality(""))
	assert.Equal(t, 0.0, ScoreQuality("  \n\t "))
}

func TestScoreQuality_RewardsInformativeContent(t *testing.T) {
	informative := "The api supports batch integration with strong performance guarantees. " +
		"However, throughput depends on payload size. Therefore the client batches requests. " +
		"Furthermore, the feature degrades gracefully under load. Retries are bounded. " +
		"Each request carries an idempotency key for safety."

	degenerate := "spam spam spam spam spam spam spam spam spam spam"

	assert.Greater(t, ScoreQuality(informative), ScoreQuality(degenerate))
}

func TestScoreQuality_PenalizesBoilerplate(t *testing.T) {
	base := "This section explains the deployment process in careful operational detail for new engineers joining the team. " +
		"It covers rollout ordering and observed failure modes across environments and regions in production today."
	boilerplate := base + " All rights reserved. Subscribe to our newsletter."

	assert.Greater(t, ScoreQuality(base), ScoreQuality(boilerplate))
}

func TestScoreQuality_PenalizesVeryShortContent(t *testing.T) {
	assert.Less(t, ScoreQuality("tiny fragment"), 0.5)
}

func TestScoreQuality_Deterministic(t *testing.T) {
	content := "Deterministic scoring is required because the score is recomputed on re-index."
	assert.Equal(t, ScoreQuality(content), ScoreQuality(content))
}
