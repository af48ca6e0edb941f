package services

import (
	"math"

	"github.com/custodia-labs/studymate/internal/core/domain"
)

// Confidence weights.
const (
	confidenceScale  = 50.0
	multiSourceBoost = 1.2
	coverageWeight   = 0.3
	maxConfidence    = 100.0
)

// EstimateConfidence maps a ranked result list to a score in [0, 100].
//
// The base is the mean combined score times 50, capped at 100. Results
// from more than one source multiply it by 1.2, and the mean share of
// query terms matched adds up to 30% more. The final value is clamped.
func EstimateConfidence(results []domain.SearchResult, queryTermCount int) float64 {
	if len(results) == 0 {
		return 0
	}

	var sum, matched float64
	sources := make(map[string]struct{})
	for i := range results {
		sum += results[i].CombinedScore
		matched += float64(results[i].MatchedTermCount)
		sources[results[i].SourceName] = struct{}{}
	}
	n := float64(len(results))

	confidence := math.Min(sum/n*confidenceScale, maxConfidence)
	if len(sources) > 1 {
		confidence *= multiSourceBoost
	}
	if queryTermCount > 0 {
		coverage := matched / n / float64(queryTermCount)
		confidence *= 1 + coverage*coverageWeight
	}

	if math.IsNaN(confidence) {
		return 0
	}
	return math.Max(0, math.Min(confidence, maxConfidence))
}

// uniqueSources counts distinct source names in a result list.
func uniqueSources(results []domain.SearchResult) int {
	sources := make(map[string]struct{}, len(results))
	for i := range results {
		sources[results[i].SourceName] = struct{}{}
	}
	return len(sources)
}
