package main

import (
	"sort"
)

// tier thresholds; like the relevance bonuses these are hand-tuned
// values, not a model.
const (
	suggestedRelevanceThreshold   = 35.0
	suggestedQualityThreshold     = 45
	recommendedRelevanceThreshold = 5.0
)

type resultBuckets struct {
	Suggested   []*scoredRegister `json:"suggested"`
	Recommended []*scoredRegister `json:"recommended"`
	Other       []*scoredRegister `json:"other"`
}

func (b *resultBuckets) total() int {
	return len(b.Suggested) + len(b.Recommended) + len(b.Other)
}

// bucketResults partitions scored survivors into suggested /
// recommended / other.  records are ordered by relevance*100 + quality
// descending; the sort is stable so catalogue load order breaks ties.
//
// only records tied with the top result's relevance are eligible for
// the suggested tier, and then only when they clear both suggested
// thresholds.  an empty input short-circuits: there is no top result
// to compare against.
func bucketResults(scored []*scoredRegister) resultBuckets {
	buckets := resultBuckets{
		Suggested:   []*scoredRegister{},
		Recommended: []*scoredRegister{},
		Other:       []*scoredRegister{},
	}

	if len(scored) == 0 {
		return buckets
	}

	sorted := make([]*scoredRegister, len(scored))
	copy(sorted, scored)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].sortKey() > sorted[j].sortKey()
	})

	topRelevance := sorted[0].Relevance

	for _, r := range sorted {
		switch {
		case r.Relevance == topRelevance && r.Relevance >= suggestedRelevanceThreshold && r.Quality > suggestedQualityThreshold:
			buckets.Suggested = append(buckets.Suggested, r)

		case r.Relevance >= recommendedRelevanceThreshold:
			buckets.Recommended = append(buckets.Recommended, r)

		default:
			buckets.Other = append(buckets.Other, r)
		}
	}

	return buckets
}
