package metrics

import (
	"math"
	"sort"
)

// GroupEachRecord is the sentinel group count placing every observation in
// its own rank group.
const GroupEachRecord = -1

// GroupRecord aggregates one rank group of score-descending observations.
// Cumulative fields are derived from the counts in group order, never set
// independently, so the curve and the counts cannot drift apart.
type GroupRecord struct {
	Group        int     `json:"group" yaml:"group"`
	Goods        int     `json:"goods" yaml:"goods"`
	Bads         int     `json:"bads" yaml:"bads"`
	CumFrac      float64 `json:"cum_frac" yaml:"cum_frac"`
	GoodShare    float64 `json:"good_share" yaml:"good_share"`
	BadShare     float64 `json:"bad_share" yaml:"bad_share"`
	CumGoodShare float64 `json:"cum_good_share" yaml:"cum_good_share"`
	CumBadShare  float64 `json:"cum_bad_share" yaml:"cum_bad_share"`
	KS           float64 `json:"ks" yaml:"ks"`
}

// RankResult holds the rank-grouping output feeding KS and Lift.
type RankResult struct {
	Groups     []GroupRecord `json:"groups" yaml:"groups"`
	GroupCount int           `json:"group_count" yaml:"group_count"`
	KS         float64       `json:"ks" yaml:"ks"`
	KSGroup    int           `json:"ks_group" yaml:"ks_group"`
	Baseline   float64       `json:"baseline" yaml:"baseline"`
}

// RankGroups partitions observations into groupCount equal-population groups
// by descending value and accumulates the good/bad distributions. Ties are
// broken by the order obs arrives in, which is why callers shuffle first.
// A synthetic group 0 with zero cumulative values starts the curve.
func RankGroups(obs []Observation, groupCount int) (*RankResult, error) {
	if groupCount != GroupEachRecord && groupCount < 1 {
		return nil, invalidInputf("group count must be positive, got %d", groupCount)
	}
	if len(obs) == 0 {
		return nil, degenerateInputf("no observations to group")
	}

	n := len(obs)
	if groupCount == GroupEachRecord || groupCount > n {
		groupCount = n
	}

	totalGoods, totalBads := countLabels(obs)
	if totalGoods == 0 || totalBads == 0 {
		return nil, degenerateInputf("rank grouping requires both label classes")
	}

	sorted := make([]Observation, n)
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})

	groupSize := float64(n) / float64(groupCount)
	goods := make([]int, groupCount+1)
	bads := make([]int, groupCount+1)
	counts := make([]int, groupCount+1)
	for i, o := range sorted {
		g := int(math.Ceil(float64(i+1) / groupSize))
		if g < 1 {
			g = 1
		}
		if g > groupCount {
			g = groupCount
		}
		counts[g]++
		if o.Label == 1 {
			bads[g]++
		} else {
			goods[g]++
		}
	}

	res := &RankResult{
		Groups:     make([]GroupRecord, 0, groupCount+1),
		GroupCount: groupCount,
		Baseline:   1 / float64(groupCount),
	}
	res.Groups = append(res.Groups, GroupRecord{Group: 0})

	var cumCount int
	var cumGood, cumBad float64
	for g := 1; g <= groupCount; g++ {
		cumCount += counts[g]
		goodShare := float64(goods[g]) / float64(totalGoods)
		badShare := float64(bads[g]) / float64(totalBads)
		cumGood += goodShare
		cumBad += badShare

		rec := GroupRecord{
			Group:        g,
			Goods:        goods[g],
			Bads:         bads[g],
			CumFrac:      float64(cumCount) / float64(n),
			GoodShare:    goodShare,
			BadShare:     badShare,
			CumGoodShare: cumGood,
			CumBadShare:  cumBad,
			KS:           cumBad - cumGood,
		}
		res.Groups = append(res.Groups, rec)

		// First occurrence of the maximum wins.
		if rec.KS > res.KS {
			res.KS = rec.KS
			res.KSGroup = g
		}
	}

	return res, nil
}
