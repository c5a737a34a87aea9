package analysis

import "sort"

type RankedReport struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
	Report
}

// RankByGain sorts reports descending by average daily gain, then gain.
// Runs that did not complete rank after every completed run. Ties keep input
// order.
func RankByGain(names []string, reports []Report) []RankedReport {
	out := make([]RankedReport, 0, len(reports))
	for i, r := range reports {
		out = append(out, RankedReport{Name: names[i], Report: r})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Completed != b.Completed {
			return a.Completed
		}
		if a.AverageDailyGain != b.AverageDailyGain {
			return a.AverageDailyGain > b.AverageDailyGain
		}
		return a.Gain > b.Gain
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
