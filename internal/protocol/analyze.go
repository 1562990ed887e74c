package protocol

import (
	"fmt"
	"math"
	"sort"

	"github.com/exportdss/downstream-cli/internal/model"
)

// Analyze computes per-stage totals and growth trends from one protocol
// run. Finished-export and global-demand figures are restricted to the
// years both datasets cover, so the market gap compares like with like;
// years present on only one side are reported but never aggregated.
func Analyze(d model.ProtocolDatasets) model.AnalysisSummary {
	alignment := alignYears(d.FinishedExport.Years(), d.GlobalFinishedImport.Years())

	finished := d.FinishedExport.RestrictYears(alignment.AlignedYears)
	global := d.GlobalFinishedImport.RestrictYears(alignment.AlignedYears)

	s := model.AnalysisSummary{
		Raw:          stageMetrics(d.RawExport),
		Semi:         stageMetrics(d.SemiExport),
		Finished:     stageMetrics(finished),
		GlobalDemand: stageMetrics(global),
		Alignment:    alignment,
	}
	s.MarketGap = s.GlobalDemand.TotalValue - s.Finished.TotalValue
	s.Verdict = verdict(s)
	return s
}

func stageMetrics(d model.Dataset) model.StageMetrics {
	return model.StageMetrics{
		TotalValue: d.Total(),
		CAGRPct:    cagr(d.YearlyTotals()),
	}
}

// cagr returns the compound annual growth rate between the first and last
// year with data, in percent. Fewer than two data points, or a
// non-positive endpoint, yields 0.
func cagr(yearly map[int]float64) float64 {
	if len(yearly) < 2 {
		return 0
	}
	years := make([]int, 0, len(yearly))
	for y := range yearly {
		years = append(years, y)
	}
	sort.Ints(years)
	first := yearly[years[0]]
	last := yearly[years[len(years)-1]]
	if first <= 0 || last <= 0 {
		return 0
	}
	periods := float64(len(years) - 1)
	return (math.Pow(last/first, 1/periods) - 1) * 100
}

func alignYears(domestic, global []int) model.AlignmentResult {
	inGlobal := make(map[int]bool, len(global))
	for _, y := range global {
		inGlobal[y] = true
	}
	inDomestic := make(map[int]bool, len(domestic))
	for _, y := range domestic {
		inDomestic[y] = true
	}

	res := model.AlignmentResult{
		AlignedYears: []int{},
		DomesticOnly: []int{},
		GlobalOnly:   []int{},
	}
	for _, y := range domestic {
		if inGlobal[y] {
			res.AlignedYears = append(res.AlignedYears, y)
		} else {
			res.DomesticOnly = append(res.DomesticOnly, y)
		}
	}
	for _, y := range global {
		if !inDomestic[y] {
			res.GlobalOnly = append(res.GlobalOnly, y)
		}
	}
	return res
}

func verdict(s model.AnalysisSummary) model.Verdict {
	switch {
	case len(s.Alignment.AlignedYears) == 0:
		return model.Verdict{
			Decision: "inconclusive",
			Reason:   "domestic finished exports and global demand share no reporting years",
		}
	case s.MarketGap > 0 && s.GlobalDemand.CAGRPct >= 0:
		return model.Verdict{
			Decision: "pursue",
			Reason: fmt.Sprintf("global demand exceeds domestic finished exports by %.0f USD with a %.1f%% annual demand trend",
				s.MarketGap, s.GlobalDemand.CAGRPct),
		}
	case s.MarketGap > 0:
		return model.Verdict{
			Decision: "caution",
			Reason: fmt.Sprintf("a %.0f USD market gap remains but global demand is contracting %.1f%% a year",
				s.MarketGap, s.GlobalDemand.CAGRPct),
		}
	default:
		return model.Verdict{
			Decision: "hold",
			Reason:   "domestic finished exports already meet or exceed demand across the major importers",
		}
	}
}
