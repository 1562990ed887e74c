package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportdss/downstream-cli/internal/model"
)

func rec(year int, value float64) model.TradeRecord {
	return model.TradeRecord{
		Period:       model.FlexInt(year),
		PrimaryValue: model.FlexFloat(value),
	}
}

func ds(pairs ...float64) model.Dataset {
	// pairs alternate year, value
	var d model.Dataset
	for i := 0; i+1 < len(pairs); i += 2 {
		d = append(d, rec(int(pairs[i]), pairs[i+1]))
	}
	return d
}

func TestAnalyzeAlignedWindow(t *testing.T) {
	d := model.ProtocolDatasets{
		RawExport:            ds(2019, 100, 2020, 120, 2021, 140),
		SemiExport:           ds(2019, 50, 2021, 60),
		FinishedExport:       ds(2019, 200, 2020, 220, 2021, 240),
		GlobalFinishedImport: ds(2020, 900, 2021, 1000, 2022, 1100),
	}

	s := Analyze(d)

	assert.Equal(t, []int{2020, 2021}, s.Alignment.AlignedYears)
	assert.Equal(t, []int{2019}, s.Alignment.DomesticOnly)
	assert.Equal(t, []int{2022}, s.Alignment.GlobalOnly)

	// Raw and semi totals cover every year; finished and global only the
	// aligned window.
	assert.InDelta(t, 360, s.Raw.TotalValue, 1e-9)
	assert.InDelta(t, 110, s.Semi.TotalValue, 1e-9)
	assert.InDelta(t, 460, s.Finished.TotalValue, 1e-9)
	assert.InDelta(t, 1900, s.GlobalDemand.TotalValue, 1e-9)
	assert.InDelta(t, 1440, s.MarketGap, 1e-9)
	assert.Equal(t, "pursue", s.Verdict.Decision)
}

func TestAnalyzeDisjointYears(t *testing.T) {
	d := model.ProtocolDatasets{
		FinishedExport:       ds(2018, 500, 2019, 600),
		GlobalFinishedImport: ds(2021, 900, 2022, 950),
	}

	s := Analyze(d)

	assert.Empty(t, s.Alignment.AlignedYears)
	assert.Equal(t, []int{2018, 2019}, s.Alignment.DomesticOnly)
	assert.Equal(t, []int{2021, 2022}, s.Alignment.GlobalOnly)
	assert.Zero(t, s.Finished.TotalValue)
	assert.Zero(t, s.Finished.CAGRPct)
	assert.Zero(t, s.GlobalDemand.TotalValue)
	assert.Zero(t, s.GlobalDemand.CAGRPct)
	assert.Zero(t, s.MarketGap)
	assert.Equal(t, "inconclusive", s.Verdict.Decision)
}

func TestAnalyzeAllEmpty(t *testing.T) {
	s := Analyze(model.ProtocolDatasets{})

	assert.Zero(t, s.Raw.TotalValue)
	assert.Zero(t, s.Semi.TotalValue)
	assert.Zero(t, s.Finished.TotalValue)
	assert.Zero(t, s.GlobalDemand.TotalValue)
	assert.Zero(t, s.MarketGap)
	assert.Empty(t, s.Alignment.AlignedYears)
	assert.Equal(t, "inconclusive", s.Verdict.Decision)
}

func TestAnalyzeHoldWhenNoGap(t *testing.T) {
	d := model.ProtocolDatasets{
		FinishedExport:       ds(2020, 1000, 2021, 1100),
		GlobalFinishedImport: ds(2020, 800, 2021, 900),
	}

	s := Analyze(d)

	require.Equal(t, []int{2020, 2021}, s.Alignment.AlignedYears)
	assert.InDelta(t, -400, s.MarketGap, 1e-9)
	assert.Equal(t, "hold", s.Verdict.Decision)
}

func TestAnalyzeCautionOnContractingDemand(t *testing.T) {
	d := model.ProtocolDatasets{
		FinishedExport:       ds(2020, 100, 2021, 100),
		GlobalFinishedImport: ds(2020, 1000, 2021, 800),
	}

	s := Analyze(d)

	assert.True(t, s.MarketGap > 0)
	assert.True(t, s.GlobalDemand.CAGRPct < 0)
	assert.Equal(t, "caution", s.Verdict.Decision)
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name   string
		yearly map[int]float64
		want   float64
	}{
		{"two points fifty percent", map[int]float64{2020: 100, 2021: 150}, 50},
		{"doubling over two periods", map[int]float64{2019: 100, 2020: 130, 2021: 400}, 100},
		{"single year", map[int]float64{2021: 500}, 0},
		{"empty", map[int]float64{}, 0},
		{"zero start", map[int]float64{2020: 0, 2021: 100}, 0},
		{"declining", map[int]float64{2020: 200, 2021: 100}, -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cagr(tt.yearly), 1e-9)
		})
	}
}

func TestCAGRSumsDuplicateYearRecords(t *testing.T) {
	// Multiple partner rows in the same year count once, summed.
	d := ds(2020, 60, 2020, 40, 2021, 150)
	m := stageMetrics(d)
	assert.InDelta(t, 250, m.TotalValue, 1e-9)
	assert.InDelta(t, 50, m.CAGRPct, 1e-9)
}
