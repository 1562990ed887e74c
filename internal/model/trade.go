package model

import (
	"sort"
	"strconv"
	"strings"
)

// Flow identifies the direction of a trade flow in the Comtrade API.
type Flow string

const (
	FlowExport Flow = "X"
	FlowImport Flow = "M"
)

// Kind returns the cache request kind for the flow ("export" or "import").
func (f Flow) Kind() string {
	if f == FlowImport {
		return "import"
	}
	return "export"
}

// FlexFloat decodes a JSON number, a numeric string, or null into a float64.
// Values that cannot be parsed decode to zero instead of failing the record;
// the API is inconsistent about numeric encodings across datasets.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// FlexInt decodes a JSON number or numeric string into an int, tolerating
// float encodings ("2023.0"). Unparseable values decode to zero.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		*i = FlexInt(v)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*i = FlexInt(int(v))
		return nil
	}
	*i = 0
	return nil
}

// FlexString decodes either a JSON string or a bare number into a string.
// Commodity codes arrive both quoted and unquoted depending on the endpoint.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	*s = FlexString(strings.Trim(strings.TrimSpace(string(b)), `"`))
	if *s == "null" {
		*s = ""
	}
	return nil
}

// TradeRecord is one row of Comtrade data: a (reporter, partner, flow,
// commodity, period) observation with its monetary value and optional
// weight. Records are immutable once fetched and cached verbatim.
type TradeRecord struct {
	ReporterCode FlexInt    `json:"reporterCode"`
	ReporterDesc string     `json:"reporterDesc,omitempty"`
	PartnerCode  FlexInt    `json:"partnerCode"`
	PartnerDesc  string     `json:"partnerDesc,omitempty"`
	FlowCode     FlexString `json:"flowCode"`
	CmdCode      FlexString `json:"cmdCode"`
	CmdDesc      string     `json:"cmdDesc,omitempty"`
	Period       FlexInt    `json:"period"`
	PrimaryValue FlexFloat  `json:"primaryValue"`
	NetWeight    FlexFloat  `json:"netWgt,omitempty"`
}

// Year returns the record's period as a calendar year.
func (r TradeRecord) Year() int {
	return int(r.Period)
}

// Dataset is the union of trade records assembled for one (stage, scope)
// query across a year range. It is never mutated after assembly.
type Dataset []TradeRecord

// Empty reports whether the dataset holds no records.
func (d Dataset) Empty() bool {
	return len(d) == 0
}

// Years returns the sorted distinct years present in the dataset.
func (d Dataset) Years() []int {
	seen := make(map[int]bool, len(d))
	var years []int
	for _, r := range d {
		y := r.Year()
		if y == 0 || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// YearlyTotals sums primary values grouped by year.
func (d Dataset) YearlyTotals() map[int]float64 {
	totals := make(map[int]float64)
	for _, r := range d {
		if y := r.Year(); y != 0 {
			totals[y] += float64(r.PrimaryValue)
		}
	}
	return totals
}

// Total sums primary values over the whole dataset.
func (d Dataset) Total() float64 {
	var sum float64
	for _, r := range d {
		sum += float64(r.PrimaryValue)
	}
	return sum
}

// RestrictYears returns the subset of records whose period falls in years.
func (d Dataset) RestrictYears(years []int) Dataset {
	if len(years) == 0 {
		return nil
	}
	keep := make(map[int]bool, len(years))
	for _, y := range years {
		keep[y] = true
	}
	var out Dataset
	for _, r := range d {
		if keep[r.Year()] {
			out = append(out, r)
		}
	}
	return out
}
