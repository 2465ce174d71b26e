package stats

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoUpdate means the query lacks its inputs (no metric, no selection) and
// nothing should be rendered. It is not the same as an empty result.
var ErrNoUpdate = errors.New("no update")

// RankingSize is the number of countries shown at each end of a ranking.
const RankingSize = 10

// Bounds of the colour scale for density maps.
const (
	DensityMin = 1.0
	DensityMax = 700.0
)

type RankGroup string

const (
	Lowest  RankGroup = "lowest"
	Highest RankGroup = "highest"
)

type RankEntry struct {
	Country string    `json:"country"`
	Value   float64   `json:"value"`
	Group   RankGroup `json:"group"`
}

// Ranking holds the lowest and highest countries of a year, ascending.
type Ranking struct {
	Year       int         `json:"year"`
	Metric     Metric      `json:"metric"`
	Label      string      `json:"label"`
	TickSuffix string      `json:"tickSuffix,omitempty"`
	Entries    []RankEntry `json:"entries"`
}

// Ranking returns the RankingSize lowest and highest countries for metric in
// year, lowest first. Percentages are scaled to 0-100 and rounded to one
// decimal.
func (d *Dataset) Ranking(year int, metric Metric) (*Ranking, error) {
	if metric == "" {
		return nil, ErrNoUpdate
	}

	rows := Select(d.countries, metric, InYear(year))
	if len(rows) > 2*RankingSize {
		ends := make([]*Record, 0, 2*RankingSize)
		ends = append(ends, rows[:RankingSize]...)
		ends = append(ends, rows[len(rows)-RankingSize:]...)
		rows = ends
	}

	rk := &Ranking{
		Year:    year,
		Metric:  metric,
		Label:   metric.Label(),
		Entries: make([]RankEntry, 0, len(rows)),
	}
	if metric.IsPercentage() {
		rk.TickSuffix = "%"
	}

	for i, r := range rows {
		v := r.Metric(metric).Value
		if metric.IsPercentage() {
			v = RoundHalfEven(v*100, 1)
		}
		g := Lowest
		if i >= RankingSize {
			g = Highest
		}
		rk.Entries = append(rk.Entries, RankEntry{Country: r.Country, Value: v, Group: g})
	}

	return rk, nil
}

type SnapshotEntry struct {
	Country string  `json:"country"`
	ISO3    string  `json:"iso3"`
	Value   float64 `json:"value"`
	Z       float64 `json:"z"`
	Label   string  `json:"label"`
}

// Snapshot is the per-country state of a metric in one year, for a map.
type Snapshot struct {
	Year       int             `json:"year"`
	Metric     Metric          `json:"metric"`
	Label      string          `json:"label"`
	TickSuffix string          `json:"tickSuffix,omitempty"`
	TickFormat string          `json:"tickFormat,omitempty"`
	Entries    []SnapshotEntry `json:"entries"`
}

// Snapshot returns one entry per country with metric data in year, ascending
// by value. Z is the value used for colouring: densities are clipped to
// [DensityMin, DensityMax], Value keeps the raw figure.
func (d *Dataset) Snapshot(year int, metric Metric) (*Snapshot, error) {
	if metric == "" {
		return nil, ErrNoUpdate
	}

	rows := Select(d.countries, metric, InYear(year))

	s := &Snapshot{
		Year:    year,
		Metric:  metric,
		Label:   metric.Label(),
		Entries: make([]SnapshotEntry, 0, len(rows)),
	}
	switch {
	case metric.IsDensity():
		s.TickSuffix = "+"
	case metric.IsPercentage():
		s.TickFormat = "%"
	}

	for _, r := range rows {
		v := r.Metric(metric).Value
		e := SnapshotEntry{
			Country: r.Country,
			ISO3:    r.ISO3c,
			Value:   v,
			Z:       v,
		}
		if metric.IsDensity() {
			e.Z = Clip(v, DensityMin, DensityMax)
		}
		if metric.IsPercentage() {
			e.Label = FormatPercent(v, 2)
		} else {
			e.Label = FormatCount(v)
		}
		s.Entries = append(s.Entries, e)
	}

	return s, nil
}

type Point struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
	Label string  `json:"label,omitempty"`
}

type Trace struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// TimeSeries holds one trace per selected country or region.
type TimeSeries struct {
	Metric    Metric  `json:"metric"`
	Label     string  `json:"label"`
	Caption   string  `json:"caption"`
	FirstYear int     `json:"firstYear,omitempty"`
	LastYear  int     `json:"lastYear,omitempty"`
	Traces    []Trace `json:"traces"`
}

// TimeSeries returns the yearly values of metric for each name, in the given
// order. Aggregates may be selected. Within a trace a value that repeats an
// earlier one is dropped. The year span covers all traces.
func (d *Dataset) TimeSeries(names []string, metric Metric) (*TimeSeries, error) {
	if metric == "" || len(names) == 0 {
		return nil, ErrNoUpdate
	}

	ts := &TimeSeries{
		Metric: metric,
		Label:  metric.Label(),
		Traces: make([]Trace, 0, len(names)),
	}

	for _, name := range names {
		rows := Filter(d.all, metric, OfCountry(name))
		SortBy(rows, ByYear)

		t := Trace{Name: name, Points: make([]Point, 0, len(rows))}
		seen := make(map[float64]bool)
		for _, r := range rows {
			v := r.Metric(metric).Value
			if seen[v] {
				continue
			}
			seen[v] = true

			p := Point{Year: r.Year, Value: v}
			if metric.IsPercentage() {
				p.Label = FormatPercent(v, 1)
			}
			t.Points = append(t.Points, p)

			if ts.FirstYear == 0 || r.Year < ts.FirstYear {
				ts.FirstYear = r.Year
			}
			if ts.LastYear == 0 || r.Year > ts.LastYear {
				ts.LastYear = r.Year
			}
		}
		ts.Traces = append(ts.Traces, t)
	}

	ts.Caption = strings.Join(names, ", ")
	if ts.FirstYear != 0 {
		ts.Caption += fmt.Sprintf(" %d - %d", ts.FirstYear, ts.LastYear)
	}

	return ts, nil
}
