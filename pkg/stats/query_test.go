package stats

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func countriesInYear(n, year int, metric Metric) []*Record {
	var rows []*Record
	for i := 0; i < n; i++ {
		r := &Record{Country: fmt.Sprintf("C%02d", i), Year: year, Region: "Somewhere"}
		// descending values, so the ranking must reverse the table order
		setMetric(r, metric, Some(float64(n-i)))
		rows = append(rows, r)
	}
	return rows
}

func TestRankingShortInput(t *testing.T) {
	d := NewDataset(countriesInYear(5, 2017, NetMigration), DefaultPolicy())

	rk, err := d.Ranking(2017, NetMigration)
	if err != nil {
		t.Fatal(err)
	}

	expected := []RankEntry{
		{"C04", 1, Lowest}, {"C03", 2, Lowest}, {"C02", 3, Lowest}, {"C01", 4, Lowest}, {"C00", 5, Lowest},
	}
	if !reflect.DeepEqual(rk.Entries, expected) {
		t.Errorf("=== expected ===\n%s\n=== actual ===\n%s", spew.Sdump(expected), spew.Sdump(rk.Entries))
	}
}

func TestRankingTopAndBottom(t *testing.T) {
	for _, n := range []int{20, 21, 50} {
		t.Run(fmt.Sprintf("%d rows", n), func(t *testing.T) {
			d := NewDataset(countriesInYear(n, 2017, NetMigration), DefaultPolicy())

			rk, err := d.Ranking(2017, NetMigration)
			if err != nil {
				t.Fatal(err)
			}
			if len(rk.Entries) != 20 {
				t.Fatalf("expected 20 entries, got %d", len(rk.Entries))
			}

			seen := make(map[string]bool)
			for i, e := range rk.Entries {
				if seen[e.Country] {
					t.Errorf("duplicated country %s", e.Country)
				}
				seen[e.Country] = true

				if i > 0 && rk.Entries[i-1].Value > e.Value {
					t.Errorf("entries not ascending at %d", i)
				}
				expectedGroup := Lowest
				if i >= RankingSize {
					expectedGroup = Highest
				}
				if e.Group != expectedGroup {
					t.Errorf("entry %d: expected group %s, got %s", i, expectedGroup, e.Group)
				}
			}

			if rk.Entries[0].Value != 1 || rk.Entries[19].Value != float64(n) {
				t.Errorf("expected lowest 1 and highest %d, got %v and %v", n, rk.Entries[0].Value, rk.Entries[19].Value)
			}
			if rk.Entries[9].Value != 10 || rk.Entries[10].Value != float64(n-9) {
				t.Errorf("unexpected split: %v / %v", rk.Entries[9].Value, rk.Entries[10].Value)
			}
		})
	}
}

func TestRankingExcludesAggregatesAndMissing(t *testing.T) {
	d := NewDataset(fixture(), DefaultPolicy())

	rk, err := d.Ranking(2017, NetMigration)
	if err != nil {
		t.Fatal(err)
	}

	expected := []RankEntry{{"Chad", 10, Lowest}, {"Japan", 357, Lowest}}
	if !reflect.DeepEqual(rk.Entries, expected) {
		t.Errorf("=== expected ===\n%s\n=== actual ===\n%s", spew.Sdump(expected), spew.Sdump(rk.Entries))
	}
}

func TestRankingEmptyYear(t *testing.T) {
	d := NewDataset(fixture(), DefaultPolicy())

	rk, err := d.Ranking(1960, NetMigration)
	if err != nil {
		t.Fatal(err)
	}
	if rk.Entries == nil || len(rk.Entries) != 0 {
		t.Errorf("expected an empty ranking, got %v", rk.Entries)
	}
}

func TestRankingPercentage(t *testing.T) {
	rows := []*Record{
		{Country: "A", Year: 2017, MigrationPerc: Some(0.1234)},
		{Country: "B", Year: 2017, MigrationPerc: Some(-0.0056)},
	}
	d := NewDataset(rows, DefaultPolicy())

	rk, err := d.Ranking(2017, MigrationPerc)
	if err != nil {
		t.Fatal(err)
	}
	if rk.TickSuffix != "%" {
		t.Errorf("expected %% tick suffix, got %q", rk.TickSuffix)
	}
	if rk.Entries[0].Value != -0.6 || rk.Entries[1].Value != 12.3 {
		t.Errorf("unexpected values:\n%s", spew.Sdump(rk.Entries))
	}
}

func TestQueriesWithoutMetric(t *testing.T) {
	d := NewDataset(fixture(), DefaultPolicy())

	if _, err := d.Ranking(2017, ""); !errors.Is(err, ErrNoUpdate) {
		t.Errorf("ranking: expected ErrNoUpdate, got %v", err)
	}
	if _, err := d.Snapshot(2017, ""); !errors.Is(err, ErrNoUpdate) {
		t.Errorf("snapshot: expected ErrNoUpdate, got %v", err)
	}
	if _, err := d.TimeSeries([]string{"Japan"}, ""); !errors.Is(err, ErrNoUpdate) {
		t.Errorf("time series: expected ErrNoUpdate, got %v", err)
	}
	if _, err := d.TimeSeries(nil, NetMigration); !errors.Is(err, ErrNoUpdate) {
		t.Errorf("time series without selection: expected ErrNoUpdate, got %v", err)
	}
}

func TestSnapshotDensityClip(t *testing.T) {
	d := NewDataset(fixture(), DefaultPolicy())

	s, err := d.Snapshot(2015, PopDensity)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Entries) != 1 {
		t.Fatalf("unexpected entries:\n%s", spew.Sdump(s.Entries))
	}
	e := s.Entries[0]
	if e.ISO3 != "MCO" || e.Value != 19000 || e.Z != DensityMax || e.Label != "19,000" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if s.TickSuffix != "+" || s.TickFormat != "" {
		t.Errorf("unexpected colour bar hints: %q %q", s.TickSuffix, s.TickFormat)
	}

	s, err = d.Snapshot(2017, PopDensity)
	if err != nil {
		t.Fatal(err)
	}
	expected := []SnapshotEntry{
		{Country: "Chad", ISO3: "TCD", Value: 0.4, Z: DensityMin, Label: "0"},
		{Country: "Kosovo", ISO3: "", Value: 166, Z: 166, Label: "166"},
		{Country: "Japan", ISO3: "JPN", Value: 347, Z: 347, Label: "347"},
	}
	if !reflect.DeepEqual(s.Entries, expected) {
		t.Errorf("=== expected ===\n%s\n=== actual ===\n%s", spew.Sdump(expected), spew.Sdump(s.Entries))
	}
	for _, e := range s.Entries {
		if e.Z < DensityMin || e.Z > DensityMax {
			t.Errorf("%s: encoding %v outside the colour scale", e.Country, e.Z)
		}
	}
}

func TestSnapshotPercentage(t *testing.T) {
	rows := []*Record{
		{Country: "A", Year: 2017, ISO3c: "AAA", MigrationPerc: Some(0.1234)},
		{Country: "B", Year: 2017, ISO3c: "BBB", MigrationPerc: Some(-0.05)},
	}
	d := NewDataset(rows, DefaultPolicy())

	s, err := d.Snapshot(2017, MigrationPerc)
	if err != nil {
		t.Fatal(err)
	}
	if s.TickFormat != "%" {
		t.Errorf("expected %% tick format, got %q", s.TickFormat)
	}
	if s.Entries[0].Label != "-5.00%" || s.Entries[0].Z != -0.05 {
		t.Errorf("unexpected entry: %+v", s.Entries[0])
	}
	if s.Entries[1].Label != "12.34%" || s.Entries[1].Z != 0.1234 {
		t.Errorf("unexpected entry: %+v", s.Entries[1])
	}
}

func TestTimeSeries(t *testing.T) {
	rows := []*Record{
		{Country: "X", Year: 2002, NetMigration: Some(7)},
		{Country: "X", Year: 2000, NetMigration: Some(5)},
		{Country: "X", Year: 2001, NetMigration: Some(5)},
		{Country: "X", Year: 2003, NetMigration: Null},
		{Country: "World", Year: 1990, Region: AggregatesRegion, NetMigration: Some(0)},
		{Country: "World", Year: 1991, Region: AggregatesRegion, NetMigration: Some(1)},
	}
	d := NewDataset(rows, DefaultPolicy())

	ts, err := d.TimeSeries([]string{"World", "X", "Atlantis"}, NetMigration)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Trace{
		{Name: "World", Points: []Point{{Year: 1990, Value: 0}, {Year: 1991, Value: 1}}},
		{Name: "X", Points: []Point{{Year: 2000, Value: 5}, {Year: 2002, Value: 7}}},
		{Name: "Atlantis", Points: []Point{}},
	}
	if !reflect.DeepEqual(ts.Traces, expected) {
		t.Errorf("=== expected ===\n%s\n=== actual ===\n%s", spew.Sdump(expected), spew.Sdump(ts.Traces))
	}

	if ts.FirstYear != 1990 || ts.LastYear != 2002 {
		t.Errorf("year span must cover every trace, got %d - %d", ts.FirstYear, ts.LastYear)
	}
	if ts.Caption != "World, X, Atlantis 1990 - 2002" {
		t.Errorf("unexpected caption %q", ts.Caption)
	}
}

func TestTimeSeriesPercentage(t *testing.T) {
	rows := []*Record{
		{Country: "X", Year: 2000, Population: Some(100), NetMigration: Some(10)},
		{Country: "X", Year: 2001, Population: Null, NetMigration: Some(5)},
	}
	DeriveMigrationPerc(rows)
	d := NewDataset(rows, DefaultPolicy())

	ts, err := d.TimeSeries([]string{"X"}, MigrationPerc)
	if err != nil {
		t.Fatal(err)
	}

	expected := []Point{{Year: 2000, Value: 0.1, Label: "10.0%"}}
	if !reflect.DeepEqual(ts.Traces[0].Points, expected) {
		t.Errorf("=== expected ===\n%s\n=== actual ===\n%s", spew.Sdump(expected), spew.Sdump(ts.Traces[0].Points))
	}
	if ts.Caption != "X 2000 - 2000" {
		t.Errorf("unexpected caption %q", ts.Caption)
	}
}
