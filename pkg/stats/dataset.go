package stats

import (
	"sort"
)

// AggregatesRegion tags composite entities (World, income groups, ...) in the
// country listing.
const AggregatesRegion = "Aggregates"

// DefaultExcludedCountries are aggregates that the country listing does not
// tag as such, because their names differ from the indicator data.
var DefaultExcludedCountries = []string{"Latin America & Caribbean", "Sub-Saharan Africa"}

// Policy decides which rows of the table are individual countries.
type Policy struct {
	AggregateRegion   string
	ExcludedCountries []string
}

func DefaultPolicy() Policy {
	return Policy{
		AggregateRegion:   AggregatesRegion,
		ExcludedCountries: append([]string(nil), DefaultExcludedCountries...),
	}
}

// Dataset is the read-only query context built once from the merged table.
type Dataset struct {
	all       []*Record
	countries []*Record
	entities  []string
	years     []int
}

// NewDataset derives the views of the table. The records must not be
// modified afterwards.
func NewDataset(rows []*Record, p Policy) *Dataset {
	d := &Dataset{all: rows}

	// A country is any name with at least one row outside the aggregate
	// region. Rows without metadata count as countries.
	isCountry := make(map[string]bool)
	for _, r := range rows {
		if r.Region != p.AggregateRegion {
			isCountry[r.Country] = true
		}
	}
	for _, name := range p.ExcludedCountries {
		delete(isCountry, name)
	}

	seen := make(map[string]bool)
	for _, r := range rows {
		if isCountry[r.Country] {
			d.countries = append(d.countries, r)
		}
		if !seen[r.Country] {
			seen[r.Country] = true
			d.entities = append(d.entities, r.Country)
		}
	}

	years := make(map[int]bool)
	for _, r := range d.countries {
		if r.NetMigration.Valid {
			years[r.Year] = true
		}
	}
	for y := range years {
		d.years = append(d.years, y)
	}
	sort.Ints(d.years)

	return d
}

// All returns every row, aggregates included.
func (d *Dataset) All() []*Record {
	return d.all
}

// Countries returns the rows of individual countries.
func (d *Dataset) Countries() []*Record {
	return d.countries
}

// Entities lists every country and region name in order of appearance.
func (d *Dataset) Entities() []string {
	return d.entities
}

// Years lists the years with net migration data for at least one country.
func (d *Dataset) Years() []int {
	return d.years
}

// HasEntity reports whether name is a known country or region.
func (d *Dataset) HasEntity(name string) bool {
	for _, e := range d.entities {
		if e == name {
			return true
		}
	}
	return false
}

// Predicate selects rows.
type Predicate func(r *Record) bool

func InYear(year int) Predicate {
	return func(r *Record) bool { return r.Year == year }
}

func OfCountry(name string) Predicate {
	return func(r *Record) bool { return r.Country == name }
}

// Filter keeps the rows where metric is present and every predicate holds,
// in table order.
func Filter(rows []*Record, metric Metric, preds ...Predicate) []*Record {
	var out []*Record
next:
	for _, r := range rows {
		if !r.Metric(metric).Valid {
			continue
		}
		for _, p := range preds {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// SortBy sorts rows ascending by key. Rows with equal keys keep their order.
func SortBy(rows []*Record, key func(r *Record) float64) {
	sort.SliceStable(rows, func(i, j int) bool {
		return key(rows[i]) < key(rows[j])
	})
}

// ByMetric is a sort key on a metric column.
func ByMetric(m Metric) func(r *Record) float64 {
	return func(r *Record) float64 { return r.Metric(m).Value }
}

// ByYear is a sort key on the year.
func ByYear(r *Record) float64 {
	return float64(r.Year)
}

// Select is Filter followed by an ascending sort on the metric.
func Select(rows []*Record, metric Metric, preds ...Predicate) []*Record {
	out := Filter(rows, metric, preds...)
	SortBy(out, ByMetric(metric))
	return out
}
