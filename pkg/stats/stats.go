package stats

import (
	"encoding/json"
	"fmt"
	"math"
)

// Number is a statistical value that may be missing from the source data.
// Missing values are never treated as zero.
type Number struct {
	Value float64
	Valid bool
}

// Some returns a valid Number.
func Some(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Null is the missing value.
var Null = Number{}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Null
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Some(v)
	return nil
}

// Div returns n / d, or Null when either side is missing or d is zero.
func (n Number) Div(d Number) Number {
	if !n.Valid || !d.Valid || d.Value == 0 {
		return Null
	}
	return Some(n.Value / d.Value)
}

// CountryInfo is one entry of the World Bank country listing.
// Aggregates (World, Euro area, income groups...) have Region "Aggregates".
type CountryInfo struct {
	ISO3c       string
	ISO2c       string
	Name        string
	Region      string
	AdminRegion string
	IncomeLevel string
	LendingType string
	CapitalCity string
	Longitude   string
	Latitude    string
}

// Observation is a single value of an indicator.
type Observation struct {
	Country string
	ISO3    string
	Year    int
	Value   Number
}

// Series holds all observations of one indicator.
type Series struct {
	Indicator    Indicator
	Observations []Observation
}

// Record is one row of the merged migration table.
// (Country, Year) is not unique, outer joins may produce duplicates.
type Record struct {
	Country       string
	Year          int
	Population    Number
	PopDensity    Number
	NetMigration  Number
	MigrationPerc Number

	// Country metadata, empty when the country is not in the listing.
	ISO3c       string
	ISO2c       string
	Region      string
	AdminRegion string
	IncomeLevel string
	LendingType string
	CapitalCity string
	Longitude   string
	Latitude    string
}

// Metric returns the value of the given metric column.
func (r *Record) Metric(m Metric) Number {
	switch m {
	case NetMigration:
		return r.NetMigration
	case MigrationPerc:
		return r.MigrationPerc
	case PopDensity:
		return r.PopDensity
	case Population:
		return r.Population
	}
	return Null
}

func (r *Record) setMetadata(c *CountryInfo) {
	r.ISO3c = c.ISO3c
	r.ISO2c = c.ISO2c
	r.Region = c.Region
	r.AdminRegion = c.AdminRegion
	r.IncomeLevel = c.IncomeLevel
	r.LendingType = c.LendingType
	r.CapitalCity = c.CapitalCity
	r.Longitude = c.Longitude
	r.Latitude = c.Latitude
}

// Metric is a column of the merged table that can be queried.
type Metric string

const (
	NetMigration  Metric = "net_migration"
	MigrationPerc Metric = "migration_perc"
	PopDensity    Metric = "pop_density"
	Population    Metric = "population"
)

// Metrics lists the metrics selectable in the dashboard, in menu order.
var Metrics = []Metric{NetMigration, MigrationPerc, PopDensity}

var metricLabels = map[Metric]string{
	NetMigration:  "Net migrants",
	MigrationPerc: "Net migrants (% of population)",
	PopDensity:    "Population density (inhabitants per kilometer square)",
	Population:    "Population",
}

// ParseMetric validates a metric selectable in the dashboard. The empty
// string is returned as is, meaning "nothing selected".
func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return "", nil
	}
	for _, m := range Metrics {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown metric '%s'", s)
}

func (m Metric) Label() string {
	return metricLabels[m]
}

func (m Metric) IsPercentage() bool {
	return m == MigrationPerc
}

func (m Metric) IsDensity() bool {
	return m == PopDensity
}

// Indicator is a World Bank indicator id, e.g. SP.POP.TOTL.
type Indicator string

const (
	IndicatorPopulation   Indicator = "SP.POP.TOTL"
	IndicatorPopDensity   Indicator = "EN.POP.DNST"
	IndicatorNetMigration Indicator = "SM.POP.NETM"
)

// DefaultIndicators are fetched in merge order: population first, then
// density, then migration.
var DefaultIndicators = []Indicator{IndicatorPopulation, IndicatorPopDensity, IndicatorNetMigration}

var indicatorColumns = map[Indicator]Metric{
	IndicatorPopulation:   Population,
	IndicatorPopDensity:   PopDensity,
	IndicatorNetMigration: NetMigration,
}

// Column returns the semantic column name of the indicator.
func (i Indicator) Column() (Metric, bool) {
	m, ok := indicatorColumns[i]
	return m, ok
}
