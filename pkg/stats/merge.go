package stats

import (
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyTable is returned when a merge yields no rows at all.
var ErrEmptyTable = errors.New("merged table is empty")

type mergeKey struct {
	country string
	year    int
}

func (k mergeKey) less(o mergeKey) bool {
	if k.country != o.country {
		return k.country < o.country
	}
	return k.year < o.year
}

func setMetric(r *Record, m Metric, v Number) {
	switch m {
	case Population:
		r.Population = v
	case PopDensity:
		r.PopDensity = v
	case NetMigration:
		r.NetMigration = v
	case MigrationPerc:
		r.MigrationPerc = v
	}
}

// outerJoin merges one indicator into rows on (country, year). Keys present
// on one side only keep Null on the other side. Keys repeated on both sides
// yield every combination. The result is ordered by (country, year).
func outerJoin(rows []*Record, s *Series, col Metric) []*Record {
	left := make(map[mergeKey][]*Record)
	right := make(map[mergeKey][]Observation)
	var keys []mergeKey

	for _, r := range rows {
		k := mergeKey{r.Country, r.Year}
		if _, ok := left[k]; !ok {
			keys = append(keys, k)
		}
		left[k] = append(left[k], r)
	}
	for _, o := range s.Observations {
		k := mergeKey{o.Country, o.Year}
		if _, ok := left[k]; !ok {
			if _, ok := right[k]; !ok {
				keys = append(keys, k)
			}
		}
		right[k] = append(right[k], o)
	}

	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})

	merged := make([]*Record, 0, len(keys))
	for _, k := range keys {
		ls, rs := left[k], right[k]
		switch {
		case len(ls) > 0 && len(rs) > 0:
			for _, l := range ls {
				for _, o := range rs {
					c := *l
					setMetric(&c, col, o.Value)
					merged = append(merged, &c)
				}
			}
		case len(ls) > 0:
			merged = append(merged, ls...)
		default:
			for _, o := range rs {
				r := &Record{Country: k.country, Year: k.year}
				setMetric(r, col, o.Value)
				merged = append(merged, r)
			}
		}
	}

	return merged
}

// DeriveMigrationPerc sets net migration as a fraction of population.
// It is Null whenever population is missing or zero.
func DeriveMigrationPerc(rows []*Record) {
	for _, r := range rows {
		r.MigrationPerc = r.NetMigration.Div(r.Population)
	}
}

// attachCountries left-joins the country listing on the country name.
func attachCountries(rows []*Record, countries []*CountryInfo) []*Record {
	byName := make(map[string][]*CountryInfo)
	for _, c := range countries {
		byName[c.Name] = append(byName[c.Name], c)
	}

	out := make([]*Record, 0, len(rows))
	for _, r := range rows {
		cs := byName[r.Country]
		if len(cs) == 0 {
			out = append(out, r)
			continue
		}
		for _, c := range cs {
			rc := *r
			rc.setMetadata(c)
			out = append(out, &rc)
		}
	}
	return out
}

// Merge builds the migration table: the series are outer-joined in order on
// (country, year), migration_perc is derived and the country listing is
// attached.
func Merge(series []*Series, countries []*CountryInfo) ([]*Record, error) {
	if len(series) == 0 {
		return nil, errors.New("no indicator series to merge")
	}

	bound := make(map[Metric]bool)
	var rows []*Record
	for _, s := range series {
		col, ok := s.Indicator.Column()
		if !ok {
			return nil, fmt.Errorf("unknown indicator %s", s.Indicator)
		}
		if bound[col] {
			return nil, fmt.Errorf("indicator %s merged twice", s.Indicator)
		}
		bound[col] = true
		rows = outerJoin(rows, s, col)
	}
	for _, id := range DefaultIndicators {
		if col, _ := id.Column(); !bound[col] {
			return nil, fmt.Errorf("no series for indicator %s (%s)", id, col)
		}
	}

	DeriveMigrationPerc(rows)

	return attachCountries(rows, countries), nil
}

// Validate checks a merged table before it replaces the last good file.
func Validate(rows []*Record, start, end int) error {
	if len(rows) == 0 {
		return ErrEmptyTable
	}
	for i, r := range rows {
		if r.Country == "" {
			return fmt.Errorf("row %d has no country", i)
		}
		if r.Year < start || r.Year > end {
			return fmt.Errorf("row %d (%s) has year %d outside %d - %d", i, r.Country, r.Year, start, end)
		}
	}
	return nil
}
