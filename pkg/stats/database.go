package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Database keeps the raw downloads (indicator series and the country
// listing) so that the merge can be rerun without touching the network.
// Source is the Name of the indicator source the series came from.
type Database struct {
	Source     string
	StartYear  int
	EndYear    int
	Series     []*Series
	Countries  []*CountryInfo
	Downloaded time.Time
}

func NewDatabase(source string, start, end int) *Database {
	return &Database{Source: source, StartYear: start, EndYear: end}
}

// LoadIfExists returns found == false when dbFile does not exist.
func LoadIfExists(dbFile string) (db *Database, found bool, err error) {
	_, err = os.Stat(dbFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	data, err := ioutil.ReadFile(dbFile)
	if err != nil {
		return nil, false, err
	}

	db = new(Database)
	err = json.Unmarshal(data, db)
	if err != nil {
		return nil, false, fmt.Errorf("could not parse database '%s': %w", dbFile, err)
	}

	return db, true, nil
}

// Covers reports whether the cached downloads came from source and hold
// every indicator for the requested year range.
func (db *Database) Covers(source string, ids []Indicator, start, end int) bool {
	if db.Source != source {
		return false
	}
	if db.StartYear > start || db.EndYear < end {
		return false
	}
	for _, id := range ids {
		if db.GetSeries(id) == nil {
			return false
		}
	}
	return true
}

func (db *Database) GetSeries(id Indicator) *Series {
	for _, s := range db.Series {
		if s.Indicator == id {
			return s
		}
	}
	return nil
}

func (db *Database) Info() {
	countries := make(map[string]bool)
	firstYear := 0
	lastYear := 0
	observations := 0

	for _, s := range db.Series {
		for _, o := range s.Observations {
			if firstYear == 0 || firstYear > o.Year {
				firstYear = o.Year
			}
			if lastYear == 0 || lastYear < o.Year {
				lastYear = o.Year
			}
			countries[o.Country] = true
			observations++
		}
	}

	fmt.Printf(`
	Source       : %s
	Downloaded   : %s
	Years        : %d - %d
	Indicators   : %d
	Observations : %d
	Countries    : %d (listing: %d)
	`, db.Source, db.Downloaded.Format(time.RFC3339), firstYear, lastYear,
		len(db.Series), observations, len(countries), len(db.Countries))
	fmt.Println("")
}

func (db *Database) Save(dbFile string) error {
	js, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return ioutil.WriteFile(dbFile, js, 0644)
}

// Download fetches all indicators concurrently, plus the country listing.
// The first failure cancels the remaining downloads and nothing of the
// failed run is kept.
func (db *Database) Download(ctx context.Context, src IndicatorSource, countries CountrySource, ids []Indicator) error {
	series := make([]*Series, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			s, err := src.FetchIndicator(ctx, id, db.StartYear, db.EndYear)
			if err != nil {
				return fmt.Errorf("indicator %s: %w", id, err)
			}
			series[i] = s
			return nil
		})
	}

	var listing []*CountryInfo
	g.Go(func() error {
		cs, err := countries.FetchCountries(ctx)
		if err != nil {
			return fmt.Errorf("countries: %w", err)
		}
		listing = cs
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	for _, s := range series {
		if len(s.Observations) == 0 {
			return fmt.Errorf("indicator %s returned no observations", s.Indicator)
		}
	}

	sort.SliceStable(listing, func(i, j int) bool {
		return listing[i].Name < listing[j].Name
	})

	db.Source = src.Name()
	db.Series = series
	db.Countries = listing
	db.Downloaded = time.Now()

	return nil
}

// SeriesFor returns the series of ids in the given order, restricted to the
// year range.
func (db *Database) SeriesFor(ids []Indicator, start, end int) ([]*Series, error) {
	out := make([]*Series, 0, len(ids))
	for _, id := range ids {
		s := db.GetSeries(id)
		if s == nil {
			return nil, fmt.Errorf("indicator %s was not downloaded", id)
		}
		r := &Series{Indicator: id}
		for _, o := range s.Observations {
			if o.Year >= start && o.Year <= end {
				r.Observations = append(r.Observations, o)
			}
		}
		out = append(out, r)
	}
	return out, nil
}
