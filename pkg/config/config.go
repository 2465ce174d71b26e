// Package config loads the settings shared by the create, show and serve
// commands from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/anrid/world-migration/pkg/stats"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Data      Data      `yaml:"data"`
	Source    Source    `yaml:"source"`
	Dashboard Dashboard `yaml:"dashboard"`
}

// Data locates the files produced by the create command.
type Data struct {
	// CSV is the merged table read by the dashboard.
	CSV string `yaml:"csv"`

	// XLSX is an optional workbook export of the same table.
	XLSX string `yaml:"xlsx"`

	// Cache keeps the raw downloads. Empty disables it.
	Cache string `yaml:"cache"`
}

type Source struct {
	API         string            `yaml:"api"`
	StartYear   int               `yaml:"startYear"`
	EndYear     int               `yaml:"endYear"`
	Indicators  []stats.Indicator `yaml:"indicators"`
	DelayMillis int               `yaml:"delayMillis"`

	// Workbooks maps indicator ids to bulk download files (path or URL).
	// When set, indicators are read from the workbooks instead of the API.
	Workbooks map[stats.Indicator]string `yaml:"workbooks"`
}

type Dashboard struct {
	Addr              string       `yaml:"addr"`
	DefaultYear       int          `yaml:"defaultYear"`
	TopMetric         stats.Metric `yaml:"topMetric"`
	BottomMetric      stats.Metric `yaml:"bottomMetric"`
	DefaultEntities   []string     `yaml:"defaultEntities"`
	AggregateRegion   string       `yaml:"aggregateRegion"`
	ExcludedCountries []string     `yaml:"excludedCountries"`
}

func Default() *Config {
	return &Config{
		Data: Data{
			CSV:   "migration_population.csv",
			Cache: "/tmp/world-migration.json",
		},
		Source: Source{
			API:         stats.WorldBankAPI,
			StartYear:   1950,
			EndYear:     2018,
			Indicators:  append([]stats.Indicator(nil), stats.DefaultIndicators...),
			DelayMillis: 250,
		},
		Dashboard: Dashboard{
			Addr:              ":8050",
			DefaultYear:       2017,
			TopMetric:         stats.MigrationPerc,
			BottomMetric:      stats.PopDensity,
			DefaultEntities:   []string{"World", "United States", "China", "Japan", "Germany"},
			AggregateRegion:   stats.AggregatesRegion,
			ExcludedCountries: append([]string(nil), stats.DefaultExcludedCountries...),
		},
	}
}

// Load reads file over the defaults. A missing file is not an error when
// optional is set.
func Load(file string, optional bool) (*Config, error) {
	c := Default()
	if file == "" {
		return c, nil
	}

	data, err := ioutil.ReadFile(file)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("could not parse config '%s': %w", file, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config '%s': %w", file, err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Source.StartYear > c.Source.EndYear {
		return fmt.Errorf("startYear %d is after endYear %d", c.Source.StartYear, c.Source.EndYear)
	}
	if len(c.Source.Indicators) == 0 {
		return errors.New("no indicators")
	}
	// The merged table needs each of its indicator columns exactly once.
	seen := make(map[stats.Indicator]bool)
	for _, id := range c.Source.Indicators {
		if _, ok := id.Column(); !ok {
			return fmt.Errorf("unknown indicator %s", id)
		}
		if seen[id] {
			return fmt.Errorf("indicator %s listed twice", id)
		}
		seen[id] = true
	}
	for _, id := range stats.DefaultIndicators {
		if !seen[id] {
			return fmt.Errorf("indicator %s is required", id)
		}
	}
	for _, m := range []stats.Metric{c.Dashboard.TopMetric, c.Dashboard.BottomMetric} {
		if _, err := stats.ParseMetric(string(m)); err != nil {
			return err
		}
	}
	return nil
}

// Policy returns the country selection policy of the dashboard.
func (c *Config) Policy() stats.Policy {
	return stats.Policy{
		AggregateRegion:   c.Dashboard.AggregateRegion,
		ExcludedCountries: c.Dashboard.ExcludedCountries,
	}
}
