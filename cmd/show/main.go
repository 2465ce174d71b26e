package main

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/anrid/world-migration/pkg/config"
	"github.com/anrid/world-migration/pkg/stats"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	configFile string
	dataFile   string
	year       int
	topMetric  string
	lineMetric string
	countries  []string
	dump       bool
)

var showCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the migration ranking, map values and time series for a year",
	SilenceUsage: true,
	RunE:         runShow,
}

func init() {
	showCmd.Flags().StringVarP(&configFile, "config", "c", "world-migration.yaml", "YAML config file (optional)")
	showCmd.Flags().StringVarP(&dataFile, "data", "d", "", "Merged CSV file (defaults to the config)")
	showCmd.Flags().IntVarP(&year, "year", "y", 0, "Year of the ranking and map (defaults to the config)")
	showCmd.Flags().StringVarP(&topMetric, "metric", "m", "", "Metric of the ranking and map")
	showCmd.Flags().StringVar(&lineMetric, "series-metric", "", "Metric of the time series")
	showCmd.Flags().StringSliceVar(&countries, "countries", nil, "Countries and regions of the time series")
	showCmd.Flags().BoolVar(&dump, "dump", false, "Dump the query results")
}

func main() {
	if err := showCmd.Execute(); err != nil {
		log.Panic(err)
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	if dataFile == "" {
		dataFile = cfg.Data.CSV
	}
	if year == 0 {
		year = cfg.Dashboard.DefaultYear
	}
	if topMetric == "" {
		topMetric = string(cfg.Dashboard.TopMetric)
	}
	if lineMetric == "" {
		lineMetric = string(cfg.Dashboard.BottomMetric)
	}
	if !cmd.Flags().Changed("countries") {
		countries = cfg.Dashboard.DefaultEntities
	}

	top, err := stats.ParseMetric(topMetric)
	if err != nil {
		return err
	}
	line, err := stats.ParseMetric(lineMetric)
	if err != nil {
		return err
	}

	rows, err := stats.LoadFile(dataFile)
	if err != nil {
		return err
	}
	data := stats.NewDataset(rows, cfg.Policy())

	log.Printf("Loaded %d rows, %d countries and regions, years with migration data: %d",
		len(rows), len(data.Entities()), len(data.Years()))

	// New locale number printer.
	p := message.NewPrinter(language.English)

	rk, err := data.Ranking(year, top)
	if err != nil {
		return err
	}
	if dump {
		spew.Dump(rk)
	}

	p.Printf("\n\nTop and Bottom Countries, %s, Year: %d\n\n", rk.Label, rk.Year)
	if len(rk.Entries) == 0 {
		p.Println("No data.")
	}
	for i, e := range rk.Entries {
		if i == stats.RankingSize {
			p.Println("...")
		}
		p.Printf("%02d. %-35s  --  %15.1f%s\n", i+1, e.Country, e.Value, rk.TickSuffix)
	}

	sn, err := data.Snapshot(year, top)
	if err != nil {
		return err
	}
	if dump {
		spew.Dump(sn)
	}

	p.Printf("\n\nMap, %s, Year: %d (%d countries)\n\n", sn.Label, sn.Year, len(sn.Entries))
	for _, e := range sn.Entries {
		p.Printf("%-3s  %-35s  %15s\n", e.ISO3, e.Country, e.Label)
	}

	ts, err := data.TimeSeries(countries, line)
	if errors.Is(err, stats.ErrNoUpdate) {
		p.Println("\n\nNo countries selected for the time series.")
		return nil
	}
	if err != nil {
		return err
	}
	if dump {
		spew.Dump(ts)
	}

	p.Printf("\n\n%s\n%s\n\n", ts.Label, ts.Caption)
	for _, t := range ts.Traces {
		var values []string
		for _, pt := range t.Points {
			v := pt.Label
			if v == "" {
				v = p.Sprintf("%.f", pt.Value)
			}
			values = append(values, fmt.Sprintf("%d: %s", pt.Year, v))
		}
		p.Printf("%-25s  %s\n", t.Name, strings.Join(values, ", "))
	}

	return nil
}
