package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anrid/world-migration/pkg/config"
	"github.com/anrid/world-migration/pkg/stats"
	"github.com/spf13/cobra"
)

var (
	configFile string
	refresh    bool
	flags      config.Config
)

var createCmd = &cobra.Command{
	Use:          "create",
	Short:        "Download World Bank migration and population indicators and merge them into one CSV",
	SilenceUsage: true,
	RunE:         runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&configFile, "config", "c", "world-migration.yaml", "YAML config file (optional)")
	createCmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the download cache and fetch everything again")
	createCmd.Flags().StringVarP(&flags.Data.CSV, "out", "o", "", "Output CSV file")
	createCmd.Flags().StringVar(&flags.Data.XLSX, "xlsx", "", "Also export the table to this XLSX file")
	createCmd.Flags().StringVar(&flags.Data.Cache, "cache", "", "Raw download cache file")
	createCmd.Flags().StringVar(&flags.Source.API, "api", "", "World Bank API base URL")
	createCmd.Flags().IntVar(&flags.Source.StartYear, "start", 0, "First year")
	createCmd.Flags().IntVar(&flags.Source.EndYear, "end", 0, "Last year")
}

func main() {
	if err := createCmd.Execute(); err != nil {
		log.Panic(err)
	}
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	override(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := cfg.Source
	stats.DownloadDelay = time.Duration(src.DelayMillis) * time.Millisecond

	wb := stats.NewWorldBank(src.API)
	wb.Client = &http.Client{Timeout: 2 * time.Minute}

	var indicators stats.IndicatorSource = wb
	if len(src.Workbooks) > 0 {
		indicators = stats.NewWorkbook(src.Workbooks)
	}

	var db *stats.Database
	if cfg.Data.Cache != "" && !refresh {
		cached, found, err := stats.LoadIfExists(cfg.Data.Cache)
		if err != nil {
			return err
		}
		if found && cached.Covers(indicators.Name(), src.Indicators, src.StartYear, src.EndYear) {
			log.Printf("Using download cache %s", cfg.Data.Cache)
			db = cached
		}
	}

	if db == nil {
		db = stats.NewDatabase(indicators.Name(), src.StartYear, src.EndYear)
		if err := db.Download(ctx, indicators, wb, src.Indicators); err != nil {
			return err
		}
		if cfg.Data.Cache != "" {
			if err := db.Save(cfg.Data.Cache); err != nil {
				return err
			}
		}
	}

	db.Info()

	series, err := db.SeriesFor(src.Indicators, src.StartYear, src.EndYear)
	if err != nil {
		return err
	}
	rows, err := stats.Merge(series, db.Countries)
	if err != nil {
		return err
	}
	if err := stats.Validate(rows, src.StartYear, src.EndYear); err != nil {
		return err
	}

	if err := stats.WriteFile(cfg.Data.CSV, rows); err != nil {
		return err
	}
	log.Printf("Wrote %d rows to %s", len(rows), cfg.Data.CSV)

	if cfg.Data.XLSX != "" {
		if err := stats.WriteXLSX(cfg.Data.XLSX, rows); err != nil {
			return err
		}
		log.Printf("Wrote %d rows to %s", len(rows), cfg.Data.XLSX)
	}

	return nil
}

func override(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.Data.CSV = flags.Data.CSV
	}
	if f.Changed("xlsx") {
		cfg.Data.XLSX = flags.Data.XLSX
	}
	if f.Changed("cache") {
		cfg.Data.Cache = flags.Data.Cache
	}
	if f.Changed("api") {
		cfg.Source.API = flags.Source.API
	}
	if f.Changed("start") {
		cfg.Source.StartYear = flags.Source.StartYear
	}
	if f.Changed("end") {
		cfg.Source.EndYear = flags.Source.EndYear
	}
}
