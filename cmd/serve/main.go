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
	"github.com/anrid/world-migration/pkg/dashboard"
	"github.com/anrid/world-migration/pkg/stats"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dataFile   string
	addr       string
)

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Serve the migration dashboard",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "world-migration.yaml", "YAML config file (optional)")
	serveCmd.Flags().StringVarP(&dataFile, "data", "d", "", "Merged CSV file (defaults to the config)")
	serveCmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (defaults to the config)")
}

func main() {
	if err := serveCmd.Execute(); err != nil {
		log.Panic(err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, !cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if dataFile == "" {
		dataFile = cfg.Data.CSV
	}
	if addr == "" {
		addr = cfg.Dashboard.Addr
	}

	rows, err := stats.LoadFile(dataFile)
	if err != nil {
		return err
	}
	data := stats.NewDataset(rows, cfg.Policy())
	log.Printf("Loaded %d rows from %s (%d countries and regions)", len(rows), dataFile, len(data.Entities()))

	server := &http.Server{
		Addr:         addr,
		Handler:      dashboard.NewServer(data, cfg.Dashboard),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Dashboard listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-stop:
	}

	log.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
