package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rendis/geogrid/internal/engine/storage"
	"github.com/rendis/geogrid/internal/engine/summary"
	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/tui/components"
)

func runReport(args []string) error {
	var dbPath, scanID string
	var list bool

	fs := flag.NewFlagSet("report", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to .db file (required)")
	fs.StringVar(&scanID, "scan", "", "Scan id (default: latest scan in the database)")
	fs.BoolVar(&list, "list", false, "List the scans stored in the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geogrid report [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  geogrid report -db ./scans/geogrid_20260212_101500.db\n")
		fmt.Fprintf(os.Stderr, "  geogrid report -db scans.db -list\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	if list {
		scans, err := store.ListScans()
		if err != nil {
			return err
		}
		for _, s := range scans {
			n, _ := store.Count(s.ID)
			fmt.Printf("%s  %s  %-24s %4d records  %v\n",
				s.ID, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Business, n, s.Keywords)
		}
		return nil
	}

	scan, records, err := loadScan(store, scanID)
	if err != nil {
		return err
	}

	fmt.Printf("%s  (scan %s, %s)\n", scan.Business, scan.ID, scan.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("Center %.5f, %.5f  %s r=%.2fkm s=%.2fkm\n\n",
		scan.Config.CenterLat, scan.Config.CenterLng, scan.Config.Shape, scan.Config.RadiusKm, scan.Config.SpacingKm)
	printSummary(os.Stdout, records)
	return nil
}

func loadScan(store *storage.Store, scanID string) (model.Scan, []model.VisibilityRecord, error) {
	var scan model.Scan
	var err error
	if scanID == "" {
		scan, err = store.LatestScan()
	} else {
		scan, err = store.GetScan(scanID)
	}
	if err != nil {
		return model.Scan{}, nil, err
	}
	records, err := store.LoadRecords(scan.ID)
	if err != nil {
		return model.Scan{}, nil, err
	}
	return scan, records, nil
}

// printSummary writes the overall, per-keyword and per-distance tables.
func printSummary(w io.Writer, records []model.VisibilityRecord) {
	overall := []summary.Group{{Key: "all", Summary: summary.Summarize(records)}}
	fmt.Fprintln(w, components.SummaryTable("Overall", overall))
	fmt.Fprintln(w)
	fmt.Fprintln(w, components.SummaryTable("By keyword", summary.ByKeyword(records)))
	fmt.Fprintln(w)
	fmt.Fprintln(w, components.SummaryTable("By distance", summary.ByDistance(records)))
}
