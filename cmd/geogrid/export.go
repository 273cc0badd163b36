package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rendis/geogrid/internal/engine/geo"
	"github.com/rendis/geogrid/internal/engine/storage"
	"github.com/rendis/geogrid/internal/engine/summary"
	"github.com/rendis/geogrid/internal/model"
)

func runExport(args []string) error {
	var dbPath, scanID, outputPath, format string

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to .db file (required)")
	fs.StringVar(&scanID, "scan", "", "Scan id (default: latest scan in the database)")
	fs.StringVar(&outputPath, "output", "", "Output file path, - for stdout (default: same dir as db)")
	fs.StringVar(&format, "format", "csv", "Export format: csv, json or geojson")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geogrid export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  geogrid export -db ./scans/geogrid_20260212_101500.db\n")
		fmt.Fprintf(os.Stderr, "  geogrid export -db scans.db -format geojson -output heatmap.geojson\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}

	var write func(io.Writer, model.Scan, []model.VisibilityRecord) error
	switch format {
	case "csv":
		write = writeCSV
	case "json":
		write = writeJSON
	case "geojson":
		write = writeGeoJSON
	default:
		return fmt.Errorf("unsupported format: %s (csv, json or geojson)", format)
	}

	if outputPath == "" {
		dir := filepath.Dir(dbPath)
		base := strings.TrimSuffix(filepath.Base(dbPath), ".db")
		outputPath = filepath.Join(dir, base+"."+format)
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	scan, records, err := loadScan(store, scanID)
	if err != nil {
		return fmt.Errorf("loading scan: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("scan %s has no records", scan.ID)
	}

	if outputPath == "-" {
		return write(os.Stdout, scan, records)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	if err := write(f, scan, records); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Exported %d records to %s\n", len(records), outputPath)
	return nil
}

func writeCSV(out io.Writer, _ model.Scan, records []model.VisibilityRecord) error {
	w := csv.NewWriter(out)

	header := []string{"keyword", "lat", "lng", "dist_km", "distance_bucket"}
	for _, c := range model.Channels() {
		header = append(header, c.String()+"_rank")
	}
	header = append(header, "observed_at")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Keyword,
			strconv.FormatFloat(r.Point.Lat, 'f', 6, 64),
			strconv.FormatFloat(r.Point.Lng, 'f', 6, 64),
			strconv.FormatFloat(r.Point.DistanceKm, 'f', 3, 64),
			summary.Bucket(r.Point.DistanceKm),
		}
		for _, c := range model.Channels() {
			row = append(row, csvRank(r.Rank(c)))
		}
		row = append(row, r.ObservedAt.UTC().Format("2006-01-02T15:04:05Z07:00"))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func csvRank(r *int) string {
	if r == nil {
		return ""
	}
	return strconv.Itoa(*r)
}

type jsonExport struct {
	Scan       model.Scan               `json:"scan"`
	Summary    summary.Summary          `json:"summary"`
	ByKeyword  []summary.Group          `json:"by_keyword"`
	ByDistance []summary.Group          `json:"by_distance"`
	Records    []model.VisibilityRecord `json:"records"`
}

func writeJSON(out io.Writer, scan model.Scan, records []model.VisibilityRecord) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonExport{
		Scan:       scan,
		Summary:    summary.Summarize(records),
		ByKeyword:  summary.ByKeyword(records),
		ByDistance: summary.ByDistance(records),
		Records:    records,
	})
}

func writeGeoJSON(out io.Writer, _ model.Scan, records []model.VisibilityRecord) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(geo.RecordsFeatureCollection(records))
}
