package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rendis/geogrid/internal/config"
	"github.com/rendis/geogrid/internal/engine/geo"
	"github.com/rendis/geogrid/internal/engine/scanner"
	"github.com/rendis/geogrid/internal/session"
	"github.com/rendis/geogrid/internal/tui"
	"github.com/rendis/geogrid/internal/tui/views"
)

func runScan(args []string) error {
	var g gridFlags
	var business, keywordsStr, placeID, domain, outputDir string
	var concurrency int
	var ratePerSec float64
	var useTUI bool

	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	g.register(fs)
	fs.StringVar(&business, "business", "", "Business name to track (required)")
	fs.StringVar(&keywordsStr, "keywords", "", "Comma-separated search keywords (required)")
	fs.StringVar(&placeID, "place-id", "", "Google place id of the business (default: looked up via Places)")
	fs.StringVar(&domain, "domain", "", "Website domain of the business, e.g. joespizza.com")
	fs.StringVar(&outputDir, "output", "", "Output directory for scan files (default from config: ./scans)")
	fs.IntVar(&concurrency, "concurrency", 0, "Max concurrent searches (default from config: 2)")
	fs.Float64Var(&ratePerSec, "rate", 0, "Max searches per second, 0 for config value")
	fs.BoolVar(&useTUI, "tui", false, "Show live progress and the report in the TUI")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geogrid scan [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		fmt.Fprintf(os.Stderr, "  GEOGRID_SERP_API_KEY    SERP API key (organic and local pack)\n")
		fmt.Fprintf(os.Stderr, "  GEOGRID_PLACES_API_KEY  Google Places API key (maps)\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  geogrid scan -business \"Joe's Pizza\" -keywords \"pizza,pizza delivery\" -lat 40.7306 -lng -73.9866\n")
		fmt.Fprintf(os.Stderr, "  geogrid scan -business \"Blue Bottle\" -address \"66 Mint St, San Francisco\" -radius 2 -spacing 0.5 -tui\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}
	req, err := g.request(fs, cfg)
	if err != nil {
		return err
	}
	req.Business = business
	req.Keywords = session.SplitKeywords(keywordsStr)
	req.PlaceID = placeID
	req.Domain = domain
	req.OutputDir = outputDir
	req.Concurrency = concurrency
	req.RatePerSecond = ratePerSec

	if business == "" {
		return fmt.Errorf("-business is required")
	}
	if len(req.Keywords) == 0 {
		return fmt.Errorf("-keywords is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	openCtx, openCancel := context.WithTimeout(ctx, geocodeTimeout)
	sess, err := session.Open(openCtx, cfg, req, geo.NewGeocoder())
	openCancel()
	if err != nil {
		return err
	}
	defer sess.Close()
	printNotes(sess.Notes)

	if useTUI {
		err := tui.RunScan(version, cfg, views.StartScanMsg{Session: sess})
		tui.SaveRecent(sess.DBPath, business)
		return err
	}

	scan, points, params := sess.Scan, sess.Points, sess.Params
	store, logger := sess.Store, sess.Logger
	dbPath, logPath := sess.DBPath, sess.LogPath
	sc := scan.Config
	keywords := params.Keywords

	fmt.Fprintf(os.Stderr, "Log: %s\n", logPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	startTime := time.Now()
	fmt.Fprintf(os.Stderr, "Scanning: %d keywords x %d points = %d searches (concurrency=%d)\n",
		len(keywords), len(points), len(keywords)*len(points), params.Concurrency)

	res, runErr := scanner.Run(ctx, points, params, sess.Provider, store, logger, nil)
	if res == nil {
		return fmt.Errorf("scanning: %w", runErr)
	}

	duration := time.Since(startTime).Truncate(time.Second)
	total, _ := store.Count(scan.ID)
	stats := res.Stats

	logger.Printf("Done: searches=%d found=%d stored=%d errors=%d rate_limits=%d",
		stats.JobsDone.Load(), stats.Found.Load(), stats.Stored.Load(),
		stats.Errors.Load(), stats.RateLimits.Load())

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  %s\n", colorOK("GeoGrid Complete"))
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Business:   %s\n", business)
	fmt.Fprintf(os.Stderr, "  Keywords:   %s\n", strings.Join(keywords, ", "))
	fmt.Fprintf(os.Stderr, "  Center:     %.5f, %.5f (%s r=%.2fkm s=%.2fkm)\n", sc.CenterLat, sc.CenterLng, sc.Shape, sc.RadiusKm, sc.SpacingKm)
	fmt.Fprintf(os.Stderr, "  Points:     %d\n", len(points))
	fmt.Fprintf(os.Stderr, "  Searches:   %d/%d\n", stats.JobsDone.Load(), stats.JobsTotal)
	fmt.Fprintf(os.Stderr, "  Found:      %d\n", stats.Found.Load())
	fmt.Fprintf(os.Stderr, "  Stored:     %d\n", total)
	fmt.Fprintf(os.Stderr, "  Errors:     %d\n", stats.Errors.Load())
	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", duration)
	fmt.Fprintf(os.Stderr, "  Scan ID:    %s\n", scan.ID)
	fmt.Fprintf(os.Stderr, "  Database:   %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "  Log:        %s\n", logPath)
	fmt.Fprintf(os.Stderr, "══════════════════════════════\n\n")

	printSummary(os.Stdout, res.Records)
	if n := stats.Errors.Load(); n > 0 {
		fmt.Fprintf(os.Stderr, "\n%s %d failed searches left no record and are not counted in the percentages above\n",
			colorWarn("Note:"), n)
	}

	tui.SaveRecent(dbPath, business)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("scanning: %w", runErr)
	}
	return nil
}

// geocodeTimeout bounds session preparation, which geocodes the address
// and looks up the place id before any search is issued.
const geocodeTimeout = 30 * time.Second
