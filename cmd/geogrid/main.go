package main

import (
	"fmt"
	"os"

	"github.com/rendis/geogrid/internal/config"
	"github.com/rendis/geogrid/internal/tui"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		var err error
		switch os.Args[1] {
		case "scan":
			err = runScan(os.Args[2:])
		case "grid":
			err = runGrid(os.Args[2:])
		case "report":
			err = runReport(os.Args[2:])
		case "export":
			err = runExport(os.Args[2:])
		case "version":
			fmt.Println("geogrid " + version)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			printUsage()
			os.Exit(2)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", colorErr("error:"), err)
			os.Exit(1)
		}
		return
	}

	// No subcommand → launch TUI
	cfg, err := config.Load("")
	if err == nil {
		err = tui.Run(version, cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorErr("error:"), err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `geogrid - local search visibility on a geographic grid

Usage:
  geogrid                 Launch interactive TUI
  geogrid scan [flags]    Run a visibility scan
  geogrid grid [flags]    Print the scan grid as GeoJSON without searching
  geogrid report [flags]  Print the summary of a stored scan
  geogrid export [flags]  Export a stored scan to CSV, JSON or GeoJSON
  geogrid version         Show version

Run 'geogrid <command> --help' for flags.
`)
}
