package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Serp.Lang != "en" || cfg.Places.RadiusM != 1000 || cfg.Scan.Concurrency != 2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Scan.RatePerSecond != 2 || cfg.Scan.Shape != "circle" {
		t.Errorf("scan defaults = %+v", cfg.Scan)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "geogrid.yaml")
	yaml := "serp:\n  api_key: from-file\n  country: es\nscan:\n  concurrency: 8\n"
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GEOGRID_PLACES_API_KEY", "from-env")
	t.Setenv("GEOGRID_SERP_COUNTRY", "fr")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Serp.APIKey != "from-file" {
		t.Errorf("serp key = %q", cfg.Serp.APIKey)
	}
	if cfg.Places.APIKey != "from-env" {
		t.Errorf("places key = %q", cfg.Places.APIKey)
	}
	if cfg.Serp.Country != "fr" {
		t.Errorf("env should override file, country = %q", cfg.Serp.Country)
	}
	if cfg.Scan.Concurrency != 8 {
		t.Errorf("concurrency = %d", cfg.Scan.Concurrency)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
