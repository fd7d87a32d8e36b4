package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Sync.Regions, []string{"cn"}) {
		t.Errorf("regions = %v", cfg.Sync.Regions)
	}
	if !reflect.DeepEqual(cfg.Sync.Feeds, []string{"top-free"}) {
		t.Errorf("feeds = %v", cfg.Sync.Feeds)
	}
	if cfg.Sync.Limit != 100 || cfg.Sync.MaxRetries != 3 || cfg.Sync.Concurrency != 3 {
		t.Errorf("sync defaults = %+v", cfg.Sync)
	}
	if cfg.Sync.RetryDelay() != 1500*time.Millisecond {
		t.Errorf("retry delay = %v", cfg.Sync.RetryDelay())
	}
	if cfg.Output.DataDir != "data" {
		t.Errorf("data dir = %q", cfg.Output.DataDir)
	}
	if cfg.Scraper.UserAgent != "ios-rank-history-bot/1.0" {
		t.Errorf("user agent = %q", cfg.Scraper.UserAgent)
	}
	if cfg.Scraper.Timeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Scraper.Timeout())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SYNC_REGIONS", "us, gb,jp")
	t.Setenv("SYNC_CATEGORIES", "apps,games")
	t.Setenv("SYNC_LIMIT", "50")
	t.Setenv("SYNC_RETRY_DELAY_MS", "10")
	t.Setenv("OUTPUT_DATA_DIR", "/tmp/out")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Sync.Regions, []string{"us", "gb", "jp"}) {
		t.Errorf("regions = %#v", cfg.Sync.Regions)
	}
	if !reflect.DeepEqual(cfg.Sync.Categories, []string{"apps", "games"}) {
		t.Errorf("categories = %#v", cfg.Sync.Categories)
	}
	if cfg.Sync.Limit != 50 {
		t.Errorf("limit = %d", cfg.Sync.Limit)
	}
	if cfg.Sync.RetryDelay() != 10*time.Millisecond {
		t.Errorf("retry delay = %v", cfg.Sync.RetryDelay())
	}
	if cfg.Output.DataDir != "/tmp/out" {
		t.Errorf("data dir = %q", cfg.Output.DataDir)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("APPSTORE_COUNTRY", "us")
	t.Setenv("APPSTORE_FEED", "topfreeapplications")
	t.Setenv("FETCH_RETRIES", "5")
	t.Setenv("APPSTORE_FALLBACK_FILE", "fallback.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Sync.Regions, []string{"us"}) {
		t.Errorf("regions = %v", cfg.Sync.Regions)
	}
	if !reflect.DeepEqual(cfg.Sync.Feeds, []string{"topfreeapplications"}) {
		t.Errorf("feeds = %v", cfg.Sync.Feeds)
	}
	if cfg.Sync.MaxRetries != 5 {
		t.Errorf("max retries = %d", cfg.Sync.MaxRetries)
	}
	if cfg.Sync.FallbackFile != "fallback.json" {
		t.Errorf("fallback = %q", cfg.Sync.FallbackFile)
	}
}

func TestLoadPrimaryEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("SYNC_REGIONS", "jp")
	t.Setenv("APPSTORE_COUNTRY", "us")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg.Sync.Regions, []string{"jp"}) {
		t.Errorf("regions = %v", cfg.Sync.Regions)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"SYNC_MAX_RETRIES": "0",
		"SYNC_CONCURRENCY": "0",
		"SYNC_LIMIT":       "500",
		"LOG_FORMAT":       "xml",
	}
	for env, val := range tests {
		t.Run(env, func(t *testing.T) {
			t.Setenv(env, val)
			_, err := Load()
			if err == nil {
				t.Fatalf("%s=%s should be rejected", env, val)
			}
			if !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadRejectsUnsafeDimensions(t *testing.T) {
	tests := []struct{ env, val string }{
		{"SYNC_REGIONS", "us,../x"},
		{"SYNC_REGIONS", "a/b"},
		{"SYNC_CATEGORIES", "latest"},
		{"SYNC_FEEDS", "2026-10-18"},
		{"SYNC_FEEDS", ".hidden"},
	}
	for _, tc := range tests {
		t.Run(tc.env+"="+tc.val, func(t *testing.T) {
			t.Setenv(tc.env, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), "pathsegment") {
				t.Errorf("err = %v, want pathsegment rejection", err)
			}
		})
	}
}

func TestLoadAcceptsMixedCaseDimensions(t *testing.T) {
	t.Setenv("SYNC_REGIONS", "US, Gb")
	t.Setenv("SYNC_FEEDS", "TopFreeApplications")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList([]string{" us ", "gb,jp", "", " , "})
	if !reflect.DeepEqual(got, []string{"us", "gb", "jp"}) {
		t.Errorf("splitList = %#v", got)
	}
}
