package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestShardWriter_WriteAllWritesEveryPath(t *testing.T) {
	dir := t.TempDir()
	w := NewShardWriter(dir)

	shards := []Shard{
		{Name: "global", Paths: []string{"aggregate.json", "2026-10-18.json", "latest.json"}, Body: map[string]int{"totalDatasets": 2}},
		{Name: "us", Paths: []string{"regions/us.json", "regions/us/latest.json"}, Body: []string{"a"}},
	}
	n, err := w.WriteAll(shards)
	if err != nil {
		t.Fatalf("write all: %v", err)
	}
	if n != 5 {
		t.Errorf("written = %d, want 5", n)
	}

	data, err := os.ReadFile(filepath.Join(dir, "latest.json"))
	if err != nil {
		t.Fatalf("read latest: %v", err)
	}
	if got := string(data); got != "{\n  \"totalDatasets\": 2\n}\n" {
		t.Errorf("latest.json = %q", got)
	}

	same, _ := os.ReadFile(filepath.Join(dir, "aggregate.json"))
	if string(same) != string(data) {
		t.Error("paths of one shard must carry identical bytes")
	}

	if _, err := os.Stat(filepath.Join(dir, "regions", "us", "latest.json")); err != nil {
		t.Errorf("nested directory not created: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestShardWriter_OverwritesWholesale(t *testing.T) {
	dir := t.TempDir()
	w := NewShardWriter(dir)

	if _, err := w.WriteAll([]Shard{{Name: "a", Paths: []string{"x.json"}, Body: []int{1, 2, 3, 4, 5}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.WriteAll([]Shard{{Name: "a", Paths: []string{"x.json"}, Body: []int{1}}}); err != nil {
		t.Fatal(err)
	}

	var got []int
	if err := w.ReadJSON("x.json", &got); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %v, want [1]", got)
	}
}

func TestShardWriter_FailedPathDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	// A regular file where a directory is needed makes MkdirAll fail.
	if err := os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewShardWriter(dir)

	n, err := w.WriteAll([]Shard{{Name: "mixed", Paths: []string{"blocked/a.json", "ok.json"}, Body: 1}})
	if err == nil {
		t.Fatal("expected an error for the blocked path")
	}
	if n != 1 {
		t.Errorf("written = %d, want 1", n)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "ok.json")); statErr != nil {
		t.Errorf("ok.json missing: %v", statErr)
	}
}

func TestShardWriter_ReadJSONMissing(t *testing.T) {
	w := NewShardWriter(t.TempDir())
	var v any
	if err := w.ReadJSON("nope.json", &v); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
