// Path: internal/storage/ledger.go
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"rank-sync/internal/domain"
)

// Ledger is the append-only NDJSON history journal. One process at a time
// may append; there is no file locking.
type Ledger struct {
	path string
}

// NewLedger creates a ledger stored at path.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// ledgerRow is the subset of a journal line needed to build its key.
// Country and MediaType are the field names used by the single-region
// journal that predates categories.
type ledgerRow struct {
	Date      string `json:"date"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	Category  string `json:"category"`
	MediaType string `json:"mediaType"`
	FeedType  string `json:"feedType"`
}

func (r ledgerRow) key() domain.DatasetKey {
	region, category := r.Region, r.Category
	if category == "" {
		category = r.MediaType
	}
	if region == "" {
		region = r.Country
		if category == "" {
			category = "apps"
		}
	}
	return domain.DatasetKey{
		Date:     r.Date,
		Region:   strings.ToLower(region),
		Category: category,
		FeedType: r.FeedType,
	}
}

// Keys returns the dedup keys of every parseable line.
func (l *Ledger) Keys() (map[domain.DatasetKey]struct{}, error) {
	existing, err := l.read()
	if err != nil {
		return nil, err
	}
	return parseKeys(existing), nil
}

// Append adds one record per dataset whose key is not yet in the journal,
// in dataset order, and returns how many lines were added. Existing lines
// are kept byte for byte.
func (l *Ledger) Append(datasets []domain.Dataset) (int, error) {
	existing, err := l.read()
	if err != nil {
		return 0, err
	}
	seen := parseKeys(existing)

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}

	appended := 0
	for _, d := range datasets {
		key := d.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		line, err := json.Marshal(domain.NewLedgerRecord(d))
		if err != nil {
			return 0, fmt.Errorf("encode ledger record: %w", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
		seen[key] = struct{}{}
		appended++
	}

	if appended == 0 {
		return 0, nil
	}
	if err := writeFileAtomic(l.path, buf.Bytes()); err != nil {
		return 0, fmt.Errorf("write ledger: %w", err)
	}
	return appended, nil
}

func (l *Ledger) read() ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return data, nil
}

// parseKeys skips lines that do not parse; they simply never match.
func parseKeys(data []byte) map[domain.DatasetKey]struct{} {
	keys := make(map[domain.DatasetKey]struct{})
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var row ledgerRow
		if err := json.Unmarshal(line, &row); err != nil {
			continue
		}
		keys[row.key()] = struct{}{}
	}
	return keys
}
