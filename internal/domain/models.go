// Path: internal/domain/models.go
package domain

import "time"

// DateLayout is the ISO calendar-day format used for every date field.
const DateLayout = "2006-01-02"

// LedgerTopN bounds how many items a ledger record keeps.
const LedgerTopN = 10

// Item is one ranked entry of a chart.
type Item struct {
	Date        string `json:"date" bson:"date"`
	Rank        int    `json:"rank" bson:"rank"`
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	ArtistName  string `json:"artistName" bson:"artistName"`
	Kind        string `json:"kind" bson:"kind"`
	ReleaseDate string `json:"releaseDate" bson:"releaseDate"`
	ArtworkURL  string `json:"artworkUrl" bson:"artworkUrl"`
	URL         string `json:"url" bson:"url"`
}

// Dataset is one (region, category, feed) observation for a single day.
// Total always equals len(Items) and Items are ordered by Rank starting at 1.
type Dataset struct {
	Date     string `json:"date" bson:"date"`
	Region   string `json:"region" bson:"region"`
	Category string `json:"category" bson:"category"`
	FeedType string `json:"feedType" bson:"feedType"`
	Limit    int    `json:"limit" bson:"limit"`
	Genre    string `json:"genre,omitempty" bson:"genre,omitempty"`
	// Source is the URL the payload came from. It is empty when the
	// payload was read from the fallback file.
	Source string `json:"source" bson:"source"`
	Total  int    `json:"total" bson:"total"`
	Items  []Item `json:"items" bson:"items"`
}

// Key returns the structural dedup key of the dataset.
func (d Dataset) Key() DatasetKey {
	return DatasetKey{Date: d.Date, Region: d.Region, Category: d.Category, FeedType: d.FeedType}
}

// DatasetKey identifies one dataset across runs. It is a plain comparable
// struct so it can be used as a map key without joining strings.
type DatasetKey struct {
	Date     string `json:"date" bson:"date"`
	Region   string `json:"region" bson:"region"`
	Category string `json:"category" bson:"category"`
	FeedType string `json:"feedType" bson:"feedType"`
}

// TaskKey identifies one fetch task of a run.
type TaskKey struct {
	Region   string
	Category string
	Feed     string
}

// Warning describes a task that produced no dataset.
type Warning struct {
	Region   string `json:"region"`
	Category string `json:"category"`
	FeedType string `json:"feedType"`
	Error    string `json:"error"`
}

// Aggregate is a named slice over the datasets of one run.
type Aggregate struct {
	Date          string    `json:"date"`
	Regions       []string  `json:"regions"`
	MediaTypes    []string  `json:"mediaTypes"`
	FeedTypes     []string  `json:"feedTypes"`
	Limit         int       `json:"limit"`
	TotalDatasets int       `json:"totalDatasets"`
	Warnings      []Warning `json:"warnings"`
	Datasets      []Dataset `json:"datasets"`
}

// LedgerRecord is the compact journal row appended per dataset.
type LedgerRecord struct {
	Date     string `json:"date"`
	Region   string `json:"region"`
	Category string `json:"category"`
	FeedType string `json:"feedType"`
	Limit    int    `json:"limit"`
	Total    int    `json:"total"`
	Source   string `json:"source"`
	Top10    []Item `json:"top10"`
}

// NewLedgerRecord builds the journal row for a dataset, keeping only the
// first LedgerTopN items.
func NewLedgerRecord(d Dataset) LedgerRecord {
	top := d.Items
	if len(top) > LedgerTopN {
		top = top[:LedgerTopN]
	}
	return LedgerRecord{
		Date:     d.Date,
		Region:   d.Region,
		Category: d.Category,
		FeedType: d.FeedType,
		Limit:    d.Limit,
		Total:    d.Total,
		Source:   d.Source,
		Top10:    top,
	}
}

// RunStatus represents the outcome of one sync run.
type RunStatus string

const (
	// RunStatusOK means every task produced a dataset.
	RunStatusOK RunStatus = "OK"
	// RunStatusPartial means some tasks failed but at least one succeeded.
	RunStatusPartial RunStatus = "PARTIAL"
	// RunStatusFailed means no task produced a dataset.
	RunStatusFailed RunStatus = "FAILED"
)

// StatusDocument records the last run, stored in the mirror database.
type StatusDocument struct {
	ID         string    `bson:"_id"`
	RunID      string    `bson:"runId"`
	Date       string    `bson:"date"`
	Status     RunStatus `bson:"status"`
	Succeeded  int       `bson:"succeeded"`
	Failed     int       `bson:"failed"`
	FinishedAt time.Time `bson:"finishedAt"`
}
