// Path: internal/scraper/dataset.go
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"rank-sync/internal/config"
	"rank-sync/internal/domain"
	"rank-sync/internal/feed"
	"rank-sync/internal/logging"
	"rank-sync/internal/payload"
)

// categoryGenres maps categories that the current API cannot serve to the
// genre code understood by the legacy endpoint.
var categoryGenres = map[string]string{
	"games": "6014",
}

// GenreFor returns the legacy genre code of a category, or "".
func GenreFor(category string) string {
	return categoryGenres[category]
}

// URLBuilder builds chart URLs for both upstream endpoints.
type URLBuilder struct {
	BaseURL       string
	LegacyBaseURL string
	Limit         int
}

// NewURLBuilder returns a builder for the configured endpoints and limit.
func NewURLBuilder(scraperCfg config.ScraperConfig, limit int) URLBuilder {
	return URLBuilder{
		BaseURL:       strings.TrimRight(scraperCfg.BaseURL, "/"),
		LegacyBaseURL: strings.TrimRight(scraperCfg.LegacyBaseURL, "/"),
		Limit:         limit,
	}
}

// Build returns the URL for one chart and the genre code it filters on.
// Categories with a genre code go to the legacy endpoint.
func (b URLBuilder) Build(region, category, feedID string) (string, string) {
	region = url.PathEscape(strings.ToLower(region))
	if genre := GenreFor(category); genre != "" {
		return fmt.Sprintf("%s/%s/rss/%s/limit=%d/genre=%s/json",
			b.LegacyBaseURL, region, url.PathEscape(feed.LegacyName(feedID)), b.Limit, genre), genre
	}
	c := url.PathEscape(category)
	return fmt.Sprintf("%s/%s/%s/%s/%d/%s.json",
		b.BaseURL, region, c, url.PathEscape(feedID), b.Limit, c), ""
}

// Fetcher fetches and decodes one URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// DatasetFetcher fetches one (region, category, feed) chart, trying each
// feed candidate in order until one answers.
type DatasetFetcher struct {
	client Fetcher
	urls   URLBuilder
}

// NewDatasetFetcher creates a DatasetFetcher.
func NewDatasetFetcher(client Fetcher, urls URLBuilder) *DatasetFetcher {
	return &DatasetFetcher{client: client, urls: urls}
}

// FetchDataset returns the normalized dataset for the first feed candidate
// that succeeds. It returns *AllCandidatesFailedError when none does.
func (f *DatasetFetcher) FetchDataset(ctx context.Context, date, region, category, feedInput string) (domain.Dataset, error) {
	region = strings.ToLower(strings.TrimSpace(region))
	category = strings.ToLower(strings.TrimSpace(category))
	candidates := feed.Candidates(feedInput)

	var errs []error
	for _, candidate := range candidates {
		u, genre := f.urls.Build(region, category, candidate)
		res, err := f.client.Fetch(ctx, u)
		if err != nil {
			logging.Debug().Err(err).Str("region", region).Str("category", category).Str("feed", candidate).Msg("feed candidate failed")
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		items := payload.Normalize(date, res.Payload)
		source := u
		if res.Fallback {
			source = ""
		}
		return domain.Dataset{
			Date:     date,
			Region:   region,
			Category: category,
			FeedType: candidate,
			Limit:    f.urls.Limit,
			Genre:    genre,
			Source:   source,
			Total:    len(items),
			Items:    items,
		}, nil
	}

	return domain.Dataset{}, &AllCandidatesFailedError{
		Region:     region,
		Category:   category,
		Feed:       feedInput,
		Candidates: candidates,
		Errs:       errs,
	}
}
