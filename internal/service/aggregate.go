// Path: internal/service/aggregate.go
package service

import (
	"path"

	"rank-sync/internal/domain"
	"rank-sync/internal/feed"
	"rank-sync/internal/scheduler"
	"rank-sync/internal/storage"
)

// LatestFile is the name of the rolling copy written next to every slice.
const LatestFile = "latest.json"

// TaskResult is the scheduler outcome of one fetch task.
type TaskResult = scheduler.Result[domain.TaskKey, domain.Dataset]

// Partition splits task results into the datasets of successful tasks and
// one warning per failed task, both in task order. Two tasks can resolve
// to the same dataset through feed fallback; the first one is kept.
func Partition(results []TaskResult) ([]domain.Dataset, []domain.Warning, []error) {
	var (
		datasets []domain.Dataset
		warnings []domain.Warning
		errs     []error
	)
	seen := make(map[domain.DatasetKey]struct{})
	for _, r := range results {
		if r.Err != nil {
			warnings = append(warnings, domain.Warning{
				Region:   r.Task.Region,
				Category: r.Task.Category,
				FeedType: feed.Normalize(r.Task.Feed),
				Error:    r.Err.Error(),
			})
			errs = append(errs, r.Err)
			continue
		}
		key := r.Value.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		datasets = append(datasets, r.Value)
	}
	return datasets, warnings, errs
}

// BuildShards derives every persisted slice of a run from its datasets:
// the global aggregate, one aggregate per category, per region and per
// region×category, and each dataset on its own. Every slice is written to
// a canonical path, a dated path and a latest path.
func BuildShards(date string, limit int, datasets []domain.Dataset, warnings []domain.Warning) []storage.Shard {
	var shards []storage.Shard

	add := func(name, canonical, dir string, body any) {
		shards = append(shards, storage.Shard{
			Name:  name,
			Paths: []string{canonical, path.Join(dir, date+".json"), path.Join(dir, LatestFile)},
			Body:  body,
		})
	}

	shards = append(shards, storage.Shard{
		Name:  "global",
		Paths: []string{"aggregate.json", date + ".json", LatestFile},
		Body:  newAggregate(date, limit, datasets, warnings),
	})

	for _, c := range categoriesOf(datasets) {
		inCategory := func(region, category string) bool { return category == c }
		add("category "+c, path.Join("categories", c+".json"), path.Join("categories", c),
			newAggregate(date, limit, filterDatasets(datasets, inCategory), filterWarnings(warnings, inCategory)))
	}

	for _, r := range regionsOf(datasets) {
		inRegion := func(region, category string) bool { return region == r }
		regionDatasets := filterDatasets(datasets, inRegion)
		add("region "+r, path.Join("regions", r+".json"), path.Join("regions", r),
			newAggregate(date, limit, regionDatasets, filterWarnings(warnings, inRegion)))

		for _, c := range categoriesOf(regionDatasets) {
			inSlice := func(region, category string) bool { return region == r && category == c }
			sliceDatasets := filterDatasets(regionDatasets, inSlice)
			add("region "+r+" category "+c, path.Join("regions", r, c+".json"), path.Join("regions", r, c),
				newAggregate(date, limit, sliceDatasets, filterWarnings(warnings, inSlice)))

			for _, d := range sliceDatasets {
				add("dataset "+r+"/"+c+"/"+d.FeedType, path.Join("regions", r, c, d.FeedType+".json"),
					path.Join("regions", r, c, d.FeedType), d)
			}
		}
	}

	return shards
}

func newAggregate(date string, limit int, datasets []domain.Dataset, warnings []domain.Warning) domain.Aggregate {
	agg := domain.Aggregate{
		Date:          date,
		Regions:       regionsOf(datasets),
		MediaTypes:    categoriesOf(datasets),
		FeedTypes:     feedTypesOf(datasets),
		Limit:         limit,
		TotalDatasets: len(datasets),
		Warnings:      warnings,
		Datasets:      datasets,
	}
	if agg.Warnings == nil {
		agg.Warnings = []domain.Warning{}
	}
	if agg.Datasets == nil {
		agg.Datasets = []domain.Dataset{}
	}
	return agg
}

type sliceFilter func(region, category string) bool

func filterDatasets(datasets []domain.Dataset, keep sliceFilter) []domain.Dataset {
	out := []domain.Dataset{}
	for _, d := range datasets {
		if keep(d.Region, d.Category) {
			out = append(out, d)
		}
	}
	return out
}

func filterWarnings(warnings []domain.Warning, keep sliceFilter) []domain.Warning {
	out := []domain.Warning{}
	for _, w := range warnings {
		if keep(w.Region, w.Category) {
			out = append(out, w)
		}
	}
	return out
}

func regionsOf(datasets []domain.Dataset) []string {
	return distinct(datasets, func(d domain.Dataset) string { return d.Region })
}

func categoriesOf(datasets []domain.Dataset) []string {
	return distinct(datasets, func(d domain.Dataset) string { return d.Category })
}

func feedTypesOf(datasets []domain.Dataset) []string {
	return distinct(datasets, func(d domain.Dataset) string { return d.FeedType })
}

// distinct keeps first-seen order.
func distinct(datasets []domain.Dataset, field func(domain.Dataset) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, d := range datasets {
		v := field(d)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
