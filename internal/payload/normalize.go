// Path: internal/payload/normalize.go
package payload

import "rank-sync/internal/domain"

// Normalize maps a decoded payload to items stamped with date. Ranks follow
// list position starting at 1. It never fails: missing fields become "".
func Normalize(date string, raw RawPayload) []domain.Item {
	switch p := raw.(type) {
	case ResultsPayload:
		items := make([]domain.Item, len(p.Results))
		for i, rec := range p.Results {
			items[i] = fromResult(rec)
			items[i].Date = date
			items[i].Rank = i + 1
		}
		return items
	case EntryPayload:
		items := make([]domain.Item, len(p.Entries))
		for i, entry := range p.Entries {
			items[i] = fromEntry(entry)
			items[i].Date = date
			items[i].Rank = i + 1
		}
		return items
	default:
		return []domain.Item{}
	}
}

func fromResult(rec any) domain.Item {
	return domain.Item{
		ID:          str(lookup(rec, "id")),
		Name:        str(lookup(rec, "name")),
		ArtistName:  str(lookup(rec, "artistName")),
		Kind:        str(lookup(rec, "kind")),
		ReleaseDate: str(lookup(rec, "releaseDate")),
		ArtworkURL:  str(lookup(rec, "artworkUrl100")),
		URL:         str(lookup(rec, "url")),
	}
}

func fromEntry(entry any) domain.Item {
	item := domain.Item{
		ID:          str(lookup(entry, "id", "attributes", "im:id")),
		Name:        str(lookup(entry, "im:name", "label")),
		ArtistName:  str(lookup(entry, "im:artist", "label")),
		Kind:        str(lookup(entry, "im:contentType", "attributes", "term")),
		ReleaseDate: str(lookup(entry, "im:releaseDate", "label")),
		URL:         entryLink(entry),
	}

	// Artwork comes smallest first; the last image is the largest.
	if images := asList(lookup(entry, "im:image"), true); len(images) > 0 {
		item.ArtworkURL = str(lookup(images[len(images)-1], "label"))
	}
	return item
}

func entryLink(entry any) string {
	for _, link := range asList(lookup(entry, "link"), true) {
		if href := str(lookup(link, "attributes", "href")); href != "" {
			return href
		}
	}
	return str(lookup(entry, "id", "label"))
}
