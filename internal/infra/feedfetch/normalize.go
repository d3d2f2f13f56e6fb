package feedfetch

import (
	"strings"
	"time"

	"feedrelay/internal/domain/entity"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
)

// normalize converts a parsed gofeed.Feed into a FetchedFeed, applying
// C2's normalization rules: items without a link are dropped, adjacent
// duplicates by (link, title) are collapsed, and each item's publication
// date falls back to updated, then to now.
func normalize(feed *gofeed.Feed, requestedURL string, now time.Time) *FetchedFeed {
	result := &FetchedFeed{
		Title:       feed.Title,
		Link:        requestedURL,
		Description: feed.Description,
		FeedType:    mapFeedType(feed.FeedType),
	}

	var prevLink, prevTitle string
	havePrev := false

	for _, raw := range feed.Items {
		if raw.Link == "" {
			continue
		}

		item := normalizeItem(raw, now)

		if havePrev && item.Link == prevLink && item.Title == prevTitle {
			continue
		}

		result.Items = append(result.Items, item)
		prevLink, prevTitle = item.Link, item.Title
		havePrev = true
	}

	return result
}

func normalizeItem(raw *gofeed.Item, now time.Time) FetchedItem {
	return FetchedItem{
		Title:           raw.Title,
		Link:            raw.Link,
		Description:     raw.Description,
		Author:          joinAuthors(raw.Authors),
		GUID:            raw.GUID,
		PublicationDate: resolvePublicationDate(raw, now),
	}
}

// applyContentFields zeroes the advisory content fields a feed's
// ContentFields whitelist disallows. Title and Link are never zeroed:
// together they form an item's identity (see entity.FeedItem), not
// optional content, so a whitelist can't suppress them. PublicationDate
// drives the newer-than ordering Sync relies on and is kept regardless.
func applyContentFields(item FetchedItem, feed *entity.Feed) FetchedItem {
	if feed == nil {
		return item
	}
	if !feed.AllowsField(entity.ContentFieldDescription) {
		item.Description = ""
	}
	if !feed.AllowsField(entity.ContentFieldAuthor) {
		item.Author = ""
	}
	if !feed.AllowsField(entity.ContentFieldGUID) {
		item.GUID = ""
	}
	return item
}

// joinAuthors renders a feed item's contributor list as a comma-joined
// string, skipping entries with no name.
func joinAuthors(people []*gofeed.Person) string {
	if len(people) == 0 {
		return ""
	}
	names := make([]string, 0, len(people))
	for _, p := range people {
		if p == nil || p.Name == "" {
			continue
		}
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// resolvePublicationDate applies the publication_date fallback chain:
// the item's own parsed publish date, else its raw string reparsed with
// dateparse (for feeds gofeed's own RFC822/RFC3339/W3C-DTF attempts
// reject), else the same for "updated", else now.
func resolvePublicationDate(raw *gofeed.Item, now time.Time) time.Time {
	if raw.PublishedParsed != nil {
		return *raw.PublishedParsed
	}
	if raw.Published != "" {
		if t, err := dateparse.ParseAny(raw.Published); err == nil {
			return t
		}
	}
	if raw.UpdatedParsed != nil {
		return *raw.UpdatedParsed
	}
	if raw.Updated != "" {
		if t, err := dateparse.ParseAny(raw.Updated); err == nil {
			return t
		}
	}
	return now
}

// mapFeedType translates gofeed's detected feed type string to our
// three-valued entity.FeedType, treating anything gofeed doesn't
// recognize as RSS (the most permissive of the three wire formats, e.g.
// RDF/RSS 1.0 feeds which gofeed parses through its RSS parser).
func mapFeedType(raw string) entity.FeedType {
	switch raw {
	case "atom":
		return entity.FeedTypeAtom
	case "json":
		return entity.FeedTypeJSON
	default:
		return entity.FeedTypeRSS
	}
}
