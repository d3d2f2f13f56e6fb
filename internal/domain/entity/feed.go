package entity

import "time"

// FeedType identifies the wire format a Feed was parsed from.
type FeedType string

const (
	FeedTypeRSS  FeedType = "rss"
	FeedTypeAtom FeedType = "atom"
	FeedTypeJSON FeedType = "json"
)

// ContentField names one of the fields a feed item can carry. Used to
// build an ordered ingest whitelist on Feed.ContentFields.
type ContentField string

const (
	ContentFieldLink            ContentField = "link"
	ContentFieldTitle           ContentField = "title"
	ContentFieldPublicationDate ContentField = "publication_date"
	ContentFieldGUID            ContentField = "guid"
	ContentFieldDescription     ContentField = "description"
	ContentFieldAuthor          ContentField = "author"
)

// Feed is a subscribed source URL, normalized into a stable (link, type)
// pair shared across every chat subscribed to it. Feeds are created the
// first time a chat subscribes to a link and removed by the Cleaner once
// no subscription references them, or by Sync once they have failed to
// fetch for longer than StaleHorizon.
type Feed struct {
	ID            int64
	Link          string
	FeedType      FeedType
	Title         string
	Description   string
	SyncedAt      *time.Time
	Error         string
	ContentFields []ContentField
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StaleHorizon is the duration a feed may fail to fetch before Sync
// retires it (deletes it and notifies every subscribed chat).
const StaleHorizon = 48 * time.Hour

// MaxItemsPerFeed bounds how many FeedItem rows the Cleaner keeps per
// feed, newest first by PublicationDate.
const MaxItemsPerFeed = 1000

// IsStale reports whether the feed has been failing to sync for longer
// than StaleHorizon, measured from SyncedAt when it is set and from
// CreatedAt otherwise.
func (f *Feed) IsStale(now time.Time) bool {
	since := f.CreatedAt
	if f.SyncedAt != nil {
		since = *f.SyncedAt
	}
	return now.Sub(since) >= StaleHorizon
}

// AllowsField reports whether field should be persisted on ingest. An
// empty ContentFields whitelist allows every field (advisory filter,
// opt-in only).
func (f *Feed) AllowsField(field ContentField) bool {
	if len(f.ContentFields) == 0 {
		return true
	}
	for _, allowed := range f.ContentFields {
		if allowed == field {
			return true
		}
	}
	return false
}
