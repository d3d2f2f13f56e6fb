package entity

import "time"

// FeedItem is one entry of a Feed. Its composite identity is
// (FeedID, Title, Link) — GUID is advisory only, since many feeds omit
// or mutate it across fetches. Items are immutable after insert: a
// conflicting insert is a no-op, never an update.
type FeedItem struct {
	ID              int64
	FeedID          int64
	Title           string
	Link            string
	Description     string
	Author          string
	GUID            string
	PublicationDate time.Time
	CreatedAt       time.Time
	ContentHash     string
}

// IsNewerThan reports whether this item is strictly newer than other by
// the tuple ordering Sync uses to decide whether a fetch produced fresh
// content: publication date at least as recent, and a different link.
func (i *FeedItem) IsNewerThan(other *FeedItem) bool {
	if other == nil {
		return true
	}
	if i.PublicationDate.Before(other.PublicationDate) {
		return false
	}
	return i.Link != other.Link
}
