package feedfetch

import (
	"time"

	"feedrelay/internal/domain/entity"
)

// FetchedFeed is the normalized result of fetching and parsing a feed URL.
type FetchedFeed struct {
	Title       string
	Link        string
	Description string
	FeedType    entity.FeedType
	Items       []FetchedItem
}

// FetchedItem is one normalized entry of a FetchedFeed, prior to being
// matched against stored FeedItem rows.
type FetchedItem struct {
	Title           string
	Link            string
	Description     string
	Author          string
	GUID            string
	PublicationDate time.Time
}
