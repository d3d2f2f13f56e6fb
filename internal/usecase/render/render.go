// Package render implements the Mustache-like template renderer shared
// by the delivery pipeline: it substitutes a fixed set of item fields
// into a per-chat or per-subscription template, strips any HTML the
// upstream feed embedded in its text fields, and clamps the result to
// what the chat transport accepts.
package render

import (
	"fmt"
	"html"
	"strings"
	"time"

	"feedrelay/internal/domain/entity"
	"feedrelay/internal/utils/text"

	"github.com/mbleigh/raymond"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultTemplate is used for any chat or subscription that has not set
// its own template.
const DefaultTemplate = "{{bot_feed_name}}\n\n{{bot_item_name}}\n\n{{bot_item_description}}\n\n{{bot_date}}\n\n{{bot_item_link}}\n\n"

// MaxChars bounds a rendered message body, matching the chat
// transport's own message-length limit.
const MaxChars = 4000

// RenderErrorText is the body substituted when the template itself
// fails to parse or execute.
const RenderErrorText = "Failed to render template"

// EmptyMessageText is the body substituted when a template renders
// successfully but produces nothing (after HTML-stripping, trimming,
// and truncation) — Telegram rejects empty messages, so delivery must
// never hand it one.
const EmptyMessageText = "According to your template the message is empty. Telegram doesn't support empty messages. That's why we're sending this placeholder message."

// dateLayout is the format bot_date is rendered in, after applying the
// chat's utc_offset_minutes.
const dateLayout = "2006-01-02 15:04:05"

var stripper = bluemonday.StrictPolicy()

// Item is the data one rendering pass substitutes into a template.
type Item struct {
	FeedName        string
	FeedLink        string
	ItemName        string
	ItemLink        string
	ItemDescription string
	ItemAuthor      string
	PublicationDate time.Time
}

// ItemFromEntities builds an Item from the stored Feed/FeedItem pair.
func ItemFromEntities(feed *entity.Feed, item *entity.FeedItem) Item {
	return Item{
		FeedName:        feed.Title,
		FeedLink:        feed.Link,
		ItemName:        item.Title,
		ItemLink:        item.Link,
		ItemDescription: item.Description,
		ItemAuthor:      item.Author,
		PublicationDate: item.PublicationDate,
	}
}

// Render applies tpl (falling back to DefaultTemplate when blank) to
// item, stripping HTML from its text fields first and converting
// bot_date by utcOffsetMin (nil means UTC). The result is trimmed,
// stripped of the zero-width unicode set, and truncated to MaxChars.
// It is never empty: a malformed template yields RenderErrorText, and
// a template that renders to nothing yields EmptyMessageText, both
// with a non-nil error so the caller can log the failure without
// letting it block delivery (§7 RenderError).
func Render(tpl string, item Item, utcOffsetMin *int) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		tpl = DefaultTemplate
	}

	ctx := map[string]interface{}{
		"bot_feed_name":        stripHTML(item.FeedName),
		"bot_feed_link":        item.FeedLink,
		"bot_item_name":        stripHTML(item.ItemName),
		"bot_item_link":        item.ItemLink,
		"bot_item_description": stripHTML(item.ItemDescription),
		"bot_item_author":      stripHTML(item.ItemAuthor),
		"bot_date":             formatDate(item.PublicationDate, utcOffsetMin),
	}

	out, err := raymond.Render(tpl, ctx)
	if err != nil {
		return RenderErrorText, fmt.Errorf("render template: %w", err)
	}

	out = clean(out)
	if out == "" {
		return EmptyMessageText, fmt.Errorf("render template: produced an empty message")
	}
	return out, nil
}

// stripHTML removes every HTML tag from s and unescapes any entities
// bluemonday leaves behind, so the plain-text result can be safely
// re-escaped by the template engine without doubling entities.
func stripHTML(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(stripper.Sanitize(s))
}

// formatDate renders t in UTC shifted by offsetMin minutes, defaulting
// to UTC when offsetMin is nil.
func formatDate(t time.Time, offsetMin *int) string {
	shifted := t.UTC()
	if offsetMin != nil {
		shifted = shifted.Add(time.Duration(*offsetMin) * time.Minute)
	}
	return shifted.Format(dateLayout)
}

// htmlSpace is the literal entity some feeds leak through instead of a
// real space character.
const htmlSpace = "&#32;"

// emptyChars are the zero-width/invisible codepoints stripped from a
// rendered body: U+200B (zero width space), U+200C/U+200D (zero width
// non-joiner/joiner), U+2060 (word joiner), U+FEFF (byte order mark /
// zero width no-break space).
var emptyChars = map[rune]struct{}{
	0x200B: {}, 0x200C: {}, 0x200D: {}, 0x2060: {}, 0xFEFF: {},
}

// clean truncates a rendered body to MaxChars, trims it, and strips
// emptyChars and htmlSpace.
func clean(s string) string {
	s = text.TruncateRunes(s, MaxChars)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, htmlSpace, "")
	s = strings.Map(func(r rune) rune {
		if _, ok := emptyChars[r]; ok {
			return -1
		}
		return r
	}, s)
	return s
}
