package feedfetch

import "errors"

// ErrTooManyRedirects indicates the redirect chain exceeded Config.MaxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrNotAFeed indicates the fetched content could not be parsed as RSS,
// Atom, or JSON Feed.
var ErrNotAFeed = errors.New("url does not point to a parseable feed")
