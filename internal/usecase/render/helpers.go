package render

import (
	"fmt"
	"html"

	"feedrelay/internal/utils/text"

	"github.com/mbleigh/raymond"
)

// init registers the template helpers once per process. raymond keeps
// its helper registry as package-level state, same as the handlebars.js
// it mirrors, so registration belongs at package init, not per-render.
func init() {
	raymond.RegisterHelper("substring", helperSubstring)
	raymond.RegisterHelper("bold", helperBold)
	raymond.RegisterHelper("italic", helperItalic)
	raymond.RegisterHelper("create_link", helperCreateLink)
}

// helperSubstring returns the first n codepoints of x, e.g.
// {{substring bot_item_description 200}}.
func helperSubstring(x string, n int) string {
	return text.TruncateRunes(x, n)
}

// helperBold wraps x in the transport's bold markup. Its argument has
// already been through stripHTML, so the only tags in the final body
// are the ones these helpers add.
func helperBold(x string) raymond.SafeString {
	return raymond.SafeString(fmt.Sprintf("<b>%s</b>", html.EscapeString(x)))
}

// helperItalic wraps x in the transport's italic markup.
func helperItalic(x string) raymond.SafeString {
	return raymond.SafeString(fmt.Sprintf("<i>%s</i>", html.EscapeString(x)))
}

// helperCreateLink renders an anchor, e.g. {{create_link bot_item_name bot_item_link}}.
func helperCreateLink(label, url string) raymond.SafeString {
	return raymond.SafeString(fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(label)))
}
