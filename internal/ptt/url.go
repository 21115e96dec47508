package ptt

import (
	"fmt"
	"strings"
)

// BaseURL is the scheme+host every board URL hangs off.
const BaseURL = "https://www.ptt.cc"

// BoardIndexURL returns the URL of a board's head page (no page argument).
func BoardIndexURL(board string) string {
	return fmt.Sprintf("%s/bbs/%s/index.html", BaseURL, board)
}

// PageURL returns the URL of a specific listing page.
func PageURL(board string, page int) string {
	return fmt.Sprintf("%s/bbs/%s/index%d.html", BaseURL, board, page)
}

// ArticleURL returns the URL of a full article. The id is accepted with or
// without the .html suffix.
func ArticleURL(board, articleID string) string {
	id := strings.TrimSuffix(articleID, ".html")
	return fmt.Sprintf("%s/bbs/%s/%s.html", BaseURL, board, id)
}

// ArticleIDFromHref extracts the article id from a listing link href like
// "/bbs/Gossiping/M.1700000000.A.ABC.html".
func ArticleIDFromHref(href string) string {
	parts := strings.Split(href, "/")
	last := parts[len(parts)-1]
	return strings.TrimSuffix(last, ".html")
}
