package ptt

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	prevPageRe = regexp.MustCompile(`/index(\d+)\.html$`)
	ipRe       = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Parser converts raw page bytes into listing stubs or full articles. All
// methods are pure with respect to the parser; the same bytes always yield
// the same result.
type Parser struct{}

// NewParser returns a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// LatestPage extracts the highest page number from the pagination control of
// a board's head page.
func (p *Parser) LatestPage(board string, body []byte) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parse board index: %w", err)
	}

	// The head page links "prev" at index N; the head itself is page N+1.
	latest := 0
	doc.Find("div.btn-group-paging a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(s.Text(), "上頁") {
			return true
		}
		if m := prevPageRe.FindStringSubmatch(href); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil {
				latest = n + 1
				return false
			}
		}
		return true
	})
	if latest > 0 {
		return latest, nil
	}

	// Fallback: highest index link anywhere on the page.
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !strings.Contains(href, "/bbs/"+board+"/index") {
			return
		}
		if m := prevPageRe.FindStringSubmatch(href); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > latest {
				latest = n
			}
		}
	})
	if latest == 0 {
		return 0, fmt.Errorf("pagination control missing for board %s", board)
	}
	return latest, nil
}

// ParseListing extracts article stubs from a listing page in display order.
func (p *Parser) ParseListing(board string, body []byte) ([]ArticleStub, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	rows := doc.Find("div.r-ent")
	if rows.Length() == 0 {
		return nil, fmt.Errorf("no listing rows for board %s", board)
	}

	stubs := make([]ArticleStub, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		link := row.Find("div.title a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			// Deleted articles keep the row but lose the link.
			return
		}
		stubs = append(stubs, ArticleStub{
			Board:       board,
			ArticleID:   ArticleIDFromHref(href),
			Title:       strings.TrimSpace(link.Text()),
			Author:      strings.TrimSpace(row.Find("div.author").Text()),
			Date:        strings.TrimSpace(row.Find("div.date").Text()),
			URL:         BaseURL + href,
			PushPreview: strings.TrimSpace(row.Find("div.nrec").Text()),
		})
	})
	return stubs, nil
}

// ParseArticle converts an article page into an Article. The caller supplies
// board, id and URL since the page itself does not repeat them reliably.
func (p *Parser) ParseArticle(board, articleID, url string, body []byte, now time.Time) (Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Article{}, fmt.Errorf("parse article: %w", err)
	}

	main := doc.Find("#main-content")
	if main.Length() == 0 {
		return Article{}, fmt.Errorf("article %s/%s has no main content", board, articleID)
	}

	art := Article{
		Board:     board,
		ArticleID: articleID,
		URL:       url,
		IP:        posterIP(main),
		CrawlTime: now,
	}

	metas := main.Find("div.article-metaline")
	if metas.Length() >= 3 {
		art.Author = strings.TrimSpace(metas.Eq(0).Find("span.article-meta-value").Text())
		art.Title = strings.TrimSpace(metas.Eq(1).Find("span.article-meta-value").Text())
		art.Date = strings.TrimSpace(metas.Eq(2).Find("span.article-meta-value").Text())
	}
	metas.Remove()
	main.Find("div.article-metaline-right").Remove()

	pushes := main.Find("div.push")
	pushes.Each(func(_ int, push *goquery.Selection) {
		msg, ok := parseMessage(push)
		if !ok {
			return
		}
		art.Messages = append(art.Messages, msg)
		switch msg.Type {
		case MessagePush:
			art.PushCount++
		case MessageBoo:
			art.BooCount++
		default:
			art.NeutralCount++
		}
	})
	pushes.Remove()
	art.TotalMessages = art.PushCount + art.BooCount + art.NeutralCount

	art.Content = articleBody(main)
	return art, nil
}

func parseMessage(push *goquery.Selection) (Message, bool) {
	tag := strings.TrimSpace(push.Find("span.push-tag").Text())
	author := strings.TrimSpace(push.Find("span.push-userid").Text())
	content := strings.TrimSpace(push.Find("span.push-content").Text())
	stamp := strings.TrimSpace(push.Find("span.push-ipdatetime").Text())
	if tag == "" || author == "" || stamp == "" {
		return Message{}, false
	}
	content = strings.TrimSpace(strings.TrimPrefix(content, ":"))

	ip := UnknownIP
	if m := ipRe.FindString(stamp); m != "" {
		ip = m
		stamp = strings.TrimSpace(strings.Replace(stamp, m, "", 1))
	}

	msg := Message{
		Type:      MessageNeutral,
		Author:    author,
		Content:   content,
		IP:        ip,
		Timestamp: stamp,
	}
	switch tag {
	case "推":
		msg.Type = MessagePush
	case "噓":
		msg.Type = MessageBoo
	}
	return msg, true
}

// posterIP scans the signature block for the poster's IP before any nodes
// are removed from the document.
func posterIP(main *goquery.Selection) string {
	for _, line := range strings.Split(main.Text(), "\n") {
		if !strings.Contains(line, "※ 發信站") {
			continue
		}
		if m := ipRe.FindString(line); m != "" {
			return m
		}
	}
	return UnknownIP
}

// articleBody flattens what remains of main-content after metadata and
// pushes were removed, skipping signature and separator lines.
func articleBody(main *goquery.Selection) string {
	var parts []string
	for _, line := range strings.Split(main.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "※") || strings.HasPrefix(line, "◆") || strings.HasPrefix(line, "--") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.Join(parts, " "), " "))
}
