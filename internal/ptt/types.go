// Package ptt defines the board data model and the HTML parsers for the
// target site's listing and article pages.
package ptt

import "time"

// MessageType classifies a threaded reply.
type MessageType string

// Reply classes as rendered by the site.
const (
	MessagePush    MessageType = "push"
	MessageBoo     MessageType = "boo"
	MessageNeutral MessageType = "neutral"
)

// UnknownIP is the explicit value used when a poster or reply IP is absent.
const UnknownIP = "Unknown"

// Message is one threaded reply. It is owned exclusively by its parent
// Article and never shared across articles.
type Message struct {
	Type      MessageType `json:"type"`
	Author    string      `json:"author"`
	Content   string      `json:"content"`
	IP        string      `json:"ip"`
	Timestamp string      `json:"timestamp"`
}

// Article is one fully fetched forum post with metadata and replies.
type Article struct {
	Board         string    `json:"board"`
	ArticleID     string    `json:"article_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Date          string    `json:"date"`
	Content       string    `json:"content"`
	URL           string    `json:"url"`
	IP            string    `json:"ip"`
	PushCount     int       `json:"push_count"`
	BooCount      int       `json:"boo_count"`
	NeutralCount  int       `json:"neutral_count"`
	TotalMessages int       `json:"total_messages"`
	Messages      []Message `json:"messages"`
	CrawlTime     time.Time `json:"crawl_time"`
}

// ArticleStub is the listing-page reference to an article.
type ArticleStub struct {
	Board       string `json:"board"`
	ArticleID   string `json:"article_id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Date        string `json:"date"`
	URL         string `json:"url"`
	PushPreview string `json:"push_preview"`
}
