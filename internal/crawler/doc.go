// Package crawler implements the concurrent fetch-retry-aggregate engine:
// a bounded worker pool that turns page-range, single-article, and keyword
// search requests into ordered, deduplicated collections of articles while
// pacing requests against the target site and surviving partial failures.
package crawler
