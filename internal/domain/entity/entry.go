// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental objects of the picture feed, Entry and Settings, along with
// the date arithmetic shared by every layer and domain-specific errors.
package entity

import "time"

// Entry represents one validated feed item: a calendar date, its title, the full image,
// the derived thumbnail, and the raw caption block.
// An Entry exists only for dates whose page was fetched and fully parsed.
type Entry struct {
	Date          time.Time
	Title         string
	PageURL       string
	ImageURL      string
	ThumbnailURL  string
	CaptionMarkup string

	// ThumbnailLocalPath is empty until the thumbnail has been materialized in the cache.
	ThumbnailLocalPath string
}

// DisplayDate formats the entry date the way the feed labels it, e.g. "2013 Dec 24".
func (e Entry) DisplayDate() string {
	return DisplayDate(e.Date)
}

// ParsedPage holds the three textual fields extracted from a page.
// ImageRelativeURL is the link target as written in the page; it may be relative to the
// feed base URL or already absolute.
type ParsedPage struct {
	Title            string
	ImageRelativeURL string
	CaptionMarkup    string
}
