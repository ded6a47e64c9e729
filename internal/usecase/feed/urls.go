package feed

import (
	"fmt"
	"net/url"
	"time"

	"apod-feed/internal/domain/entity"
)

// DefaultBaseURL is the publisher's archive root.
const DefaultBaseURL = "https://apod.nasa.gov/apod/"

// PageURL returns the daily page URL, e.g. <base>ap131224.html.
func PageURL(base string, d time.Time) string {
	return base + "ap" + entity.DateCode(d) + ".html"
}

// ThumbnailURL returns the calendar thumbnail URL, e.g. <base>calendar/S_131224.jpg.
func ThumbnailURL(base string, d time.Time) string {
	return base + "calendar/S_" + entity.DateCode(d) + ".jpg"
}

// ResolveImageURL resolves a link target found in a page against the base URL.
// Absolute targets are returned unchanged.
func ResolveImageURL(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", &ParseError{Element: "a[1]", Reason: fmt.Sprintf("unparseable href %q", href)}
	}
	return baseURL.ResolveReference(ref).String(), nil
}
