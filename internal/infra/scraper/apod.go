// Package scraper extracts entry fields from daily archive pages.
package scraper

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/usecase/feed"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Element positions of the daily page template, in document order.
const (
	titleIndex   = 0 // first <b>
	imageIndex   = 1 // second <a>
	captionIndex = 2 // third <p>
)

// APODParser implements feed.PageParser for the daily page template.
// It is stateless and safe for concurrent use.
type APODParser struct{}

// NewAPODParser creates a parser.
func NewAPODParser() *APODParser {
	return &APODParser{}
}

// Parse extracts the title, the image link and the caption block.
//
// Returns a *feed.ParseError when the page has fewer than one <b>, two <a> or three <p>
// elements, when the second anchor has no href, or when a field is empty.
func (p *APODParser) Parse(page []byte) (*entity.ParsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &feed.ParseError{Element: "document", Reason: err.Error()}
	}

	bold := doc.Find("b")
	if bold.Length() <= titleIndex {
		return nil, missing("b", titleIndex, bold.Length())
	}
	title := strings.TrimSpace(bold.Eq(titleIndex).Text())
	if title == "" {
		return nil, &feed.ParseError{Element: element("b", titleIndex), Reason: "empty title"}
	}

	anchors := doc.Find("a")
	if anchors.Length() <= imageIndex {
		return nil, missing("a", imageIndex, anchors.Length())
	}
	href, ok := anchors.Eq(imageIndex).Attr("href")
	if !ok {
		return nil, &feed.ParseError{Element: element("a", imageIndex), Reason: "missing href attribute"}
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, &feed.ParseError{Element: element("a", imageIndex), Reason: "empty href attribute"}
	}

	paragraphs := doc.Find("p")
	if paragraphs.Length() <= captionIndex {
		return nil, missing("p", captionIndex, paragraphs.Length())
	}
	caption, err := goquery.OuterHtml(paragraphs.Eq(captionIndex))
	if err != nil {
		return nil, &feed.ParseError{Element: element("p", captionIndex), Reason: err.Error()}
	}

	return &entity.ParsedPage{
		Title:            title,
		ImageRelativeURL: href,
		CaptionMarkup:    caption,
	}, nil
}

func element(tag string, index int) string {
	return fmt.Sprintf("%s[%d]", tag, index)
}

func missing(tag string, index, found int) *feed.ParseError {
	return &feed.ParseError{
		Element: element(tag, index),
		Reason:  fmt.Sprintf("page has %d <%s> elements, need at least %d", found, tag, index+1),
	}
}

var (
	stripPolicy = bluemonday.StrictPolicy()
	whitespace  = regexp.MustCompile(`\s+`)
)

// PlainCaption strips every tag from caption markup and collapses whitespace.
// Entities are decoded so the result is suitable for a terminal.
func PlainCaption(markup string) string {
	text := stripPolicy.Sanitize(markup)
	text = html.UnescapeString(text)
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
