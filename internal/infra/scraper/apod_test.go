package scraper_test

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"apod-feed/internal/infra/scraper"
	"apod-feed/internal/usecase/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadPage(t *testing.T) []byte {
	t.Helper()
	page, err := os.ReadFile("testdata/ap131224.html")
	require.NoError(t, err)
	return page
}

func TestAPODParser_Parse_DailyPage(t *testing.T) {
	parsed, err := scraper.NewAPODParser().Parse(loadPage(t))

	require.NoError(t, err)
	assert.Equal(t, "Earthrise", parsed.Title)
	assert.Equal(t, "image/1312/earthrise_apollo8_4000.jpg", parsed.ImageRelativeURL)
	assert.True(t, strings.HasPrefix(parsed.CaptionMarkup, "<p>"), "caption keeps its markup: %q", parsed.CaptionMarkup)
	assert.Contains(t, parsed.CaptionMarkup, "<b> Explanation: </b>")
	assert.Contains(t, parsed.CaptionMarkup, "Forty-five years ago")
	assert.NotContains(t, parsed.CaptionMarkup, "Tomorrow")
}

func TestAPODParser_Parse_Structure(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		wantElement string
		wantTitle   string
		wantImage   string
	}{
		{
			name:      "minimal template",
			html:      `<b>Title</b><a href="x.html">x</a><a href="image/a.jpg">img</a><p>one<p>two<p>caption`,
			wantTitle: "Title",
			wantImage: "image/a.jpg",
		},
		{
			name:      "absolute image link",
			html:      `<b> T </b><a href="x">x</a><a href=" https://cdn.example/b.png ">b</a><p>1<p>2<p>3`,
			wantTitle: "T",
			wantImage: "https://cdn.example/b.png",
		},
		{
			name:        "one bold and one anchor",
			html:        `<b>Only</b><a href="x.html">x</a><p>1<p>2<p>3`,
			wantElement: "a[1]",
		},
		{
			name:        "no bold",
			html:        `<a href="x">x</a><a href="y.jpg">y</a><p>1<p>2<p>3`,
			wantElement: "b[0]",
		},
		{
			name:        "empty title",
			html:        `<b>   </b><a href="x">x</a><a href="y.jpg">y</a><p>1<p>2<p>3`,
			wantElement: "b[0]",
		},
		{
			name:        "second anchor without href",
			html:        `<b>T</b><a href="x">x</a><a name="top">y</a><p>1<p>2<p>3`,
			wantElement: "a[1]",
		},
		{
			name:        "two paragraphs",
			html:        `<b>T</b><a href="x">x</a><a href="y.jpg">y</a><p>1<p>2`,
			wantElement: "p[2]",
		},
		{
			name:        "empty document",
			html:        ``,
			wantElement: "b[0]",
		},
	}

	parser := scraper.NewAPODParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.Parse([]byte(tt.html))

			if tt.wantElement != "" {
				require.Error(t, err)
				assert.Nil(t, parsed)
				assert.ErrorIs(t, err, feed.ErrMalformedPage)
				var parseErr *feed.ParseError
				require.True(t, errors.As(err, &parseErr))
				assert.Equal(t, tt.wantElement, parseErr.Element)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, parsed.Title)
			assert.Equal(t, tt.wantImage, parsed.ImageRelativeURL)
			assert.NotEmpty(t, parsed.CaptionMarkup)
		})
	}
}

func TestAPODParser_ConcurrentUse(t *testing.T) {
	parser := scraper.NewAPODParser()
	page := loadPage(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			parsed, err := parser.Parse(page)
			assert.NoError(t, err)
			if parsed != nil {
				assert.Equal(t, "Earthrise", parsed.Title)
			}
		}()
	}
	wg.Wait()
}

func TestPlainCaption(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{name: "tags removed", markup: "<p><b> Explanation: </b> Stars <a href=\"x\">shine</a>.</p>", want: "Explanation: Stars shine."},
		{name: "entities decoded", markup: "<p>Earth &amp; Moon</p>", want: "Earth & Moon"},
		{name: "whitespace collapsed", markup: "<p>line one\n\n   line two</p>", want: "line one line two"},
		{name: "script dropped", markup: "<p>safe<script>alert(1)</script></p>", want: "safe"},
		{name: "empty", markup: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scraper.PlainCaption(tt.markup))
		})
	}
}
