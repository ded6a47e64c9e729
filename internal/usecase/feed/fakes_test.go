package feed_test

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"apod-feed/internal/domain/entity"
	"apod-feed/internal/usecase/feed"
)

const testBase = "https://apod.example/apod/"

/* ───────── Fakes ───────── */

// fakeFetcher serves pages from a map keyed by URL. Unknown URLs are NotFound.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	errs   map[string]error
	calls  map[string]int
	order  []string
	onCall func(url string)
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.calls[url]++
	f.order = append(f.order, url)
	onCall := f.onCall
	body, ok := f.pages[url]
	err := f.errs[url]
	f.mu.Unlock()

	if onCall != nil {
		onCall(url)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &feed.FetchError{URL: url, Err: ctxErr}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, feed.ErrNotFound
	}
	return []byte(body), nil
}

func (f *fakeFetcher) callsFor(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

// publish registers a well-formed page for d.
func (f *fakeFetcher) publish(d time.Time) {
	f.pages[feed.PageURL(testBase, d)] = "ok:" + entity.DateCode(d)
}

// fakeParser understands "ok:<code>" and "href:<link>" bodies and rejects anything else.
type fakeParser struct{}

func (fakeParser) Parse(html []byte) (*entity.ParsedPage, error) {
	body := string(html)
	if href, ok := strings.CutPrefix(body, "href:"); ok {
		return &entity.ParsedPage{
			Title:            "Linked picture",
			ImageRelativeURL: href,
			CaptionMarkup:    "<p>Caption</p>",
		}, nil
	}
	code, ok := strings.CutPrefix(body, "ok:")
	if !ok {
		return nil, &feed.ParseError{Element: "a[1]", Reason: "fewer than 2 anchors"}
	}
	return &entity.ParsedPage{
		Title:            "Picture " + code,
		ImageRelativeURL: "image/" + code + ".jpg",
		CaptionMarkup:    "<p>Caption " + code + "</p>",
	}, nil
}

// fakeCache returns /cache/<basename> for every URL except those in errs.
type fakeCache struct {
	mu    sync.Mutex
	errs  map[string]error
	calls []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{errs: make(map[string]error)}
}

func (c *fakeCache) EnsureCached(_ context.Context, url string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, url)
	if err := c.errs[url]; err != nil {
		return "", err
	}
	return "/cache/" + path.Base(url), nil
}

// fakeSettings is an in-memory repository.SettingsRepository.
type fakeSettings struct {
	mu        sync.Mutex
	current   entity.Settings
	saveErr   error
	saves     int
	observers []func(entity.Settings)
}

func (s *fakeSettings) Load(context.Context) (entity.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *fakeSettings) Save(_ context.Context, v entity.Settings) error {
	s.mu.Lock()
	if s.saveErr != nil {
		s.mu.Unlock()
		return s.saveErr
	}
	s.saves++
	s.current = v
	observers := append([]func(entity.Settings){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(v)
	}
	return nil
}

func (s *fakeSettings) Current() entity.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *fakeSettings) Subscribe(fn func(entity.Settings)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
	return func() {}
}

/* ───────── Helpers ───────── */

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) feed.Clock {
	return feed.ClockFunc(func() time.Time { return t })
}

func testOptions() feed.Options {
	opts := feed.DefaultOptions()
	opts.BaseURL = testBase
	opts.Location = time.UTC
	opts.Clock = fixedClock(time.Date(2014, time.January, 10, 12, 0, 0, 0, time.UTC))
	return opts
}

// december2013 publishes 2013-12-19 through 2013-12-28 except the given gaps.
func december2013(f *fakeFetcher, gaps ...int) {
	skip := make(map[int]bool, len(gaps))
	for _, g := range gaps {
		skip[g] = true
	}
	for d := 19; d <= 28; d++ {
		if !skip[d] {
			f.publish(day(2013, time.December, d))
		}
	}
}

func entryDates(entries []entity.Entry) []time.Time {
	out := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Date)
	}
	return out
}

var errBoom = errors.New("connection reset by peer")
