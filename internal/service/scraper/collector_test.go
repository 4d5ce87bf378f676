package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// scriptedChrome 按脚本回放滚动过程中每一轮的链接快照
type scriptedChrome struct {
	batches    [][]string
	round      int
	endAtRound int
	feedErr    error
	currentURL string
}

func (s *scriptedChrome) Navigate(url string) error { return nil }
func (s *scriptedChrome) WaitVisible(selector string, timeout time.Duration) error {
	return s.feedErr
}
func (s *scriptedChrome) HTML() (string, error)       { return "", nil }
func (s *scriptedChrome) CurrentURL() (string, error) { return s.currentURL, nil }
func (s *scriptedChrome) Close()                      {}

func (s *scriptedChrome) Eval(js string, res any) error {
	switch js {
	case listingLinksScript:
		idx := s.round
		if idx >= len(s.batches) {
			idx = len(s.batches) - 1
		}
		*(res.(*[]string)) = s.batches[idx]
	case endOfListScript:
		*(res.(*bool)) = s.endAtRound > 0 && s.round >= s.endAtRound-1
		s.round++
	}
	return nil
}

func TestBuildSearchURL(t *testing.T) {
	u := BuildSearchURL("cafes in Berlin", "de")
	assert.Equal(t, "https://www.google.com/maps/search/?hl=de&q=cafes+in+Berlin", u)

	u = BuildSearchURL("pizza", "")
	assert.Equal(t, "https://www.google.com/maps/search/?q=pizza", u)
}

func TestCollectDedupesAndPreservesOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Scraper.ScrollPauseMillis = 0
	cfg.Scraper.MaxScrolls = 10
	cr := &scriptedChrome{
		batches: [][]string{
			{"https://g/maps/place/a", "https://g/maps/place/b"},
			{"https://g/maps/place/b", "https://g/maps/place/c", "https://g/maps/place/a"},
		},
		endAtRound: 2,
	}

	listings, err := initFeedCollector(cfg).Collect(context.Background(), cr, "cafes", "en", 10)

	assert.NoError(t, err)
	if assert.Len(t, listings, 3) {
		assert.Equal(t, "https://g/maps/place/a", listings[0].URL)
		assert.Equal(t, "https://g/maps/place/b", listings[1].URL)
		assert.Equal(t, "https://g/maps/place/c", listings[2].URL)
		assert.Equal(t, 0, listings[0].Position)
		assert.Equal(t, 2, listings[2].Position)
	}
}

func TestCollectTrimsAtMaxResults(t *testing.T) {
	cfg := testConfig()
	cfg.Scraper.ScrollPauseMillis = 0
	cr := &scriptedChrome{
		batches: [][]string{
			{"https://g/maps/place/a", "https://g/maps/place/b", "https://g/maps/place/c"},
		},
	}

	listings, err := initFeedCollector(cfg).Collect(context.Background(), cr, "cafes", "en", 2)

	assert.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestCollectStopsAfterStaleScrolls(t *testing.T) {
	cfg := testConfig()
	cfg.Scraper.ScrollPauseMillis = 0
	cfg.Scraper.MaxScrolls = 20
	cfg.Scraper.MaxStaleScrolls = 3
	// 站点从不报告"到底",链接也不再增长
	cr := &scriptedChrome{
		batches: [][]string{{"https://g/maps/place/a"}},
	}

	listings, err := initFeedCollector(cfg).Collect(context.Background(), cr, "cafes", "en", 50)

	assert.NoError(t, err)
	assert.Len(t, listings, 1)
	// 第1轮发现新结果,随后3轮无新结果即停,不会跑满20轮
	assert.LessOrEqual(t, cr.round, 5)
}

func TestCollectSinglePlaceRedirect(t *testing.T) {
	cfg := testConfig()
	cfg.Scraper.ScrollPauseMillis = 0
	cfg.Scraper.NavigateTimeoutSeconds = 1
	cr := &scriptedChrome{
		feedErr:    errors.New("selector not visible"),
		currentURL: "https://www.google.com/maps/place/only-hit",
	}

	listings, err := initFeedCollector(cfg).Collect(context.Background(), cr, "unique cafe", "en", 10)

	assert.NoError(t, err)
	if assert.Len(t, listings, 1) {
		assert.Equal(t, "https://www.google.com/maps/place/only-hit", listings[0].URL)
	}
}

func TestCollectNoResults(t *testing.T) {
	cfg := testConfig()
	cfg.Scraper.ScrollPauseMillis = 0
	cfg.Scraper.NavigateTimeoutSeconds = 1
	cr := &scriptedChrome{
		feedErr:    errors.New("selector not visible"),
		currentURL: "https://www.google.com/maps/search/xyzzy",
	}

	listings, err := initFeedCollector(cfg).Collect(context.Background(), cr, "xyzzy", "en", 10)

	assert.NoError(t, err)
	assert.Empty(t, listings)
}
