package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/types"
	"github.com/LouYuanbo1/mapsagent/param"
	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/semaphore"
)

type fakeChrome struct{}

func (f *fakeChrome) Navigate(url string) error { return nil }
func (f *fakeChrome) WaitVisible(selector string, timeout time.Duration) error {
	return nil
}
func (f *fakeChrome) Eval(js string, res any) error { return nil }
func (f *fakeChrome) HTML() (string, error)         { return "", nil }
func (f *fakeChrome) CurrentURL() (string, error)   { return "", nil }
func (f *fakeChrome) Close()                        {}

type fakeCollector struct {
	listings []types.Listing
	err      error
}

func (f *fakeCollector) Collect(ctx context.Context, cr chrome.ChromeCrawler, query, lang string, maxResults int) ([]types.Listing, error) {
	return f.listings, f.err
}

type fakeExtractor struct {
	places map[string]*model.Place
	errs   map[string]error
}

func (f *fakeExtractor) Extract(ctx context.Context, cr chrome.ChromeCrawler, listing types.Listing, query string) (*model.Place, error) {
	if err, ok := f.errs[listing.URL]; ok {
		return nil, err
	}
	return f.places[listing.URL], nil
}

type fakeStore struct {
	places    []*model.Place
	history   *model.HistoryEntry
	placeErr  error
	histErr   error
	upsertHit int
}

func (f *fakeStore) UpsertPlaces(ctx context.Context, places []*model.Place) (int64, error) {
	f.upsertHit++
	if f.placeErr != nil {
		return 0, f.placeErr
	}
	f.places = places
	return int64(len(places)), nil
}

func (f *fakeStore) UpsertHistory(ctx context.Context, entry *model.HistoryEntry) error {
	if f.histErr != nil {
		return f.histErr
	}
	f.history = entry
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scraper.Lang = "en"
	cfg.Scraper.MaxSessions = 2
	cfg.Scraper.MaxScrolls = 10
	cfg.Scraper.MaxStaleScrolls = 3
	return cfg
}

func newTestService(cfg *config.Config, store PlaceStore, col Collector, ext Extractor) *scraperService {
	return &scraperService{
		cfg:   cfg,
		store: store,
		sem:   semaphore.NewWeighted(int64(cfg.Scraper.MaxSessions)),
		newSession: func(ctx context.Context, cfg *config.Config, sess *param.Session) (chrome.ChromeCrawler, error) {
			return &fakeChrome{}, nil
		},
		collector: col,
		extractor: ext,
	}
}

func listingFixtures(n int) ([]types.Listing, map[string]*model.Place) {
	listings := make([]types.Listing, 0, n)
	places := make(map[string]*model.Place, n)
	for i := 0; i < n; i++ {
		u := fmt.Sprintf("https://www.google.com/maps/place/p%d", i)
		listings = append(listings, types.Listing{URL: u, Position: i})
		places[u] = &model.Place{
			PlaceID: fmt.Sprintf("0x1:0x%d", i),
			Name:    fmt.Sprintf("place-%d", i),
		}
	}
	return listings, places
}

func TestRunSuccess(t *testing.T) {
	listings, places := listingFixtures(5)
	store := &fakeStore{}
	svc := newTestService(testConfig(), store, &fakeCollector{listings: listings}, &fakeExtractor{places: places})

	result, err := svc.Run(context.Background(), &param.Scrape{
		Query:     "cafes in Berlin",
		MaxPlaces: 5,
		Store:     true,
	})

	assert.NoError(t, err)
	assert.Len(t, result.Places, 5)
	assert.Equal(t, model.StatusSuccess, result.History.Status)
	assert.Equal(t, 5, result.History.Requested)
	assert.Equal(t, 5, result.History.Returned)
	assert.Equal(t, 0, result.History.Dropped)
	assert.Equal(t, "cafes in Berlin", result.History.Source)
	assert.Equal(t, "Berlin", result.History.LocationKey)
	assert.Nil(t, result.PersistenceErr)
	assert.Len(t, store.places, 5)
	assert.NotNil(t, store.history)
}

func TestRunPartial(t *testing.T) {
	listings, places := listingFixtures(3)
	svc := newTestService(testConfig(), nil, &fakeCollector{listings: listings}, &fakeExtractor{places: places})

	result, err := svc.Run(context.Background(), &param.Scrape{Query: "cafes", MaxPlaces: 10})

	assert.NoError(t, err)
	assert.Len(t, result.Places, 3)
	assert.Equal(t, model.StatusPartial, result.History.Status)
	assert.Equal(t, 10, result.History.Requested)
	assert.Equal(t, 3, result.History.Returned)
}

func TestRunLaunchFailure(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(testConfig(), store, &fakeCollector{}, &fakeExtractor{})
	svc.newSession = func(ctx context.Context, cfg *config.Config, sess *param.Session) (chrome.ChromeCrawler, error) {
		return nil, errors.New("chrome not found")
	}

	result, err := svc.Run(context.Background(), &param.Scrape{Query: "cafes", MaxPlaces: 5, Store: true})

	assert.Nil(t, result)
	var launchErr *LaunchError
	assert.ErrorAs(t, err, &launchErr)
	// 启动失败时不写任何记录
	assert.Equal(t, 0, store.upsertHit)
	assert.Nil(t, store.history)
}

func TestRunCollectionFailure(t *testing.T) {
	svc := newTestService(testConfig(), nil, &fakeCollector{err: errors.New("feed missing")}, &fakeExtractor{})

	result, err := svc.Run(context.Background(), &param.Scrape{Query: "cafes", MaxPlaces: 5})

	assert.Nil(t, result)
	var collectErr *CollectionError
	assert.ErrorAs(t, err, &collectErr)
}

func TestRunDroppedRecords(t *testing.T) {
	listings, places := listingFixtures(5)
	// 一条缺place_id,一条解析报错,都应计入dropped
	delete(places, listings[1].URL)
	ext := &fakeExtractor{
		places: places,
		errs:   map[string]error{listings[3].URL: errors.New("bad html")},
	}
	svc := newTestService(testConfig(), nil, &fakeCollector{listings: listings}, ext)

	result, err := svc.Run(context.Background(), &param.Scrape{Query: "cafes", MaxPlaces: 5})

	assert.NoError(t, err)
	assert.Len(t, result.Places, 3)
	assert.Equal(t, 2, result.History.Dropped)
	assert.Equal(t, model.StatusPartial, result.History.Status)
}

func TestRunPersistenceFailureIsNotFatal(t *testing.T) {
	listings, places := listingFixtures(2)
	store := &fakeStore{placeErr: errors.New("connection refused")}
	svc := newTestService(testConfig(), store, &fakeCollector{listings: listings}, &fakeExtractor{places: places})

	result, err := svc.Run(context.Background(), &param.Scrape{Query: "cafes", MaxPlaces: 2, Store: true})

	assert.NoError(t, err)
	assert.Len(t, result.Places, 2)
	var persistErr *PersistenceError
	assert.ErrorAs(t, result.PersistenceErr, &persistErr)
}

func TestRunValidation(t *testing.T) {
	svc := newTestService(testConfig(), nil, &fakeCollector{}, &fakeExtractor{})

	_, err := svc.Run(context.Background(), &param.Scrape{Query: "", MaxPlaces: 5})
	assert.Error(t, err)
}

func TestRunUnlimited(t *testing.T) {
	listings, places := listingFixtures(4)
	svc := newTestService(testConfig(), nil, &fakeCollector{listings: listings}, &fakeExtractor{places: places})

	// max_places不设上限时,返回多少算多少,状态恒为success
	result, err := svc.Run(context.Background(), &param.Scrape{Query: "cafes", MaxPlaces: 0})

	assert.NoError(t, err)
	assert.Len(t, result.Places, 4)
	assert.Equal(t, model.StatusSuccess, result.History.Status)
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, "Berlin", locationKey("cafes in Berlin"))
	assert.Equal(t, "New York, NY", locationKey("insurance agencies in New York, NY"))
	assert.Equal(t, "me", locationKey("pizza near me"))
	assert.Equal(t, "", locationKey("pizza"))
}
