package scraper

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mapsagent/internal/service/enrich"
	"github.com/LouYuanbo1/mapsagent/param"
	"golang.org/x/sync/semaphore"
)

// PlaceStore 抓取结果的持久化出口
type PlaceStore interface {
	UpsertPlaces(ctx context.Context, places []*model.Place) (int64, error)
	UpsertHistory(ctx context.Context, entry *model.HistoryEntry) error
}

// ScrapeResult 一次抓取任务的完整产出
// PersistenceErr 不为空时表示数据已抓到但入库失败,调用方自行决定如何上报
type ScrapeResult struct {
	Places         []*model.Place
	History        *model.HistoryEntry
	PersistenceErr error
}

type ScraperService interface {
	Run(ctx context.Context, p *param.Scrape) (*ScrapeResult, error)
}

// sessionFactory 便于在测试里替换真实浏览器
type sessionFactory func(ctx context.Context, cfg *config.Config, sess *param.Session) (chrome.ChromeCrawler, error)

type scraperService struct {
	cfg        *config.Config
	store      PlaceStore
	enricher   enrich.EnrichService
	sem        *semaphore.Weighted
	newSession sessionFactory
	collector  Collector
	extractor  Extractor
}

// InitScraperService 组装抓取流水线,store可以为nil(未配置数据库时只返回结果不落库)
func InitScraperService(cfg *config.Config, store PlaceStore, enricher enrich.EnrichService) ScraperService {
	factory := chrome.InitChromedpCrawler
	if cfg.Browser.Backend == "rod" {
		factory = chrome.InitRodCrawler
	}
	return &scraperService{
		cfg:        cfg,
		store:      store,
		enricher:   enricher,
		sem:        semaphore.NewWeighted(int64(cfg.Scraper.MaxSessions)),
		newSession: factory,
		collector:  initFeedCollector(cfg),
		extractor:  initDetailExtractor(cfg),
	}
}

func (ss *scraperService) Run(ctx context.Context, p *param.Scrape) (*ScrapeResult, error) {
	if p.Query == "" {
		return nil, fmt.Errorf("查询关键词不能为空")
	}
	lang := p.Lang
	if lang == "" {
		lang = ss.cfg.Scraper.Lang
	}

	// 并发会话数设上限,浏览器实例太吃资源
	if err := ss.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("等待会话额度失败: %w", err)
	}
	defer ss.sem.Release(1)

	cr, err := ss.newSession(ctx, ss.cfg, &param.Session{Headless: p.Headless, Lang: lang})
	if err != nil {
		return nil, &LaunchError{Err: err}
	}
	defer cr.Close()

	listings, err := ss.collector.Collect(ctx, cr, p.Query, lang, p.MaxPlaces)
	if err != nil {
		return nil, &CollectionError{Err: err}
	}
	log.Printf("查询[%s]采集到%d条结果句柄", p.Query, len(listings))

	places := make([]*model.Place, 0, len(listings))
	dropped := 0
	for _, listing := range listings {
		place, err := ss.extractor.Extract(ctx, cr, listing, p.Query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &CollectionError{Err: ctx.Err()}
			}
			log.Printf("提取第%d条记录失败,已跳过: %v", listing.Position, err)
			dropped++
			continue
		}
		if place == nil {
			log.Printf("第%d条记录缺少place_id,已丢弃: %s", listing.Position, listing.URL)
			dropped++
			continue
		}
		if p.Enrich && place.Website != "" && ss.enricher != nil {
			place.Email = ss.enricher.FindEmail(ctx, place.Website)
		}
		places = append(places, place)
	}

	history := &model.HistoryEntry{
		Source:      p.Query,
		SearchKey:   p.Query,
		LocationKey: locationKey(p.Query),
		Requested:   p.MaxPlaces,
		Returned:    len(places),
		Dropped:     dropped,
		Status:      model.DeriveStatus(p.MaxPlaces, len(places)),
		RunAt:       time.Now().UTC(),
	}

	result := &ScrapeResult{Places: places, History: history}

	if p.Store && ss.store != nil {
		if err := ss.persist(ctx, places, history); err != nil {
			log.Printf("查询[%s]入库失败: %v", p.Query, err)
			result.PersistenceErr = &PersistenceError{Err: err}
		}
	}
	return result, nil
}

// locationKey 从"restaurants in Berlin"这类查询里切出地域部分,切不出来就留空
func locationKey(query string) string {
	for _, sep := range []string{" in ", " near ", " bei ", " à "} {
		if i := strings.LastIndex(strings.ToLower(query), sep); i >= 0 {
			return strings.TrimSpace(query[i+len(sep):])
		}
	}
	return ""
}

func (ss *scraperService) persist(ctx context.Context, places []*model.Place, history *model.HistoryEntry) error {
	if len(places) > 0 {
		n, err := ss.store.UpsertPlaces(ctx, places)
		if err != nil {
			return fmt.Errorf("写入地点记录失败: %w", err)
		}
		log.Printf("已写入%d条地点记录", n)
	}
	if err := ss.store.UpsertHistory(ctx, history); err != nil {
		return fmt.Errorf("写入抓取历史失败: %w", err)
	}
	return nil
}
