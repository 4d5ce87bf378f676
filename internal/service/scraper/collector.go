package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/types"
)

const (
	searchBaseURL = "https://www.google.com/maps/search/"
	feedSelector  = `div[role="feed"]`
)

// Collector 在一个已打开的会话里搜索并收集结果句柄
// 采集是all-or-nothing的:中途出错时不返回已收集的部分结果,整个请求失败
type Collector interface {
	Collect(ctx context.Context, cr chrome.ChromeCrawler, query, lang string, maxResults int) ([]types.Listing, error)
}

type feedCollector struct {
	cfg *config.Config
}

func initFeedCollector(cfg *config.Config) Collector {
	return &feedCollector{cfg: cfg}
}

// BuildSearchURL 拼搜索页URL,hl参数控制结果语言
func BuildSearchURL(query, lang string) string {
	params := url.Values{}
	params.Set("q", query)
	if lang != "" {
		params.Set("hl", lang)
	}
	return searchBaseURL + "?" + params.Encode()
}

func (fc *feedCollector) Collect(ctx context.Context, cr chrome.ChromeCrawler, query, lang string, maxResults int) ([]types.Listing, error) {
	searchURL := BuildSearchURL(query, lang)
	log.Printf("导航到搜索页: %s", searchURL)
	if err := cr.Navigate(searchURL); err != nil {
		return nil, fmt.Errorf("打开搜索页失败: %w", err)
	}

	pause := time.Duration(fc.cfg.Scraper.ScrollPauseMillis) * time.Millisecond
	if err := sleepCtx(ctx, pause); err != nil {
		return nil, err
	}
	// 同意弹窗,没有出现就算了
	_ = cr.Eval(consentScript, nil)

	waitTimeout := time.Duration(fc.cfg.Scraper.NavigateTimeoutSeconds) * time.Second
	if err := cr.WaitVisible(feedSelector, waitTimeout); err != nil {
		// 只有一个命中时站点会直接跳到详情页,没有结果列表
		if current, urlErr := cr.CurrentURL(); urlErr == nil && strings.Contains(current, "/maps/place/") {
			log.Printf("检测到单结果详情页: %s", current)
			return []types.Listing{{URL: current, Position: 0}}, nil
		}
		log.Printf("未找到结果列表,视为无结果: %v", err)
		return nil, nil
	}

	var ordered []types.Listing
	seen := make(map[string]struct{})
	stale := 0

	for i := 0; i < fc.cfg.Scraper.MaxScrolls; i++ {
		if err := cr.Eval(scrollScript, nil); err != nil {
			return nil, fmt.Errorf("滚动结果列表失败: %w", err)
		}
		if err := sleepCtx(ctx, pause); err != nil {
			return nil, err
		}

		var hrefs []string
		if err := cr.Eval(listingLinksScript, &hrefs); err != nil {
			return nil, fmt.Errorf("读取结果链接失败: %w", err)
		}

		added := 0
		for _, href := range hrefs {
			if href == "" {
				continue
			}
			if _, dup := seen[href]; dup {
				continue
			}
			seen[href] = struct{}{}
			ordered = append(ordered, types.Listing{URL: href, Position: len(ordered)})
			added++
		}
		log.Printf("已发现 %d 条结果", len(ordered))

		if maxResults > 0 && len(ordered) >= maxResults {
			log.Printf("达到数量上限 %d,停止滚动", maxResults)
			return ordered[:maxResults], nil
		}

		var ended bool
		if err := cr.Eval(endOfListScript, &ended); err == nil && ended {
			log.Printf("站点报告已到列表末尾")
			break
		}

		// 站点可能一直不报告"到底",连续几次没有新结果就放弃
		if added == 0 {
			stale++
			if stale >= fc.cfg.Scraper.MaxStaleScrolls {
				log.Printf("连续 %d 次滚动无新结果,停止", stale)
				break
			}
		} else {
			stale = 0
		}
	}
	return ordered, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

const consentScript = `(function () {
  const selectors = [
    'button[aria-label="Accept all"]',
    'button[aria-label="I agree"]',
    'button[aria-label="Alles akzeptieren"]',
    'button.VfPpkd-LgbsSe-OWXEXe-k8QpJ'
  ];
  for (const sel of selectors) {
    const btn = document.querySelector(sel);
    if (btn) {
      btn.click();
      return true;
    }
  }
  return false;
})()`

const scrollScript = `(function () {
  const feed = document.querySelector('div[role="feed"]');
  if (feed) {
    feed.scrollTop = feed.scrollHeight;
  }
})()`

const listingLinksScript = `(function () {
  const anchors = document.querySelectorAll('div[role="feed"] a[href*="/maps/place/"]');
  return Array.from(anchors).map(a => a.href);
})()`

const endOfListScript = `(function () {
  const spans = document.querySelectorAll('div[role="feed"] span');
  for (const s of spans) {
    if (s.textContent.includes("You've reached the end of the list")) {
      return true;
    }
  }
  return false;
})()`
