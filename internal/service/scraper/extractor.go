package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/domain/model"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/chrome"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/types"
	"github.com/PuerkitoBio/goquery"
)

const titleSelector = `h1.DUwDvf`

// Extractor 把一条结果句柄转成归一化的Place记录
// 返回(nil, nil)表示该条记录因缺少place_id被丢弃,由调用方计数
type Extractor interface {
	Extract(ctx context.Context, cr chrome.ChromeCrawler, listing types.Listing, query string) (*model.Place, error)
}

type detailExtractor struct {
	cfg *config.Config
}

func initDetailExtractor(cfg *config.Config) Extractor {
	return &detailExtractor{cfg: cfg}
}

func (de *detailExtractor) Extract(ctx context.Context, cr chrome.ChromeCrawler, listing types.Listing, query string) (*model.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cr.Navigate(listing.URL); err != nil {
		return nil, fmt.Errorf("打开详情页失败: %w", err)
	}
	// 标题出现即认为详情面板渲染完成,超时也继续,能解析多少算多少
	_ = cr.WaitVisible(titleSelector, time.Duration(de.cfg.Scraper.NavigateTimeoutSeconds)*time.Second)

	html, err := cr.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取页面内容失败: %w", err)
	}
	current, err := cr.CurrentURL()
	if err != nil || current == "" {
		current = listing.URL
	}
	return parsePlace(current, html, query)
}

var (
	// 详情页URL的data段里携带稳定的feature id,形如 !1s0x47a84e37...:0x8db30...
	hexPlaceIDRe = regexp.MustCompile(`!1s(0x[0-9a-fA-F]+:0x[0-9a-fA-F]+)`)
	anyPlaceIDRe = regexp.MustCompile(`!1s([^!?&]+)`)
	coordsRe     = regexp.MustCompile(`!3d(-?[0-9]+(?:\.[0-9]+)?)!4d(-?[0-9]+(?:\.[0-9]+)?)`)
	atCoordsRe   = regexp.MustCompile(`/@(-?[0-9]+(?:\.[0-9]+)?),(-?[0-9]+(?:\.[0-9]+)?)`)
	nonDigitRe   = regexp.MustCompile(`\D`)
)

// parsePlace 从详情页URL与HTML中解析一条Place
// 除place_id外所有字段都是可选的,解析不出来就留空,绝不因单个字段失败
func parsePlace(pageURL, html, query string) (*model.Place, error) {
	placeID := extractPlaceID(pageURL)
	if placeID == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("解析详情页HTML失败: %w", err)
	}

	place := &model.Place{
		PlaceID:     placeID,
		Link:        pageURL,
		SourceQuery: query,
	}
	place.Latitude, place.Longitude = extractCoordinates(pageURL)

	place.Name = strings.TrimSpace(doc.Find(titleSelector).First().Text())

	if category := strings.TrimSpace(doc.Find("button.DkEaL").First().Text()); category != "" {
		place.Categories = []string{category}
	}

	addrSel := doc.Find(`button[data-item-id="address"]`).First()
	if addr := strings.TrimSpace(addrSel.Find("div.Io6YTe").First().Text()); addr != "" {
		place.Address = addr
	} else if label, ok := addrSel.Attr("aria-label"); ok {
		place.Address = strings.TrimSpace(strings.TrimPrefix(label, "Address: "))
	}

	ratingText := doc.Find(`div.F7nice span[aria-hidden="true"]`).First().Text()
	place.Rating = parseLocaleFloat(ratingText)

	if label, ok := doc.Find(`div.F7nice span[aria-label]`).First().Attr("aria-label"); ok {
		place.ReviewCount = parseReviewCount(label)
	}

	if href, ok := doc.Find(`a[data-item-id="authority"]`).First().Attr("href"); ok {
		place.Website = normalizeWebsiteURL(href)
	}

	if itemID, ok := doc.Find(`button[data-item-id^="phone:tel:"]`).First().Attr("data-item-id"); ok {
		place.Phone = strings.TrimSpace(strings.TrimPrefix(itemID, "phone:tel:"))
	}

	return place, nil
}

func extractPlaceID(pageURL string) string {
	if m := hexPlaceIDRe.FindStringSubmatch(pageURL); m != nil {
		return m[1]
	}
	if m := anyPlaceIDRe.FindStringSubmatch(pageURL); m != nil {
		if decoded, err := url.QueryUnescape(m[1]); err == nil {
			return decoded
		}
		return m[1]
	}
	return ""
}

func extractCoordinates(pageURL string) (float64, float64) {
	// data段里的!3d/!4d是地点本身的坐标,比/@后的视口中心更准
	if m := coordsRe.FindStringSubmatch(pageURL); m != nil {
		lat, latErr := strconv.ParseFloat(m[1], 64)
		lng, lngErr := strconv.ParseFloat(m[2], 64)
		if latErr == nil && lngErr == nil {
			return lat, lng
		}
	}
	if m := atCoordsRe.FindStringSubmatch(pageURL); m != nil {
		lat, latErr := strconv.ParseFloat(m[1], 64)
		lng, lngErr := strconv.ParseFloat(m[2], 64)
		if latErr == nil && lngErr == nil {
			return lat, lng
		}
	}
	return 0, 0
}

// parseLocaleFloat 解析评分这类小数,部分语言环境用逗号做小数点
func parseLocaleFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	value = strings.ReplaceAll(value, ",", ".")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseReviewCount 从"1,234 reviews"这类文本里抠出数字
func parseReviewCount(value string) *int {
	cleaned := nonDigitRe.ReplaceAllString(value, "")
	if cleaned == "" {
		return nil
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil
	}
	return &n
}

// normalizeWebsiteURL 站点有时把外链包成跳转URL,取q参数还原
func normalizeWebsiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "https://www.google.com/url?") {
		if parsed, err := url.Parse(raw); err == nil {
			if target := parsed.Query().Get("q"); target != "" {
				raw = target
			}
		}
	}
	return raw
}
