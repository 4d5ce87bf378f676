package enrich

import (
	"context"
	"log"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/LouYuanbo1/mapsagent/internal/infra/crawler/collector"
	"github.com/gocolly/colly/v2"
)

// EnrichService 基于商家官网做补充采集,目前只挖联系邮箱
type EnrichService interface {
	FindEmail(ctx context.Context, website string) string
}

type collyEnrichService struct {
	cfg *config.Config
}

func InitEnrichService(cfg *config.Config) EnrichService {
	return &collyEnrichService{cfg: cfg}
}

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// 官网首页没有邮箱时优先跟进这些锚文本指向的页面
var contactKeywords = []string{
	"kontakt", "contact", "impressum", "imprint", "team",
	"über uns", "about", "legal", "kontaktieren",
}

// FindEmail 抓取官网首页及联系页,返回第一枚可信邮箱,找不到返回空串
func (es *collyEnrichService) FindEmail(ctx context.Context, website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	parsed, err := url.Parse(website)
	if err != nil || parsed.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(parsed.Hostname(), "www.")

	cr := collector.InitCollyCrawler(es.cfg, host, "www."+host)

	var (
		mu      sync.Mutex
		email   string
		visited int
	)

	cr.OnRequest(func(r *colly.Request) {
		mu.Lock()
		defer mu.Unlock()
		if email != "" || visited >= es.cfg.Colly.MaxPages {
			r.Abort()
			return
		}
		if err := ctx.Err(); err != nil {
			r.Abort()
			return
		}
		visited++
	})

	cr.OnHTML(`a[href^="mailto:"]`, func(e *colly.HTMLElement) {
		addr := strings.TrimPrefix(e.Attr("href"), "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		setEmail(&mu, &email, addr)
	})

	cr.OnHTML("body", func(e *colly.HTMLElement) {
		for _, found := range emailRe.FindAllString(e.Text, -1) {
			setEmail(&mu, &email, found)
		}
		// 首页落空时跟进联系页
		e.ForEach("a[href]", func(_ int, a *colly.HTMLElement) {
			text := strings.ToLower(strings.TrimSpace(a.Text))
			href := strings.ToLower(a.Attr("href"))
			for _, kw := range contactKeywords {
				if strings.Contains(text, kw) || strings.Contains(href, kw) {
					_ = a.Request.Visit(a.Attr("href"))
					return
				}
			}
		})
	})

	cr.OnError(func(r *colly.Response, err error) {
		log.Printf("官网采集失败 %s: %v", r.Request.URL, err)
	})

	if err := cr.Visit(website); err != nil {
		log.Printf("访问官网失败 %s: %v", website, err)
		return ""
	}
	cr.Wait()

	mu.Lock()
	defer mu.Unlock()
	return email
}

func setEmail(mu *sync.Mutex, email *string, candidate string) {
	candidate = strings.TrimSpace(strings.ToLower(candidate))
	if !emailRe.MatchString(candidate) {
		return
	}
	// 过滤图片等静态资源里的伪命中
	for _, suffix := range []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp"} {
		if strings.HasSuffix(candidate, suffix) {
			return
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if *email == "" {
		*email = candidate
	}
}
