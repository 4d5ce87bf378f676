package collector

import (
	"fmt"
	"time"

	"github.com/LouYuanbo1/mapsagent/internal/config"
	"github.com/gocolly/colly/v2"
)

type collyCrawler struct {
	colly *colly.Collector
}

// InitCollyCrawler 按配置创建一个colly采集器
// allowedDomains 把爬取范围限制在目标站点内,每次补全任务单独创建一个实例
func InitCollyCrawler(cfg *config.Config, allowedDomains ...string) CollyCrawler {
	var opts []colly.CollectorOption
	opts = append(opts,
		colly.MaxDepth(cfg.Colly.MaxDepth),
		colly.UserAgent(cfg.Colly.UserAgent),
	)
	if len(allowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(allowedDomains...))
	}
	if cfg.Colly.IgnoreRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}
	c := colly.NewCollector(opts...)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       time.Duration(cfg.Colly.Delay) * time.Second,
		RandomDelay: time.Duration(cfg.Colly.RandomDelay) * time.Second,
	})
	return &collyCrawler{
		colly: c,
	}
}

func (c *collyCrawler) Visit(url string) error {
	err := c.colly.Visit(url)
	if err != nil {
		return fmt.Errorf("访问URL失败: %w", err)
	}
	return nil
}

func (c *collyCrawler) Wait() {
	c.colly.Wait()
}

func (c *collyCrawler) OnRequest(callback func(r *colly.Request)) {
	c.colly.OnRequest(callback)
}

func (c *collyCrawler) OnHTML(selector string, callback func(e *colly.HTMLElement)) {
	c.colly.OnHTML(selector, callback)
}

func (c *collyCrawler) OnError(callback func(r *colly.Response, err error)) {
	c.colly.OnError(callback)
}
