package collector

import (
	"github.com/gocolly/colly/v2"
)

// CollyCrawler 普通HTTP爬取器,用于不需要浏览器的页面(比如商家官网)
type CollyCrawler interface {
	Visit(url string) error
	Wait()
	OnRequest(callback func(r *colly.Request))
	OnHTML(selector string, callback func(e *colly.HTMLElement))
	OnError(callback func(r *colly.Response, err error))
}
