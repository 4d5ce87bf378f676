package param

// Scrape 一次抓取请求的参数
// MaxPlaces <= 0 表示不限制数量,由站点决定返回多少结果
type Scrape struct {
	Query     string `json:"query"`
	MaxPlaces int    `json:"max_places"`
	Lang      string `json:"lang"`
	Headless  bool   `json:"headless"`
	// Store 为true时,抓取结果与历史记录会写入数据库
	Store bool `json:"store"`
	// Enrich 为true时,对带有官网链接的结果做联系方式补全
	Enrich bool `json:"enrich"`
}
