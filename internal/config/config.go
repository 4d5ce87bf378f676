package config

import "fmt"

type Config struct {
	Server struct {
		Port                  int      `json:"port"`
		AllowedOrigins        []string `json:"allowed_origins"`
		RequestTimeoutSeconds int      `json:"request_timeout_seconds"`
	} `json:"server"`

	Postgres struct {
		// URI 非空时优先使用,否则由下面的字段拼接DSN
		URI          string `json:"uri"`
		Host         string `json:"host"`
		Port         int    `json:"port"`
		Name         string `json:"name"`
		User         string `json:"user"`
		Password     string `json:"password"`
		SSLMode      string `json:"ssl_mode"`
		MaxOpenConns int    `json:"max_open_conns"`
	} `json:"postgres"`

	Browser struct {
		// Backend 可选 "chromedp" 或 "rod",默认chromedp
		Backend string `json:"backend"`
	} `json:"browser"`

	Chromedp struct {
		LifeTime           int    `json:"life_time"`
		UserDataDir        string `json:"user_data_dir"`
		DisableGpu         bool   `json:"disable_gpu"`
		DisableDevShmUsage bool   `json:"disable_dev_shm_usage"`
		NoSandbox          bool   `json:"no_sandbox"`
		UserAgent          string `json:"user_agent"`
	} `json:"chromedp"`

	Rod struct {
		Bin                string `json:"bin"`
		UserDataDir        string `json:"user_data_dir"`
		DisableDevShmUsage bool   `json:"disable_dev_shm_usage"`
		NoSandbox          bool   `json:"no_sandbox"`
		UserAgent          string `json:"user_agent"`
		Leakless           bool   `json:"leakless"`
	} `json:"rod"`

	Colly struct {
		MaxDepth        int    `json:"max_depth"`
		MaxPages        int    `json:"max_pages"`
		UserAgent       string `json:"user_agent"`
		IgnoreRobotsTxt bool   `json:"ignore_robots_txt"`
		Delay           int    `json:"delay"`
		RandomDelay     int    `json:"random_delay"`
	} `json:"colly"`

	Scraper struct {
		Lang string `json:"lang"`
		// MaxScrolls 滚动次数硬上限,防止站点一直不报告"到底"时死循环
		MaxScrolls int `json:"max_scrolls"`
		// MaxStaleScrolls 连续多少次滚动没有发现新结果后停止
		MaxStaleScrolls        int `json:"max_stale_scrolls"`
		ScrollPauseMillis      int `json:"scroll_pause_millis"`
		NavigateTimeoutSeconds int `json:"navigate_timeout_seconds"`
		// MaxSessions 同时存活的浏览器会话上限
		MaxSessions int `json:"max_sessions"`
	} `json:"scraper"`
}

// PostgresDSN 拼接数据库连接串,URI优先
func (c *Config) PostgresDSN() string {
	if c.Postgres.URI != "" {
		return c.Postgres.URI
	}
	sslMode := c.Postgres.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User, c.Postgres.Password, c.Postgres.Host, c.Postgres.Port, c.Postgres.Name, sslMode)
}

// HasPostgres 判断是否配置了数据库,未配置时服务以"只抓取不入库"模式运行
func (c *Config) HasPostgres() bool {
	return c.Postgres.URI != "" || c.Postgres.Host != ""
}
