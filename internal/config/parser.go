package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func ParseConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	err := json.Unmarshal(byteConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Chromedp.UserDataDir != "" {
		absPath, err := filepath.Abs(cfg.Chromedp.UserDataDir)
		if err != nil {
			return nil, err
		}
		cfg.Chromedp.UserDataDir = absPath
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8001
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 300
	}
	if cfg.Browser.Backend == "" {
		cfg.Browser.Backend = "chromedp"
	}
	if cfg.Scraper.Lang == "" {
		cfg.Scraper.Lang = "en"
	}
	if cfg.Scraper.MaxScrolls == 0 {
		cfg.Scraper.MaxScrolls = 40
	}
	if cfg.Scraper.MaxStaleScrolls == 0 {
		cfg.Scraper.MaxStaleScrolls = 5
	}
	if cfg.Scraper.ScrollPauseMillis == 0 {
		cfg.Scraper.ScrollPauseMillis = 1500
	}
	if cfg.Scraper.NavigateTimeoutSeconds == 0 {
		cfg.Scraper.NavigateTimeoutSeconds = 30
	}
	if cfg.Scraper.MaxSessions == 0 {
		cfg.Scraper.MaxSessions = 2
	}
	if cfg.Colly.MaxDepth == 0 {
		cfg.Colly.MaxDepth = 2
	}
	if cfg.Colly.MaxPages == 0 {
		cfg.Colly.MaxPages = 6
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
}

// ApplyEnv 用环境变量覆盖配置中的敏感项
// 变量名沿用部署约定: DB_URI、DB_HOST、DB_PORT、DB_NAME、DB_USER、DB_PASSWORD、
// ALLOWED_ORIGINS(逗号分隔)、PORT
func (c *Config) ApplyEnv() {
	if v := os.Getenv("DB_URI"); v != "" {
		c.Postgres.URI = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Postgres.Port = port
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Postgres.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Postgres.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(v, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		c.Server.AllowedOrigins = origins
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}
